package config

type StoreConfig interface {
	GetRedisURL() string
}

type Store struct{}

var _ StoreConfig = Store{}

// GetRedisURL points at the Redis holding refresh tokens and revocations.
// Empty keeps both in memory.
func (Store) GetRedisURL() string {
	return GetEnv("REDIS_URL", "")
}

type BootstrapConfig interface {
	GetAdminEmail() string
	GetAdminPassword() string
	GetSeedPatient() bool
}

type Bootstrap struct{}

var _ BootstrapConfig = Bootstrap{}

func (Bootstrap) GetAdminEmail() string {
	return GetEnv("ADMIN_EMAIL", "admin@careportal.local")
}

// GetAdminPassword is the initial admin password. Empty means one is
// generated and logged once.
func (Bootstrap) GetAdminPassword() string {
	return GetEnv("ADMIN_PASSWORD", "")
}

func (Bootstrap) GetSeedPatient() bool {
	return GetBoolEnv("SEED_PATIENT", EnvVars{}.GetEnv() == "DEV")
}
