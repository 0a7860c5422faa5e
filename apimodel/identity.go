package apimodel

// Role is the coarse capability attached to an identity.
type Role string

const (
	RoleAdmin   Role = "ADMIN"   // Clinic staff, may manage users and every record
	RolePatient Role = "PATIENT" // A patient, linked to a patient record via PatientID
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RolePatient
}

// Identity is the user a session belongs to. It is the only part of a client
// session that is ever written to durable storage.
type Identity struct {
	ID        string  `json:"id"`                  // Unique identifier of the user
	Email     string  `json:"email"`               // Login email
	FirstName string  `json:"firstName"`           // Given name
	LastName  string  `json:"lastName"`            // Family name
	Role      Role    `json:"role"`                // ADMIN or PATIENT
	PatientID *string `json:"patientId,omitempty"` // Linked patient record, patients only
	Blocked   bool    `json:"blocked,omitempty"`   // Set on accounts an admin has blocked
}

// Clone returns a deep copy so callers can never alias stored state.
func (i Identity) Clone() Identity {
	if i.PatientID != nil {
		id := *i.PatientID
		i.PatientID = &id
	}
	return i
}

// FullName joins first and last name.
func (i Identity) FullName() string {
	switch {
	case i.FirstName == "":
		return i.LastName
	case i.LastName == "":
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}

// IdentityUpdate is a partial identity. Nil fields are left untouched.
type IdentityUpdate struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Role      *Role   `json:"role,omitempty"`
	PatientID *string `json:"patientId,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u IdentityUpdate) IsEmpty() bool {
	return u.Email == nil && u.FirstName == nil && u.LastName == nil && u.Role == nil && u.PatientID == nil
}

// Apply merges the non-nil fields of u into a copy of i.
// Values are accepted as given, validation belongs to the caller.
func (i Identity) Apply(u IdentityUpdate) Identity {
	out := i.Clone()
	if u.Email != nil {
		out.Email = *u.Email
	}
	if u.FirstName != nil {
		out.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		out.LastName = *u.LastName
	}
	if u.Role != nil {
		out.Role = *u.Role
	}
	if u.PatientID != nil {
		id := *u.PatientID
		out.PatientID = &id
	}
	return out
}

// AsUpdate expresses the whole identity as an update, used when the server
// echoes back the stored profile after an edit.
func (i Identity) AsUpdate() IdentityUpdate {
	c := i.Clone()
	return IdentityUpdate{
		Email:     &c.Email,
		FirstName: &c.FirstName,
		LastName:  &c.LastName,
		Role:      &c.Role,
		PatientID: c.PatientID,
	}
}
