package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/internal/errors"
	"github.com/jrsteele09/care-portal/internal/utils"
	"github.com/jrsteele09/care-portal/token"
	"github.com/jrsteele09/care-portal/users"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	signer  token.Signer
	manager *token.Manager
	now     time.Time
	user    *users.User
}

func setupTestFixture(t *testing.T, options ...token.ManagerOption) *testFixture {
	t.Helper()

	signer, generated, err := token.NewSigner("test-key", "")
	require.NoError(t, err)
	require.True(t, generated)

	f := &testFixture{
		signer: signer,
		now:    time.Now().Truncate(time.Second),
		user: &users.User{
			ID:        "user-1",
			Email:     "pat@clinic.test",
			Role:      apimodel.RolePatient,
			PatientID: utils.Ptr("patient-1"),
		},
	}
	opts := append([]token.ManagerOption{
		token.WithIssuer("https://api.clinic.test"),
		token.WithAudience("care-portal-api"),
		token.WithAccessTokenExpiry(time.Minute),
		token.WithNowFunc(func() time.Time { return f.now }),
	}, options...)
	f.manager = token.New(signer, opts...)
	return f
}

func TestManager_CreateAndVerify(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	raw, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)

	claims, err := f.manager.Verify(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID())
	require.Equal(t, apimodel.RolePatient, claims.Role)
	require.Equal(t, "patient-1", claims.PatientID)
	require.Equal(t, "pat@clinic.test", claims.Email)
	require.False(t, claims.IsAdmin())
	require.NotEmpty(t, claims.ID)
	require.Equal(t, f.now.Add(time.Minute).Unix(), claims.ExpiresAt.Unix())

	// Each token gets its own jti.
	other, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)
	otherClaims, err := f.manager.Verify(ctx, other)
	require.NoError(t, err)
	require.NotEqual(t, claims.ID, otherClaims.ID)
}

func TestManager_VerifyRejects(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	raw, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := f.manager.Verify(ctx, " ")
		require.ErrorIs(t, err, errors.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := f.manager.Verify(ctx, "not.a.jwt")
		require.ErrorIs(t, err, errors.ErrInvalidToken)
	})

	t.Run("other key", func(t *testing.T) {
		other := setupTestFixture(t)
		foreign, err := other.manager.CreateAccessToken(f.user)
		require.NoError(t, err)
		_, err = f.manager.Verify(ctx, foreign)
		require.ErrorIs(t, err, errors.ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		m := token.New(f.signer, token.WithIssuer("https://api.clinic.test"), token.WithAudience("someone-else"))
		_, err := m.Verify(ctx, raw)
		require.ErrorIs(t, err, errors.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		m := token.New(f.signer, token.WithIssuer("https://evil.test"), token.WithAudience("care-portal-api"))
		_, err := m.Verify(ctx, raw)
		require.ErrorIs(t, err, errors.ErrInvalidToken)
	})

	t.Run("hmac signed", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iss": "https://api.clinic.test",
			"aud": "care-portal-api",
			"sub": "user-1",
			"jti": "forged",
			"exp": f.now.Add(time.Hour).Unix(),
		})
		signed, err := forged.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = f.manager.Verify(ctx, signed)
		require.ErrorIs(t, err, errors.ErrInvalidToken)
	})
}

func TestManager_VerifyExpired(t *testing.T) {
	f := setupTestFixture(t)
	raw, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Minute)
	_, err = f.manager.Verify(context.Background(), raw)
	require.ErrorIs(t, err, errors.ErrTokenExpired)
}

func TestManager_Revoke(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	caches := map[string]token.RevokedTokenCache{
		"memory": token.NewInMemoryRevokedTokenCache(),
		"redis":  token.NewRedisRevokedTokenCache(client),
	}
	for name, cache := range caches {
		t.Run(name, func(t *testing.T) {
			f := setupTestFixture(t, token.WithRevokedTokenCache(cache))
			ctx := context.Background()

			raw, err := f.manager.CreateAccessToken(f.user)
			require.NoError(t, err)
			kept, err := f.manager.CreateAccessToken(f.user)
			require.NoError(t, err)

			require.NoError(t, f.manager.RevokeAccessToken(ctx, raw))
			_, err = f.manager.Verify(ctx, raw)
			require.ErrorIs(t, err, errors.ErrTokenRevoked)
			require.NoError(t, f.manager.RevokeAccessToken(ctx, raw), "revoking twice is fine")

			_, err = f.manager.Verify(ctx, kept)
			require.NoError(t, err)

			require.Error(t, f.manager.RevokeAccessToken(ctx, "garbage"))
		})
	}
}

func TestInMemoryRevokedTokenCache_Cleanup(t *testing.T) {
	ctx := context.Background()
	cache := token.NewInMemoryRevokedTokenCache()
	require.NoError(t, cache.Add(ctx, "old", time.Now().Add(-time.Minute)))
	require.NoError(t, cache.Add(ctx, "live", time.Now().Add(time.Hour)))

	cache.Cleanup()

	revoked, err := cache.IsRevoked(ctx, "old")
	require.NoError(t, err)
	require.False(t, revoked)
	revoked, err = cache.IsRevoked(ctx, "live")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestKeys(t *testing.T) {
	kp, err := token.GenerateRSAKeyPair("", 1024)
	require.NoError(t, err)
	require.NotEmpty(t, kp.KeyID)
	require.Equal(t, 2048, kp.PrivateKey.N.BitLen())

	loaded, err := token.LoadRSAKeyPairFromPEM(kp.KeyID, kp.ExportPrivateKeyPEM())
	require.NoError(t, err)
	require.True(t, kp.PrivateKey.Equal(loaded.PrivateKey))

	_, err = token.LoadRSAKeyPairFromPEM("", "nope")
	require.Error(t, err)

	signer, generated, err := token.NewSigner("kid-1", kp.ExportPrivateKeyPEM())
	require.NoError(t, err)
	require.False(t, generated)
	require.Equal(t, "RS256", signer.Algorithm())

	m := token.New(signer)
	jwks, err := m.GetJWKS()
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "kid-1", jwks.Keys[0].Kid)
	require.Equal(t, "AQAB", jwks.Keys[0].E)
}
