package auth_test

import (
	"testing"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/auth"
	"github.com/jrsteele09/care-portal/internal/utils"
	"github.com/jrsteele09/care-portal/users"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateUserCredentials(t *testing.T) {
	v := auth.NewValidator()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, v.ValidateUserCredentials("jane@clinic.test", "x"))
	})

	t.Run("missing email", func(t *testing.T) {
		err := v.ValidateUserCredentials("  ", "x")
		require.Error(t, err)
		require.Contains(t, err.Error(), "email is required")
	})

	t.Run("bad email", func(t *testing.T) {
		err := v.ValidateUserCredentials("jane.clinic.test", "x")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid email format")
	})

	t.Run("missing password", func(t *testing.T) {
		err := v.ValidateUserCredentials("jane@clinic.test", "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "password is required")
	})
}

func TestValidator_ValidateAccessToken(t *testing.T) {
	v := auth.NewValidator()

	require.NoError(t, v.ValidateAccessToken("a.b.c"))
	require.Error(t, v.ValidateAccessToken(""))
	require.Error(t, v.ValidateAccessToken("a.b"))

	err := v.ValidateAccessToken("a..c")
	require.Error(t, err)
	require.Contains(t, err.Error(), "part 2 is empty")
}

func TestValidator_ValidateRefreshToken(t *testing.T) {
	v := auth.NewValidator()

	require.NoError(t, v.ValidateRefreshToken("0123456789abcdef0123"))
	require.Error(t, v.ValidateRefreshToken(""))
	require.Error(t, v.ValidateRefreshToken("short"))
}

func TestValidator_ValidateProfileUpdate(t *testing.T) {
	v := auth.NewValidator()
	patient := &users.User{ID: "u-1", Role: apimodel.RolePatient, PatientID: utils.Ptr("p-1")}

	tests := []struct {
		name    string
		update  apimodel.IdentityUpdate
		wantErr string
	}{
		{name: "names", update: apimodel.IdentityUpdate{FirstName: utils.Ptr("Jo")}},
		{name: "echoed role and patient", update: apimodel.IdentityUpdate{
			LastName:  utils.Ptr("Doe"),
			Role:      utils.Ptr(apimodel.RolePatient),
			PatientID: utils.Ptr("p-1"),
		}},
		{name: "empty", update: apimodel.IdentityUpdate{}, wantErr: "no fields"},
		{name: "role change", update: apimodel.IdentityUpdate{Role: utils.Ptr(apimodel.RoleAdmin)}, wantErr: "role cannot be changed"},
		{name: "patient change", update: apimodel.IdentityUpdate{PatientID: utils.Ptr("p-2")}, wantErr: "patient link"},
		{name: "bad email", update: apimodel.IdentityUpdate{Email: utils.Ptr("nope")}, wantErr: "invalid email"},
		{name: "blank name", update: apimodel.IdentityUpdate{FirstName: utils.Ptr(" ")}, wantErr: "cannot be empty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateProfileUpdate(patient, tc.update)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidator_ValidateNewUser(t *testing.T) {
	v := auth.NewValidator()
	valid := auth.NewUser{
		Email:     "new@clinic.test",
		Password:  "Str0ngPassword",
		Role:      apimodel.RolePatient,
		PatientID: utils.Ptr("p-9"),
	}
	require.NoError(t, v.ValidateNewUser(valid))

	weak := valid
	weak.Password = "weak"
	require.Error(t, v.ValidateNewUser(weak))

	unlinked := valid
	unlinked.PatientID = nil
	require.Error(t, v.ValidateNewUser(unlinked))

	linkedAdmin := valid
	linkedAdmin.Role = apimodel.RoleAdmin
	require.Error(t, v.ValidateNewUser(linkedAdmin))

	badRole := valid
	badRole.Role = "NURSE"
	require.Error(t, v.ValidateNewUser(badRole))
}
