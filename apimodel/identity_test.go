package apimodel_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestIdentity_Apply(t *testing.T) {
	base := apimodel.Identity{
		ID:        "u-1",
		Email:     "jane@clinic.test",
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      apimodel.RolePatient,
		PatientID: utils.Ptr("p-1"),
	}

	t.Run("only non-nil fields change", func(t *testing.T) {
		out := base.Apply(apimodel.IdentityUpdate{FirstName: utils.Ptr("X")})
		require.Equal(t, "X", out.FirstName)
		require.Equal(t, "Doe", out.LastName)
		require.Equal(t, "Jane", base.FirstName)
	})

	t.Run("patient id is copied not aliased", func(t *testing.T) {
		id := "p-2"
		out := base.Apply(apimodel.IdentityUpdate{PatientID: &id})
		id = "mutated"
		require.Equal(t, "p-2", *out.PatientID)
		require.Equal(t, "p-1", *base.PatientID)
	})

	t.Run("empty update", func(t *testing.T) {
		require.True(t, apimodel.IdentityUpdate{}.IsEmpty())
		require.Equal(t, base, base.Apply(apimodel.IdentityUpdate{}))
	})

	t.Run("as update round trips", func(t *testing.T) {
		require.Equal(t, base, apimodel.Identity{}.Apply(base.AsUpdate()))
	})
}

func TestIdentity_JSON(t *testing.T) {
	raw := `{"id":"u-1","email":"a@b.test","firstName":"A","lastName":"B","role":"ADMIN"}`

	var id apimodel.Identity
	require.NoError(t, json.Unmarshal([]byte(raw), &id))
	require.Equal(t, apimodel.RoleAdmin, id.Role)
	require.Nil(t, id.PatientID)
	require.True(t, id.Role.Valid())
	require.Equal(t, "A B", id.FullName())
}
