package usertests

import (
	"net/http"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realworldapp/api-contract-tests/fixtures"
	"github.com/realworldapp/api-contract-tests/servicedef"
)

func DoUpdateUserTests(t *T) {
	t.Run("updates a user", func(t *T) {
		seeded := t.SetUpSeededUsers()
		firstName := gofakeit.FirstName()

		resp := t.Request(http.MethodPatch, userPath(seeded.AuthUser.ID), nil, servicedef.UpdateUserParams{
			FirstName: &firstName,
		})
		t.RequireStatus(resp, http.StatusNoContent)
		assert.Empty(t, resp.Body)

		updated := t.FindDatabase("users", fixtures.Attrs{"id": seeded.AuthUser.ID})
		assert.Equal(t, firstName, updated.FirstName)
	})

	t.Run("errors when an invalid field sent", func(t *T) {
		seeded := t.SetUpSeededUsers()

		resp := t.Request(http.MethodPatch, userPath(seeded.AuthUser.ID), nil, map[string]string{
			"notAUserField": "not a user field",
		})
		t.RequireStatus(resp, http.StatusUnprocessableEntity)

		require.Len(t, decodeErrors(t, resp), 1)
	})

	t.Run("errors when an invalid field is sent alongside valid fields", func(t *T) {
		seeded := t.SetUpSeededUsers()

		resp := t.Request(http.MethodPatch, userPath(seeded.AuthUser.ID), nil, map[string]interface{}{
			"firstName":     gofakeit.FirstName(),
			"notAUserField": "not a user field",
		})
		t.RequireStatus(resp, http.StatusUnprocessableEntity)
		require.Len(t, decodeErrors(t, resp), 1)

		unchanged := t.FindDatabase("users", fixtures.Attrs{"id": seeded.AuthUser.ID})
		assert.Equal(t, seeded.AuthUser.FirstName, unchanged.FirstName)
	})
}
