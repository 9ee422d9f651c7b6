package usertests

import (
	"encoding/json"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

func DoProfileTests(t *T) {
	t.Run("gets a user profile by username", func(t *T) {
		seeded := t.SetUpSeededUsers()
		user := seeded.AuthUser

		resp := t.Request(http.MethodGet, "/users/profile/"+user.Username, nil, nil)
		t.RequireStatus(resp, http.StatusOK)

		body := decodeObject(t, resp)
		var profile map[string]interface{}
		require.NoError(t, json.Unmarshal(body["user"], &profile))
		assert.Equal(t, map[string]interface{}{
			"firstName": user.FirstName,
			"lastName":  user.LastName,
			"avatar":    user.Avatar,
		}, profile)
		assert.NotContains(t, profile, "balance")
	})

	t.Run("never exposes balance or password", func(t *T) {
		seeded := t.SetUpSeededUsers()

		for _, user := range seeded.All {
			resp := t.Request(http.MethodGet, "/users/profile/"+user.Username, nil, nil)
			if !assert.Equal(t, http.StatusOK, resp.StatusCode, "profile of %s", user.Username) {
				continue
			}
			body := decodeObject(t, resp)
			var profile map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(body["user"], &profile))
			assert.NotContains(t, profile, "balance", "profile of %s", user.Username)
			assert.NotContains(t, profile, "password", "profile of %s", user.Username)

			var typed servicedef.ProfileResponse
			t.DecodeBody(resp, &typed)
			assert.Equal(t, user.Profile(), typed.User)
		}
	})
}
