package usertests

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

func DoListUsersTests(t *T) {
	t.Run("gets a list of users", func(t *T) {
		t.SetUpSeededUsers()

		resp := t.Request(http.MethodGet, "/users", nil, nil)
		t.RequireStatus(resp, http.StatusOK)

		var body servicedef.UsersResponse
		t.DecodeBody(resp, &body)
		assert.Greater(t, len(body.Results), 1)
	})
}

func DoGetUserTests(t *T) {
	t.Run("gets a user", func(t *T) {
		seeded := t.SetUpSeededUsers()

		resp := t.Request(http.MethodGet, userPath(seeded.AuthUser.ID), nil, nil)
		t.RequireStatus(resp, http.StatusOK)

		var body servicedef.UserResponse
		t.DecodeBody(resp, &body)
		assert.NotEmpty(t, body.User.FirstName)
	})

	t.Run("gets every seeded user", func(t *T) {
		seeded := t.SetUpSeededUsers()

		for _, user := range seeded.All {
			resp := t.Request(http.MethodGet, userPath(user.ID), nil, nil)
			if !assert.Equal(t, http.StatusOK, resp.StatusCode, "GET user %s", user.ID) {
				continue
			}
			var body servicedef.UserResponse
			t.DecodeBody(resp, &body)
			assert.Equal(t, user.FirstName, body.User.FirstName)
		}
	})

	t.Run("errors when invalid userId", func(t *T) {
		t.SetUpSeededUsers()

		resp := t.Request(http.MethodGet, userPath("1234"), nil, nil)
		t.RequireStatus(resp, http.StatusUnprocessableEntity)

		errs := decodeErrors(t, resp)
		require.Len(t, errs, 1)
	})
}
