package usertests

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

func DoCreateUserTests(t *T) {
	t.Run("creates a new user", func(t *T) {
		t.SetUpSeededUsers()
		params := RandomUser()

		resp := t.Request(http.MethodPost, "/users", nil, params.AsMap())
		t.RequireStatus(resp, http.StatusCreated)

		var body servicedef.UserResponse
		t.DecodeBody(resp, &body)
		assert.Equal(t, params.FirstName, body.User.FirstName)
		assert.Empty(t, body.User.Password)
	})

	t.Run("creates a new user with an account balance in cents", func(t *T) {
		t.SetUpSeededUsers()
		params := RandomUser()
		params.Balance = ldvalue.NewOptionalInt(10000)

		resp := t.Request(http.MethodPost, "/users", nil, params.AsMap())
		t.RequireStatus(resp, http.StatusCreated)

		var body servicedef.UserResponse
		t.DecodeBody(resp, &body)
		assert.Equal(t, int64(10000), body.User.Balance)
	})

	t.Run("errors when an invalid field sent", func(t *T) {
		t.SetUpSeededUsers()

		resp := t.Request(http.MethodPost, "/users", nil, map[string]string{
			"notAUserField": "not a user field",
		})
		t.RequireStatus(resp, http.StatusUnprocessableEntity)

		require.Len(t, decodeErrors(t, resp), 1)
	})

	t.Run("errors when an invalid field is sent alongside valid fields", func(t *T) {
		t.SetUpSeededUsers()

		payloads := map[string]map[string]interface{}{
			"complete user plus unknown field": withFields(RandomUser().AsMap(), map[string]interface{}{
				"notAUserField": "not a user field",
			}),
			"complete user plus several unknown fields": withFields(RandomUser().AsMap(), map[string]interface{}{
				"notAUserField":  "not a user field",
				"isAdmin":        true,
				"transactionIds": []string{"t1", "t2"},
			}),
			"partial user plus unknown object field": {
				"firstName":     "Kaylin",
				"notAUserField": map[string]interface{}{"nested": []int{1, 2}},
			},
		}
		for name, payload := range payloads {
			resp := t.Request(http.MethodPost, "/users", nil, payload)
			if assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, name) {
				assert.Len(t, decodeErrors(t, resp), 1, name)
			}
		}
	})
}

func withFields(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}
