package usertests

import (
	"net/http"
	"net/url"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

func DoSearchTests(t *T) {
	searchBy := func(name string, field func(servicedef.User) string) {
		t.Run("gets users by "+name, func(t *T) {
			seeded := t.SetUpSeededUsers()

			resp := t.Request(http.MethodGet, "/users/search",
				url.Values{"q": []string{field(seeded.SearchUser)}}, nil)
			t.RequireStatus(resp, http.StatusOK)

			var body servicedef.UsersResponse
			t.DecodeBody(resp, &body)
			require.NotEmpty(t, body.Results)
			assert.Equal(t, seeded.SearchUser.FirstName, body.Results[0].FirstName)
		})
	}

	searchBy("email", func(u servicedef.User) string { return u.Email })
	searchBy("phone number", func(u servicedef.User) string { return u.PhoneNumber })
	searchBy("username", func(u servicedef.User) string { return u.Username })
}
