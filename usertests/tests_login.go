package usertests

import (
	"net/http"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

func DoLoginTests(t *T) {
	t.Run("logs in as a user", func(t *T) {
		seeded := t.SetUpSeededUsers()

		resp := t.Request(http.MethodPost, "/login", nil, servicedef.LoginParams{
			Type:     servicedef.LoginTypeLogin,
			Username: seeded.AuthUser.Username,
			Password: t.DefaultPassword(),
		})
		t.RequireStatus(resp, http.StatusOK)
	})
}
