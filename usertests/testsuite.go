package usertests

import (
	"github.com/realworldapp/api-contract-tests/framework/apitest"
	"github.com/realworldapp/api-contract-tests/framework/harness"
	"github.com/realworldapp/api-contract-tests/servicedef"
)

// SuiteOptions holds the settings of a suite run that are not part of the harness.
type SuiteOptions struct {
	// DefaultPassword is the password of every seeded user. Defaults to
	// servicedef.DefaultSeedPassword.
	DefaultPassword string

	// Retries is the number of extra attempts a failed test gets.
	Retries int
}

func RunTestSuite(
	harness *harness.TestHarness,
	filter apitest.Filter,
	testLogger apitest.TestLogger,
	opts SuiteOptions,
) apitest.Results {
	if opts.DefaultPassword == "" {
		opts.DefaultPassword = servicedef.DefaultSeedPassword
	}
	config := apitest.TestConfiguration{
		Filter:     filter,
		TestLogger: testLogger,
		Context: UsersTestContext{
			harness:         harness,
			defaultPassword: opts.DefaultPassword,
		},
		Retries: opts.Retries,
	}
	return apitest.Run(config, func(root *apitest.T) {
		t := newTestScope(root)

		t.Run("GET /users", DoListUsersTests)
		t.Run("GET /users/:userId", DoGetUserTests)
		t.Run("GET /users/profile/:username", DoProfileTests)
		t.Run("GET /users/search", DoSearchTests)
		t.Run("POST /users", DoCreateUserTests)
		t.Run("PATCH /users/:userId", DoUpdateUserTests)
		t.Run("POST /login", DoLoginTests)
	})
}
