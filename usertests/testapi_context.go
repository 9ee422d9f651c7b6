package usertests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/realworldapp/api-contract-tests/fixtures"
	"github.com/realworldapp/api-contract-tests/framework/apitest"
	"github.com/realworldapp/api-contract-tests/framework/harness"
	"github.com/realworldapp/api-contract-tests/servicedef"
)

// UsersTestContext is the configuration shared by every test in the suite.
type UsersTestContext struct {
	harness         *harness.TestHarness
	defaultPassword string
}

func requireContext(t *apitest.T) UsersTestContext {
	if c, ok := t.Context().(UsersTestContext); ok {
		return c
	}
	panic("UsersTestContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}

// T represents a test or subtest in the users API suite.
//
// It embeds the framework's test scope, so it can be passed to assert and require like a
// *testing.T. It adds an HTTP session with its own cookies, and helpers for the test-data tasks
// and for calling the API.
type T struct {
	*apitest.T
	session *harness.Session
	tasks   fixtures.TaskSet
}

func newTestScope(t *apitest.T) *T {
	session := requireContext(t).harness.NewSession(t.DebugLogger())
	return &T{
		T:       t,
		session: session,
		tasks:   fixtures.NewTaskSet(fixtures.NewClient(session)),
	}
}

// Run runs a subtest in a new scope with a new session.
func (t *T) Run(name string, action func(*T)) {
	t.T.Run(name, func(inner *apitest.T) {
		action(newTestScope(inner))
	})
}

// DefaultPassword is the password of every seeded user.
func (t *T) DefaultPassword() string {
	return requireContext(t.T).defaultPassword
}

// SeedDatabase resets the backend to its seed data, failing the test if that is not possible.
func (t *T) SeedDatabase() {
	_, err := t.tasks.RunTask(context.Background(), fixtures.TaskSeed, fixtures.QueryPayload{})
	require.NoError(t, err, "could not seed the database")
}

// FilterDatabase returns the records of the entity collection that match attrs.
func (t *T) FilterDatabase(entity string, attrs fixtures.Attrs) []servicedef.User {
	result, err := t.tasks.RunTask(context.Background(), fixtures.TaskFilter,
		fixtures.QueryPayload{Entity: entity, Query: attrs.AsQuery()})
	require.NoError(t, err)
	users, err := fixtures.DecodeUsers(fixtures.RecordsOf(result))
	require.NoError(t, err)
	return users
}

// FindDatabase returns the first record of the entity collection that matches attrs, failing
// the test if there is none.
func (t *T) FindDatabase(entity string, attrs fixtures.Attrs) servicedef.User {
	record, err := t.tasks.RunTask(context.Background(), fixtures.TaskFind,
		fixtures.QueryPayload{Entity: entity, Query: attrs.AsQuery()})
	require.NoError(t, err)
	require.False(t, record.IsNull(), "no %s record matched %v", entity, attrs)
	users, err := fixtures.DecodeUsers([]ldvalue.Value{record})
	require.NoError(t, err)
	return users[0]
}

// LoginByAPI logs in through POST /login with the default password. The session cookie is kept
// for the rest of the test.
func (t *T) LoginByAPI(username string) {
	resp := t.Request(http.MethodPost, "/login", nil, servicedef.LoginParams{
		Type:     servicedef.LoginTypeLogin,
		Username: username,
		Password: t.DefaultPassword(),
	})
	t.RequireStatus(resp, http.StatusOK)
}

// Request sends a request in the test's session. It fails the test only if no response was
// received; the status is for the caller to check.
func (t *T) Request(method, path string, query url.Values, body interface{}) *harness.Response {
	resp, err := t.session.Do(context.Background(), harness.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
	})
	require.NoError(t, err)
	return resp
}

// RequireStatus fails the test immediately if the response does not have the expected status.
func (t *T) RequireStatus(resp *harness.Response, status int) {
	require.Equal(t, status, resp.StatusCode, "unexpected status for response: %s", string(resp.Body))
}

// DecodeBody parses the response body as JSON into target, failing the test if it cannot.
func (t *T) DecodeBody(resp *harness.Response, target interface{}) {
	require.NoError(t, resp.DecodeJSON(target))
}

// SeededUsers is the state every test starts from.
type SeededUsers struct {
	All        []servicedef.User
	AuthUser   servicedef.User
	SearchUser servicedef.User
}

// SetUpSeededUsers seeds the database and logs in as the first seeded user. The second seeded
// user is the one that search tests look for.
func (t *T) SetUpSeededUsers() SeededUsers {
	t.SeedDatabase()
	users := t.FilterDatabase("users", nil)
	require.GreaterOrEqual(t, len(users), 2, "seed data must contain at least two users")
	t.LoginByAPI(users[0].Username)
	return SeededUsers{All: users, AuthUser: users[0], SearchUser: users[1]}
}

// RandomUser returns create params for a user that does not exist yet.
func RandomUser() servicedef.CreateUserParams {
	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	return servicedef.CreateUserParams{
		FirstName:   first,
		LastName:    last,
		Username:    gofakeit.Username() + "_" + uuid.NewString()[:8],
		Password:    gofakeit.Password(true, true, true, false, false, 12),
		Email:       gofakeit.Email(),
		PhoneNumber: gofakeit.Phone(),
		Avatar:      gofakeit.ImageURL(128, 128),
	}
}

func userPath(id string) string {
	return "/users/" + url.PathEscape(id)
}

func decodeErrors(t *T, resp *harness.Response) []servicedef.ValidationError {
	var body servicedef.ErrorsResponse
	t.DecodeBody(resp, &body)
	return body.Errors
}

func decodeObject(t *T, resp *harness.Response) map[string]json.RawMessage {
	var body map[string]json.RawMessage
	t.DecodeBody(resp, &body)
	return body
}
