package refservice

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/realworldapp/api-contract-tests/framework"
	"github.com/realworldapp/api-contract-tests/framework/harness"
	"github.com/realworldapp/api-contract-tests/servicedef"
)

func withService(t *testing.T, action func(svc *Service, session *harness.Session)) {
	svc, err := New(context.Background(), Config{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	defer svc.Close()

	server := httptest.NewServer(svc)
	defer server.Close()

	action(svc, harness.NewSession(server.URL, 5*time.Second, framework.NullLogger()))
}

func seededUsers(t *testing.T, session *harness.Session) []servicedef.User {
	resp, err := session.Get(context.Background(), "/testData/users", nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	var body servicedef.UsersResponse
	require.NoError(t, resp.DecodeJSON(&body))
	return body.Results
}

func login(t *testing.T, session *harness.Session, username string) {
	resp, err := session.Post(context.Background(), "/login", servicedef.LoginParams{
		Type: servicedef.LoginTypeLogin, Username: username, Password: servicedef.DefaultSeedPassword,
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
}

func TestSeedUsersAreDeterministic(t *testing.T) {
	a := generateSeedUsers(42, 5, "hash")
	b := generateSeedUsers(42, 5, "hash")
	c := generateSeedUsers(43, 5, "hash")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	require.Len(t, a, 5)

	usernames := make(map[string]bool)
	for _, u := range a {
		assert.NotEmpty(t, u.ID)
		assert.NotEmpty(t, u.FirstName)
		assert.Equal(t, "hash", u.PasswordHash)
		usernames[u.Username] = true
	}
	assert.Len(t, usernames, 5)
}

func TestSearchRanksExactMatchesFirst(t *testing.T) {
	db, err := openDatabase(MemoryDatabase)
	require.NoError(t, err)
	defer db.Close()
	store := newUserStore(db)
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	users := []userRecord{
		{User: servicedef.User{ID: "1", FirstName: "Annabel", Username: "annabel", Email: "a1@example.com", PhoneNumber: "555-0001"}},
		{User: servicedef.User{ID: "2", FirstName: "Ann", Username: "ann", Email: "a2@example.com", PhoneNumber: "555-0002"}},
		{User: servicedef.User{ID: "3", FirstName: "Bob", Username: "bob_ann", Email: "b@example.com", PhoneNumber: "555-0003"}},
		{User: servicedef.User{ID: "4", FirstName: "Carl", Username: "carl", Email: "c@example.com", PhoneNumber: "555-0004"}},
	}
	require.NoError(t, store.Reset(ctx, users))

	found, err := store.Search(ctx, "ANN")
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "2", found[0].ID)
	assert.Equal(t, "1", found[1].ID)
	assert.Equal(t, "3", found[2].ID)

	found, err = store.Search(ctx, "_")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "3", found[0].ID)

	found, err = store.Search(ctx, " ")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestListRequiresSession(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		resp, err := session.Get(context.Background(), "/users", nil)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		users := seededUsers(t, session)
		resp, err := session.Post(context.Background(), "/login", servicedef.LoginParams{
			Type: servicedef.LoginTypeLogin, Username: users[0].Username, Password: "wrong",
		})
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})
}

func TestListExcludesCurrentUser(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		users := seededUsers(t, session)
		login(t, session, users[0].Username)

		resp, err := session.Get(context.Background(), "/users", nil)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
		var body servicedef.UsersResponse
		require.NoError(t, resp.DecodeJSON(&body))
		assert.Len(t, body.Results, len(users)-1)
		for _, u := range body.Results {
			assert.NotEqual(t, users[0].ID, u.ID)
			assert.Empty(t, u.Password)
		}
	})
}

func TestTestDataIncludesPasswordHashes(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		users := seededUsers(t, session)
		require.Len(t, users, defaultSeedUsers)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte(servicedef.DefaultSeedPassword)))

		resp, err := session.Get(context.Background(), "/testData/bankaccounts", nil)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestSeedRestoresInitialUsers(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		before := seededUsers(t, session)
		login(t, session, before[0].Username)

		resp, err := session.Post(context.Background(), "/users", map[string]interface{}{
			"firstName": "New", "lastName": "User", "username": "newuser", "password": "pw",
		})
		require.NoError(t, err)
		require.Equal(t, 201, resp.StatusCode)
		assert.Len(t, seededUsers(t, session), len(before)+1)

		resp, err = session.Post(context.Background(), "/testData/seed", nil)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, before, seededUsers(t, session))
	})
}

func TestGetUserValidatesID(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		users := seededUsers(t, session)
		login(t, session, users[0].Username)

		resp, err := session.Get(context.Background(), "/users/1234", nil)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
		var body servicedef.ErrorsResponse
		require.NoError(t, resp.DecodeJSON(&body))
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "userId", body.Errors[0].Param)

		resp, err = session.Get(context.Background(), "/users/"+users[1].ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
}

func TestProfileHasOnlyPublicFields(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		users := seededUsers(t, session)

		resp, err := session.Get(context.Background(), "/users/profile/"+url.PathEscape(users[2].Username), nil)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
		var body map[string]map[string]interface{}
		require.NoError(t, json.Unmarshal(resp.Body, &body))
		assert.Equal(t, map[string]interface{}{
			"firstName": users[2].FirstName,
			"lastName":  users[2].LastName,
			"avatar":    users[2].Avatar,
		}, body["user"])
	})
}

func TestCreateUserReportsUnknownFieldsAsOneError(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		resp, err := session.Post(context.Background(), "/users", map[string]interface{}{
			"notAUserField": "x", "alsoNotAField": 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
		var body servicedef.ErrorsResponse
		require.NoError(t, resp.DecodeJSON(&body))
		assert.Len(t, body.Errors, 1)
	})
}

func TestUnknownFieldAlongsideValidFieldsIsOneError(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		users := seededUsers(t, session)
		login(t, session, users[0].Username)

		resp, err := session.Post(context.Background(), "/users", map[string]interface{}{
			"firstName": "Kaylin", "lastName": "Homenick", "username": "kaylin", "password": "pw",
			"email": "kaylin@example.com", "phoneNumber": "555-0100", "avatar": "", "balance": 100,
			"notAUserField": map[string]interface{}{"nested": true},
		})
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
		var body servicedef.ErrorsResponse
		require.NoError(t, resp.DecodeJSON(&body))
		require.Len(t, body.Errors, 1)
		assert.Equal(t, []interface{}{"notAUserField"}, body.Errors[0].Value)
		assert.Len(t, seededUsers(t, session), len(users))

		resp, err = session.Patch(context.Background(), "/users/"+users[0].ID, map[string]string{
			"firstName": "Renamed", "notAUserField": "x",
		})
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
		require.NoError(t, resp.DecodeJSON(&body))
		assert.Len(t, body.Errors, 1)
		assert.Equal(t, users[0].FirstName, seededUsers(t, session)[0].FirstName)
	})
}

func TestCreateUserRejectsNonIntegerBalance(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		resp, err := session.Post(context.Background(), "/users", map[string]interface{}{
			"firstName": "A", "lastName": "B", "username": "ab", "password": "pw", "balance": "lots",
		})
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
	})
}

func TestUpdateUser(t *testing.T) {
	withService(t, func(_ *Service, session *harness.Session) {
		users := seededUsers(t, session)
		login(t, session, users[0].Username)

		resp, err := session.Patch(context.Background(), "/users/"+users[0].ID, map[string]string{"firstName": "Renamed"})
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
		assert.Empty(t, resp.Body)

		resp, err = session.Get(context.Background(), "/users/"+users[0].ID, nil)
		require.NoError(t, err)
		var body servicedef.UserResponse
		require.NoError(t, resp.DecodeJSON(&body))
		assert.Equal(t, "Renamed", body.User.FirstName)

		resp, err = session.Patch(context.Background(), "/users/"+users[0].ID, map[string]string{"notAUserField": "x"})
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)

		resp, err = session.Patch(context.Background(), "/users/"+users[0].ID, map[string]string{"defaultPrivacyLevel": "secret"})
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
	})
}
