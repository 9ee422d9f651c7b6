package fixtures

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/realworldapp/api-contract-tests/framework/harness"
)

const usersJSON = `{"results":[
	{"id":"u1","firstName":"Edgar","username":"Katharina_Bernier","balance":168137},
	{"id":"u2","firstName":"Arvilla","username":"Tavares_Barrows","balance":0},
	{"id":"u3","firstName":"Edgar","username":"Allie2","balance":0}
]}`

func jsonHandler(status int, body string) http.Handler {
	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	return httphelpers.HandlerWithResponse(status, headers, []byte(body))
}

func withTestDataServer(t *testing.T, action func(c *Client, seedRequests <-chan httphelpers.HTTPRequestInfo)) {
	seed, seedRequests := httphelpers.RecordingHandler(jsonHandler(200, `{"seeded":true}`))
	mux := http.NewServeMux()
	mux.Handle("/testData/seed", seed)
	mux.Handle("/testData/users", jsonHandler(200, usersJSON))
	mux.Handle("/testData/broken", jsonHandler(200, `{"nope":1}`))
	mux.Handle("/testData/missing", httphelpers.HandlerWithStatus(404))
	mux.Handle("/testData/created", jsonHandler(201, usersJSON))
	mux.Handle("/testData/moved", httphelpers.HandlerWithResponse(304, nil, nil))
	httphelpers.WithServer(mux, func(server *httptest.Server) {
		action(NewClient(harness.NewSession(server.URL, time.Second, nil)), seedRequests)
	})
}

func ids(records []ldvalue.Value) []string {
	var ret []string
	for _, r := range records {
		ret = append(ret, r.GetByKey("id").StringValue())
	}
	return ret
}

func TestSeed(t *testing.T) {
	withTestDataServer(t, func(c *Client, seedRequests <-chan httphelpers.HTTPRequestInfo) {
		body, err := c.Seed(context.Background())
		require.NoError(t, err)
		assert.True(t, body.GetByKey("seeded").BoolValue())
		assert.Equal(t, "POST", (<-seedRequests).Request.Method)
	})
}

func TestSeedFailure(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(500), func(server *httptest.Server) {
		c := NewClient(harness.NewSession(server.URL, time.Second, nil))
		_, err := c.Seed(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestFilterWithNoAttributesReturnsEverythingInOrder(t *testing.T) {
	withTestDataServer(t, func(c *Client, _ <-chan httphelpers.HTTPRequestInfo) {
		records, err := c.Filter(context.Background(), "users", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2", "u3"}, ids(records))
	})
}

func TestFilterByAttributes(t *testing.T) {
	withTestDataServer(t, func(c *Client, _ <-chan httphelpers.HTTPRequestInfo) {
		records, err := c.Filter(context.Background(), "users", Attrs{"firstName": "Edgar"})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u3"}, ids(records))

		records, err = c.Filter(context.Background(), "users", Attrs{"firstName": "Edgar", "balance": 0})
		require.NoError(t, err)
		assert.Equal(t, []string{"u3"}, ids(records))

		records, err = c.Filter(context.Background(), "users", Attrs{"notAField": nil})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestFind(t *testing.T) {
	withTestDataServer(t, func(c *Client, _ <-chan httphelpers.HTTPRequestInfo) {
		found, ok, err := c.Find(context.Background(), "users", Attrs{"firstName": "Edgar"})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "u1", found.GetByKey("id").StringValue())

		_, ok, err = c.Find(context.Background(), "users", Attrs{"username": "nobody"})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestEachVariantsKeepQueryOrder(t *testing.T) {
	withTestDataServer(t, func(c *Client, _ <-chan httphelpers.HTTPRequestInfo) {
		found, err := c.FindEach(context.Background(), "users", []Attrs{{"id": "u3"}, {"id": "zz"}, {"id": "u1"}})
		require.NoError(t, err)
		require.Len(t, found, 3)
		assert.Equal(t, "u3", found[0].GetByKey("id").StringValue())
		assert.True(t, found[1].IsNull())
		assert.Equal(t, "u1", found[2].GetByKey("id").StringValue())

		filtered, err := c.FilterEach(context.Background(), "users", []Attrs{{"balance": 0}, {"firstName": "Arvilla"}})
		require.NoError(t, err)
		require.Len(t, filtered, 2)
		assert.Equal(t, []string{"u2", "u3"}, ids(filtered[0]))
		assert.Equal(t, []string{"u2"}, ids(filtered[1]))
	})
}

func TestFetchErrors(t *testing.T) {
	withTestDataServer(t, func(c *Client, _ <-chan httphelpers.HTTPRequestInfo) {
		_, err := c.Filter(context.Background(), "missing", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")

		_, _, err = c.Find(context.Background(), "broken", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no results array")
	})
}

func TestFetchAcceptsAnySuccessStatus(t *testing.T) {
	withTestDataServer(t, func(c *Client, _ <-chan httphelpers.HTTPRequestInfo) {
		records, err := c.Fetch(context.Background(), "created")
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2", "u3"}, ids(records))

		_, err = c.Fetch(context.Background(), "moved")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "304")
	})
}

func TestTasks(t *testing.T) {
	withTestDataServer(t, func(c *Client, _ <-chan httphelpers.HTTPRequestInfo) {
		tasks := NewTaskSet(c)
		ctx := context.Background()

		filtered, err := tasks.RunTask(ctx, TaskFilter, QueryPayload{Entity: "users"})
		require.NoError(t, err)
		assert.Equal(t, 3, filtered.Count())

		filtered, err = tasks.RunTask(ctx, TaskFilter, QueryPayload{Entity: "users", Query: Attrs{"balance": 0}.AsQuery()})
		require.NoError(t, err)
		assert.Equal(t, []string{"u2", "u3"}, ids(RecordsOf(filtered)))
		assert.Nil(t, RecordsOf(ldvalue.String("not an array")))

		query := ldvalue.ArrayOf(
			ldvalue.ObjectBuild().Set("firstName", ldvalue.String("Arvilla")).Build(),
			ldvalue.ObjectBuild().Set("firstName", ldvalue.String("Nobody")).Build(),
		)
		found, err := tasks.RunTask(ctx, TaskFind, QueryPayload{Entity: "users", Query: query})
		require.NoError(t, err)
		require.Equal(t, ldvalue.ArrayType, found.Type())
		assert.Equal(t, "u2", found.GetByIndex(0).GetByKey("id").StringValue())
		assert.True(t, found.GetByIndex(1).IsNull())

		_, err = tasks.RunTask(ctx, TaskFind, QueryPayload{Entity: "users", Query: ldvalue.String("x")})
		assert.Error(t, err)

		_, err = tasks.RunTask(ctx, "db:drop", QueryPayload{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown task")
	})
}

func TestDecodeUsers(t *testing.T) {
	withTestDataServer(t, func(c *Client, _ <-chan httphelpers.HTTPRequestInfo) {
		records, err := c.Filter(context.Background(), "users", nil)
		require.NoError(t, err)
		users, err := DecodeUsers(records)
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, "Katharina_Bernier", users[0].Username)
		assert.Equal(t, int64(168137), users[0].Balance)
	})
}
