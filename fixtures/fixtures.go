// Package fixtures implements the test-data tasks: resetting the backend's datastore to its
// seed state, and looking up seeded records through the backend's test-data endpoints.
package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/realworldapp/api-contract-tests/framework/harness"
)

const testDataPath = "/testData"

// Task names, as used by TaskSet.RunTask.
const (
	TaskSeed   = "db:seed"
	TaskFilter = "filter:database"
	TaskFind   = "find:database"
)

// Attrs is a set of property values that a record must have to match. An empty Attrs matches
// every record.
type Attrs map[string]interface{}

// Client talks to the backend's test-data endpoints.
type Client struct {
	session *harness.Session
}

func NewClient(session *harness.Session) *Client {
	return &Client{session: session}
}

// Seed tells the backend to reset its datastore to the seed data, and returns whatever the
// backend responded with (null if the response was empty).
func (c *Client) Seed(ctx context.Context) (ldvalue.Value, error) {
	resp, err := c.session.Post(ctx, testDataPath+"/seed", nil)
	if err != nil {
		return ldvalue.Null(), fmt.Errorf("seed request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ldvalue.Null(), fmt.Errorf("seed request returned HTTP status %d: %s", resp.StatusCode, string(resp.Body))
	}
	if len(resp.Body) == 0 {
		return ldvalue.Null(), nil
	}
	var body ldvalue.Value
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return ldvalue.Null(), fmt.Errorf("malformed seed response: %s", string(resp.Body))
	}
	return body, nil
}

// Fetch returns every record of the entity collection, in the order the backend returned them.
func (c *Client) Fetch(ctx context.Context, entity string) ([]ldvalue.Value, error) {
	resp, err := c.session.Get(ctx, testDataPath+"/"+url.PathEscape(entity), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching test data for %q failed: %w", entity, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching test data for %q returned HTTP status %d", entity, resp.StatusCode)
	}
	var body ldvalue.Value
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("malformed test data response for %q: %s", entity, string(resp.Body))
	}
	results := body.GetByKey("results")
	if results.Type() != ldvalue.ArrayType {
		return nil, fmt.Errorf("test data response for %q had no results array", entity)
	}
	records := make([]ldvalue.Value, 0, results.Count())
	for i := 0; i < results.Count(); i++ {
		records = append(records, results.GetByIndex(i))
	}
	return records, nil
}

// Filter returns every record of the entity collection that matches attrs.
func (c *Client) Filter(ctx context.Context, entity string, attrs Attrs) ([]ldvalue.Value, error) {
	records, err := c.Fetch(ctx, entity)
	if err != nil {
		return nil, err
	}
	return filterRecords(records, attrs.toValue()), nil
}

// Find returns the first record of the entity collection that matches attrs. The boolean is
// false if nothing matched.
func (c *Client) Find(ctx context.Context, entity string, attrs Attrs) (ldvalue.Value, bool, error) {
	records, err := c.Fetch(ctx, entity)
	if err != nil {
		return ldvalue.Null(), false, err
	}
	found := findRecord(records, attrs.toValue())
	return found, !found.IsNull(), nil
}

// FilterEach runs one Filter per query, fetching the collection afresh for each, and returns
// the results in query order.
func (c *Client) FilterEach(ctx context.Context, entity string, queries []Attrs) ([][]ldvalue.Value, error) {
	ret := make([][]ldvalue.Value, 0, len(queries))
	for _, q := range queries {
		records, err := c.Filter(ctx, entity, q)
		if err != nil {
			return nil, err
		}
		ret = append(ret, records)
	}
	return ret, nil
}

// FindEach runs one Find per query and returns the results in query order; a query that
// matched nothing yields a null value in its position.
func (c *Client) FindEach(ctx context.Context, entity string, queries []Attrs) ([]ldvalue.Value, error) {
	ret := make([]ldvalue.Value, 0, len(queries))
	for _, q := range queries {
		found, _, err := c.Find(ctx, entity, q)
		if err != nil {
			return nil, err
		}
		ret = append(ret, found)
	}
	return ret, nil
}

func (a Attrs) toValue() ldvalue.Value {
	if len(a) == 0 {
		return ldvalue.ObjectBuild().Build()
	}
	return ldvalue.CopyArbitraryValue(map[string]interface{}(a))
}
