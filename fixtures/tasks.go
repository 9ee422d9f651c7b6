package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

// QueryPayload is the argument of the filter and find tasks. Query is either a single object
// of attributes, or an array of them; an array runs one query per element and the task's
// result is an array of the individual results.
type QueryPayload struct {
	Entity string        `json:"entity"`
	Query  ldvalue.Value `json:"query"`
}

// TaskFunc is a named operation that test code can invoke by name.
type TaskFunc func(ctx context.Context, payload QueryPayload) (ldvalue.Value, error)

// TaskSet maps task names to their implementations.
type TaskSet map[string]TaskFunc

// NewTaskSet returns the standard test-data tasks backed by the client.
func NewTaskSet(c *Client) TaskSet {
	return TaskSet{
		TaskSeed: func(ctx context.Context, _ QueryPayload) (ldvalue.Value, error) {
			return c.Seed(ctx)
		},
		TaskFilter: func(ctx context.Context, p QueryPayload) (ldvalue.Value, error) {
			return c.query(ctx, p, func(records []ldvalue.Value, attrs ldvalue.Value) ldvalue.Value {
				return ldvalue.ArrayOf(filterRecords(records, attrs)...)
			})
		},
		TaskFind: func(ctx context.Context, p QueryPayload) (ldvalue.Value, error) {
			return c.query(ctx, p, findRecord)
		},
	}
}

// RunTask invokes a task by name.
func (s TaskSet) RunTask(ctx context.Context, name string, payload QueryPayload) (ldvalue.Value, error) {
	task, ok := s[name]
	if !ok {
		names := make([]string, 0, len(s))
		for n := range s {
			names = append(names, n)
		}
		sort.Strings(names)
		return ldvalue.Null(), fmt.Errorf("unknown task %q (known tasks: %v)", name, names)
	}
	return task(ctx, payload)
}

func (c *Client) query(
	ctx context.Context,
	p QueryPayload,
	shape func(records []ldvalue.Value, attrs ldvalue.Value) ldvalue.Value,
) (ldvalue.Value, error) {
	fetch := func(attrs ldvalue.Value) (ldvalue.Value, error) {
		if attrs.IsNull() {
			attrs = ldvalue.ObjectBuild().Build()
		}
		if attrs.Type() != ldvalue.ObjectType {
			return ldvalue.Null(), fmt.Errorf("query for %q must be an object or an array of objects, got %s", p.Entity, attrs.JSONString())
		}
		records, err := c.Fetch(ctx, p.Entity)
		if err != nil {
			return ldvalue.Null(), err
		}
		return shape(records, attrs), nil
	}

	if p.Query.Type() != ldvalue.ArrayType {
		return fetch(p.Query)
	}
	out := ldvalue.ArrayBuild()
	for i := 0; i < p.Query.Count(); i++ {
		v, err := fetch(p.Query.GetByIndex(i))
		if err != nil {
			return ldvalue.Null(), err
		}
		out.Add(v)
	}
	return out.Build(), nil
}

// AsQuery returns the attributes as the Query of a QueryPayload.
func (a Attrs) AsQuery() ldvalue.Value {
	return a.toValue()
}

// RecordsOf returns the elements of an array result of the filter task. Any other value gives
// no records.
func RecordsOf(result ldvalue.Value) []ldvalue.Value {
	if result.Type() != ldvalue.ArrayType {
		return nil
	}
	records := make([]ldvalue.Value, 0, result.Count())
	for i := 0; i < result.Count(); i++ {
		records = append(records, result.GetByIndex(i))
	}
	return records
}

// DecodeUsers converts user records, as returned by Filter or a task, into typed users.
func DecodeUsers(records []ldvalue.Value) ([]servicedef.User, error) {
	users := make([]servicedef.User, 0, len(records))
	for _, r := range records {
		var u servicedef.User
		if err := json.Unmarshal([]byte(r.JSONString()), &u); err != nil {
			return nil, fmt.Errorf("malformed user record %s: %w", r.JSONString(), err)
		}
		users = append(users, u)
	}
	return users, nil
}
