package apitest

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/realworldapp/api-contract-tests/framework"
)

// TestConfiguration controls a test run.
type TestConfiguration struct {
	// Filter, if set, is consulted before each test or group; excluded tests are not run.
	Filter Filter

	// TestLogger receives progress notifications. It defaults to a logger that discards them.
	TestLogger TestLogger

	// Context is arbitrary data that the domain-specific test API can retrieve from any scope
	// with T.Context.
	Context interface{}

	// Retries is the number of extra attempts given to a failed test that has no subtests.
	// Only the result of the last attempt is reported.
	Retries int
}

type environment struct {
	config  TestConfiguration
	results Results
}

// T represents a test or a group of tests.
//
// It implements the same basic functionality as Go's testing.T, but in an environment that is
// outside of the Go test runner, and with some extra features such as debug logging that are
// convenient for API testing. To make test assertions, use the assert and require packages,
// passing the *T as if it were a *testing.T.
type T struct {
	env         *environment
	id          TestID
	debugLogger framework.CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
	cleanups    []func()
	hasSubtests bool
	attempt     int
}

// Run starts a test run. The action is the root scope; it normally does nothing but call
// T.Run for each top-level group.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	env := &environment{config: config}
	t := &T{env: env, attempt: 1}
	t.run(action)
	if t.failed {
		env.results.Failures = append(env.results.Failures, TestResult{TestID: t.id, Errors: t.errors, Attempts: 1})
	}
	return env.results
}

func (t *T) run(action func(*T)) {
	defer func() {
		if r := recover(); r != nil {
			if !t.skipped {
				t.failed = true
				var addError error
				if _, ok := r.(*T); ok {
					if len(t.errors) == 0 {
						addError = errors.New("test failed with no failure message")
					}
				} else {
					addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
				}
				if addError != nil {
					t.errors = append(t.errors, addError)
					t.env.config.TestLogger.TestError(t.id, addError)
				}
			}
		}
		t.runCleanups()
	}()

	action(t)
}

func (t *T) runCleanups() {
	for i := len(t.cleanups) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.failed = true
					err := fmt.Errorf("unexpected panic in deferred cleanup: %+v", r)
					t.errors = append(t.errors, err)
					t.env.config.TestLogger.TestError(t.id, err)
				}
			}()
			t.cleanups[i]()
		}()
	}
	t.cleanups = nil
}

// ID returns the unique identifier of this test.
func (t *T) ID() TestID {
	return t.id
}

// Context returns the TestConfiguration.Context value for this test run.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// Attempt returns 1 for the first run of a test, 2 for its first retry, and so on.
func (t *T) Attempt() int {
	return t.attempt
}

// Failed reports whether the test has failed so far.
func (t *T) Failed() bool {
	return t.failed
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
//
// A subtest that fails and has no subtests of its own is retried according to
// TestConfiguration.Retries.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)
	t.hasSubtests = true
	testLogger := t.env.config.TestLogger

	testLogger.TestStarted(id)
	if t.env.config.Filter != nil && !t.env.config.Filter(id) {
		testLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}

	var t1 *T
	for attempt := 1; ; attempt++ {
		t1 = &T{id: id, env: t.env, attempt: attempt}
		if attempt > 1 {
			t1.Debug("retrying after failure (attempt %d of %d)", attempt, t.env.config.Retries+1)
		}
		t1.run(action)
		if !t1.failed || t1.skipped || t1.hasSubtests || attempt > t.env.config.Retries {
			break
		}
		testLogger.TestRetrying(id, attempt+1, t.env.config.Retries+1)
	}

	if t1.skipped {
		testLogger.TestSkipped(id, t1.skipReason)
	} else {
		testLogger.TestFinished(id, t1.failed, t1.debugLogger.Output())
	}

	if t1.hasSubtests && !t1.failed {
		return // groups are only reported if something failed outside of their subtests
	}
	result := TestResult{
		TestID:     id,
		Errors:     t1.errors,
		Skipped:    t1.skipped,
		SkipReason: t1.skipReason,
		Attempts:   t1.attempt,
	}
	t.env.results.Tests = append(t.env.results.Tests, result)
	if t1.failed {
		t.env.results.Failures = append(t.env.results.Failures, result)
	}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := reformatError(fmt.Errorf(format, args...))
	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	panic(t)
}

// Skip marks the test as skipped and immediately exits.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Defer schedules a function to be called when this test ends, whether it passed or not.
// Deferred functions run in reverse order, like Go's defer.
func (t *T) Defer(fn func()) {
	t.cleanups = append(t.cleanups, fn)
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// reformatError drops the "Error Trace" section that testify adds to its failure messages,
// since the stack locations it reports are inside the test runner rather than the test.
func reformatError(err error) error {
	s := err.Error()
	if !strings.Contains(s, "Error Trace:") {
		return err
	}
	var lines []string
	inTrace := false
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "Error Trace:") {
			inTrace = true
			continue
		}
		if inTrace && (strings.HasPrefix(trimmed, "Error:") || strings.HasPrefix(trimmed, "Messages:")) {
			inTrace = false
		}
		if inTrace {
			continue
		}
		lines = append(lines, strings.TrimPrefix(line, "\t"))
	}
	return errors.New(strings.Join(lines, "\n"))
}
