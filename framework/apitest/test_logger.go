package apitest

import "github.com/realworldapp/api-contract-tests/framework"

type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, failed bool, debugOutput framework.CapturedOutput)
	TestSkipped(id TestID, reason string)

	// TestRetrying is called when a failed test is about to run again. Errors already reported
	// for it belong to the earlier attempt.
	TestRetrying(id TestID, nextAttempt, maxAttempts int)
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)                                  {}
func (n nullTestLogger) TestError(TestID, error)                             {}
func (n nullTestLogger) TestFinished(TestID, bool, framework.CapturedOutput) {}
func (n nullTestLogger) TestSkipped(TestID, string)                          {}
func (n nullTestLogger) TestRetrying(TestID, int, int)                       {}
