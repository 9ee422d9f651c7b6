package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/realworldapp/api-contract-tests/framework"
	"github.com/realworldapp/api-contract-tests/framework/apitest"
)

var (
	failedColor  = color.New(color.FgRed, color.Bold)
	noticeColor = color.New(color.FgYellow)
	headerColor  = color.New(color.Bold)
)

type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
	Out                  io.Writer
}

func (c *ConsoleTestLogger) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *ConsoleTestLogger) TestStarted(id apitest.TestID) {
	headerColor.Fprintf(c.out(), "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id apitest.TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.out(), "  %s\n", line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id apitest.TestID, failed bool, debugOutput framework.CapturedOutput) {
	if failed {
		failedColor.Fprintf(c.out(), "  FAILED: %s\n", id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.out(), "    DEBUG ")
	}
}

func (c *ConsoleTestLogger) TestSkipped(id apitest.TestID, reason string) {
	if reason == "" {
		noticeColor.Fprintf(c.out(), "  SKIPPED: %s\n", id)
	} else {
		noticeColor.Fprintf(c.out(), "  SKIPPED: %s (%s)\n", id, reason)
	}
}

func (c *ConsoleTestLogger) TestRetrying(id apitest.TestID, nextAttempt, maxAttempts int) {
	noticeColor.Fprintf(c.out(), "  RETRYING: %s (attempt %d of %d, errors above are from the previous attempt)\n",
		id, nextAttempt, maxAttempts)
}
