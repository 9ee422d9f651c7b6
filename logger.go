package main

import (
	"github.com/sirupsen/logrus"

	"github.com/realworldapp/api-contract-tests/framework"
)

// debugLogger writes framework.Logger output at logrus debug level.
type debugLogger struct {
	logger logrus.FieldLogger
}

func newDebugLogger(logger logrus.FieldLogger) framework.Logger {
	return debugLogger{logger: logger}
}

func (d debugLogger) Printf(message string, args ...interface{}) {
	d.logger.Debugf(message, args...)
}
