package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/spf13/cobra"

	"github.com/realworldapp/api-contract-tests/framework/apitest"
)

const (
	defaultRequestTimeout = time.Second * 10
	defaultStartupTimeout = time.Second * 30
)

type runParams struct {
	apiURL         string
	filters        apitest.RegexFilters
	retries        int
	requestTimeout time.Duration
	startupTimeout time.Duration
	debug          bool
	debugAll       bool
}

func (p *runParams) addFlags(cmd *cobra.Command, cfg appConfig) {
	fs := cmd.Flags()
	fs.StringVar(&p.apiURL, "url", cfg.APIURL, "base URL of the backend under test")
	fs.Var(&p.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&p.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.IntVar(&p.retries, "retries", cfg.RetriesRunMode, "number of times to retry a failed test")
	fs.DurationVar(&p.requestTimeout, "request-timeout", defaultRequestTimeout, "timeout for each HTTP request")
	fs.DurationVar(&p.startupTimeout, "startup-timeout", defaultStartupTimeout, "how long to wait for the backend to respond")
	fs.BoolVar(&p.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&p.debugAll, "debug-all", false, "enable debug logging for all tests")
}

func (p *runParams) validate() error {
	if p.apiURL == "" {
		return fmt.Errorf("--url is required")
	}
	if p.retries < 0 {
		return fmt.Errorf("--retries must not be negative")
	}
	if p.requestTimeout <= 0 || p.startupTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// rerunCommand returns a command line that runs only the given failed tests again, with the
// same backend and retry settings.
func (p *runParams) rerunCommand(program string, failures []apitest.TestResult) string {
	var b commandBuilder
	b.add(program, "run", "--url", p.apiURL, "--retries", strconv.Itoa(p.retries))
	for _, f := range failures {
		b.add("--run", "^"+regexp.QuoteMeta(f.TestID.String())+"$")
	}
	if p.debug || p.debugAll {
		b.add("--debug")
	}
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
