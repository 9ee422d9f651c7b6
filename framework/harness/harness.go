package harness

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/realworldapp/api-contract-tests/framework"
)

const pollInterval = time.Millisecond * 100

// TestHarness holds what every test needs to know about the backend under test.
type TestHarness struct {
	apiBaseURL     string
	requestTimeout time.Duration
	logger         framework.Logger
}

// NewTestHarness creates a TestHarness instance, and verifies that the backend is responding
// by polling its base URL until it answers or startupTimeout elapses. Any HTTP response counts
// as an answer, since the backend is not required to serve anything at its root path.
func NewTestHarness(
	apiBaseURL string,
	startupTimeout time.Duration,
	requestTimeout time.Duration,
	debugLogger framework.Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if startupOutput == nil {
		startupOutput = io.Discard
	}
	h := &TestHarness{
		apiBaseURL:     strings.TrimSuffix(apiBaseURL, "/"),
		requestTimeout: requestTimeout,
		logger:         debugLogger,
	}
	if err := awaitBackend(h.apiBaseURL, startupTimeout, startupOutput); err != nil {
		return nil, err
	}
	return h, nil
}

func awaitBackend(url string, timeout time.Duration, output io.Writer) error {
	fmt.Fprintf(output, "Connecting to backend at %s", url)

	client := &http.Client{Timeout: pollInterval * 10}
	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			fmt.Fprintf(output, "\nBackend responded with status %d\n", resp.StatusCode)
			return nil
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return fmt.Errorf("timed out waiting for backend, result of last query was: %w", err)
		}
		time.Sleep(pollInterval)
	}
}

// APIBaseURL returns the backend base URL without a trailing slash.
func (h *TestHarness) APIBaseURL() string {
	return h.apiBaseURL
}

// NewSession returns a new HTTP session against the backend. Each session has its own cookie
// jar, so a login performed in one test is invisible to every other test.
func (h *TestHarness) NewSession(logger framework.Logger) *Session {
	if logger == nil {
		logger = h.logger
	}
	return newSession(h.apiBaseURL, h.requestTimeout, logger)
}
