package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realworldapp/api-contract-tests/framework"
	"github.com/realworldapp/api-contract-tests/framework/apitest"
)

func TestRerunCommandQuotesTestNames(t *testing.T) {
	p := runParams{apiURL: "http://localhost:3001", retries: 2}
	failures := []apitest.TestResult{
		{TestID: apitest.TestID{Path: []string{"GET /users/:userId", "errors when invalid userId"}}},
	}

	cmd := p.rerunCommand("./api-contract-tests", failures)

	assert.Equal(t,
		`./api-contract-tests run --url http://localhost:3001 --retries 2 `+
			`--run '^GET /users/:userId/errors when invalid userId$'`,
		cmd)
}

func TestRunParamsValidate(t *testing.T) {
	p := runParams{apiURL: "http://localhost:3001", requestTimeout: time.Second, startupTimeout: time.Second}
	assert.NoError(t, p.validate())

	p.apiURL = ""
	assert.Error(t, p.validate())

	p.apiURL = "http://localhost:3001"
	p.retries = -1
	assert.Error(t, p.validate())
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"API_URL", "BACKEND_PORT", "SEED_DEFAULT_USER_PASSWORD", "RETRIES_RUN_MODE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001", cfg.APIURL)
	assert.Equal(t, 3000, cfg.FrontendPort)
	assert.Equal(t, "s3cret", cfg.SeedDefaultPassword)
	assert.Equal(t, 10, cfg.PaginationPageSize)
	assert.Equal(t, 414, cfg.MobileViewportBreakpoint)
	assert.Equal(t, 2, cfg.RetriesRunMode)
}

func TestLoadConfigFromEnvironmentAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("BACKEND_PORT=4001\nSEED_DEFAULT_USER_PASSWORD=fromdotenv\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"),
		[]byte("SEED_DEFAULT_USER_PASSWORD=fromlocal\n"), 0o644))
	for _, key := range []string{"API_URL", "BACKEND_PORT", "SEED_DEFAULT_USER_PASSWORD"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("OKTA_DOMAIN", "example.okta.com")
	t.Setenv("RETRIES_RUN_MODE", "0")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4001, cfg.BackendPort)
	assert.Equal(t, "http://localhost:4001", cfg.APIURL)
	assert.Equal(t, "fromlocal", cfg.SeedDefaultPassword)
	assert.Equal(t, 0, cfg.RetriesRunMode)
	assert.Contains(t, cfg.configuredAuthProviders(), "OKTA_DOMAIN")
}

func TestConfigDescribe(t *testing.T) {
	cfg := appConfig{
		APIURL:                   "http://localhost:3001",
		BackendPort:              3001,
		FrontendPort:             3000,
		SeedDefaultPassword:      "s3cret",
		PaginationPageSize:       10,
		MobileViewportBreakpoint: 414,
		RetriesRunMode:           2,
		AuthProviders:            map[string]bool{"AUTH0_DOMAIN": true, "OKTA_DOMAIN": false},
	}
	var buf bytes.Buffer
	cfg.describe(&buf)

	out := buf.String()
	assert.Contains(t, out, "API URL: http://localhost:3001 (backend port 3001, frontend port 3000)")
	assert.Contains(t, out, "pagination page size: 10")
	assert.Contains(t, out, "mobile viewport width breakpoint: 414")
	assert.Contains(t, out, "retries in run mode: 2")
	assert.Contains(t, out, "(not used by this suite): AUTH0_DOMAIN\n")
	assert.NotContains(t, out, "s3cret")
}

func TestConsoleTestLogger(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	logger := &ConsoleTestLogger{DebugOutputOnFailure: true, Out: &buf}
	id := apitest.TestID{Path: []string{"POST /login", "logs in as a user"}}

	var debug framework.CapturingLogger
	debug.Printf("hello")

	logger.TestStarted(id)
	logger.TestError(id, errors.New("line one\nline two"))
	logger.TestFinished(id, true, debug.Output())
	logger.TestSkipped(id, "excluded")
	logger.TestRetrying(id, 2, 3)

	out := buf.String()
	assert.Contains(t, out, "[POST /login/logs in as a user]\n")
	assert.Contains(t, out, "  line one\n  line two\n")
	assert.Contains(t, out, "  FAILED: POST /login/logs in as a user\n")
	assert.Contains(t, out, "    DEBUG [")
	assert.Contains(t, out, "] hello\n")
	assert.Contains(t, out, "  SKIPPED: POST /login/logs in as a user (excluded)\n")
	assert.Contains(t, out, "  RETRYING: POST /login/logs in as a user (attempt 2 of 3")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
