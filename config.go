package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

// dotEnvFiles are loaded in order; a variable that is already set is never overwritten, so
// .env.local wins over .env and the real environment wins over both.
var dotEnvFiles = []string{".env.local", ".env"}

// authProviderKeys are reported at startup, but the suite does not use them.
var authProviderKeys = []string{
	"AUTH0_DOMAIN", "AUTH0_CLIENTID", "AUTH0_USERNAME",
	"OKTA_DOMAIN", "OKTA_CLIENTID", "OKTA_PROGRAMMATIC_LOGIN",
	"AWS_COGNITO_DOMAIN", "AWS_COGNITO_USER_POOL_ID", "AWS_COGNITO_USERNAME",
	"GOOGLE_CLIENTID", "GOOGLE_REFRESH_TOKEN",
}

type appConfig struct {
	APIURL                   string
	BackendPort              int
	FrontendPort             int
	SeedDefaultPassword      string
	PaginationPageSize       int
	MobileViewportBreakpoint int
	RetriesRunMode           int
	AuthProviders            map[string]bool
}

func loadConfig() (appConfig, error) {
	for _, f := range dotEnvFiles {
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return appConfig{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("BACKEND_PORT", 3001)
	v.SetDefault("FRONTEND_PORT", 3000)
	v.SetDefault("SEED_DEFAULT_USER_PASSWORD", servicedef.DefaultSeedPassword)
	v.SetDefault("PAGINATION_PAGE_SIZE", 10)
	v.SetDefault("MOBILE_VIEWPORT_WIDTH_BREAKPOINT", 414)
	v.SetDefault("RETRIES_RUN_MODE", 2)

	cfg := appConfig{
		BackendPort:              v.GetInt("BACKEND_PORT"),
		FrontendPort:             v.GetInt("FRONTEND_PORT"),
		SeedDefaultPassword:      v.GetString("SEED_DEFAULT_USER_PASSWORD"),
		PaginationPageSize:       v.GetInt("PAGINATION_PAGE_SIZE"),
		MobileViewportBreakpoint: v.GetInt("MOBILE_VIEWPORT_WIDTH_BREAKPOINT"),
		RetriesRunMode:           v.GetInt("RETRIES_RUN_MODE"),
		AuthProviders:            make(map[string]bool),
	}
	v.SetDefault("API_URL", fmt.Sprintf("http://localhost:%d", cfg.BackendPort))
	cfg.APIURL = v.GetString("API_URL")

	for _, key := range authProviderKeys {
		v.SetDefault(key, "")
		cfg.AuthProviders[key] = v.GetString(key) != ""
	}

	if cfg.BackendPort <= 0 || cfg.FrontendPort <= 0 {
		return appConfig{}, fmt.Errorf("invalid port configuration (backend %d, frontend %d)",
			cfg.BackendPort, cfg.FrontendPort)
	}
	if cfg.RetriesRunMode < 0 {
		return appConfig{}, fmt.Errorf("RETRIES_RUN_MODE must not be negative")
	}
	return cfg, nil
}

// describe prints the settings a run was configured with. Secrets are never printed.
func (c appConfig) describe(out io.Writer) {
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  API URL: %s (backend port %d, frontend port %d)\n", c.APIURL, c.BackendPort, c.FrontendPort)
	fmt.Fprintf(out, "  pagination page size: %d\n", c.PaginationPageSize)
	fmt.Fprintf(out, "  mobile viewport width breakpoint: %d\n", c.MobileViewportBreakpoint)
	fmt.Fprintf(out, "  retries in run mode: %d\n", c.RetriesRunMode)
	if providers := c.configuredAuthProviders(); len(providers) != 0 {
		fmt.Fprintf(out, "  auth provider settings present (not used by this suite): %s\n", strings.Join(providers, ", "))
	}
	fmt.Fprintln(out)
}

// configuredAuthProviders returns the names of the auth provider keys that have a value.
func (c appConfig) configuredAuthProviders() []string {
	var ret []string
	for _, key := range authProviderKeys {
		if c.AuthProviders[key] {
			ret = append(ret, key)
		}
	}
	return ret
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
