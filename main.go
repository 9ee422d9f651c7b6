package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/realworldapp/api-contract-tests/devproxy"
	"github.com/realworldapp/api-contract-tests/framework"
	"github.com/realworldapp/api-contract-tests/framework/apitest"
	"github.com/realworldapp/api-contract-tests/framework/harness"
	"github.com/realworldapp/api-contract-tests/refservice"
	"github.com/realworldapp/api-contract-tests/usertests"
)

const shutdownTimeout = time.Second * 5

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	root := newRootCmd(cfg, logger)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// errTestsFailed makes the process exit with a failure status without printing anything
// further; the results have already been printed.
var errTestsFailed = errors.New("some tests failed")

func newRootCmd(cfg appConfig, logger *logrus.Logger) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "api-contract-tests",
		Short:         "Contract tests for the users REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level for server output")

	cmd.AddCommand(newRunCmd(cfg, logger))
	cmd.AddCommand(newDevServerCmd(cfg, logger))
	cmd.AddCommand(newRefServiceCmd(cfg, logger))
	return cmd
}

func newRunCmd(cfg appConfig, logger *logrus.Logger) *cobra.Command {
	var params runParams
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the test suite against a running backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := params.validate(); err != nil {
				return err
			}
			err := runTests(cfg, params, logger)
			if errors.Is(err, errTestsFailed) {
				os.Exit(1)
			}
			return err
		},
	}
	params.addFlags(cmd, cfg)
	return cmd
}

func runTests(cfg appConfig, params runParams, logger *logrus.Logger) error {
	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		logger.SetLevel(logrus.DebugLevel)
		mainDebugLogger = newDebugLogger(logger)
	}

	h, err := harness.NewTestHarness(
		params.apiURL,
		params.startupTimeout,
		params.requestTimeout,
		mainDebugLogger,
		os.Stdout,
	)
	if err != nil {
		return fmt.Errorf("backend error: %w", err)
	}

	fmt.Println()
	cfg.APIURL = h.APIBaseURL()
	cfg.RetriesRunMode = params.retries
	cfg.describe(os.Stdout)
	apitest.PrintFilterDescription(os.Stdout, params.filters)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := usertests.RunTestSuite(h, params.filters.AsFilter, testLogger, usertests.SuiteOptions{
		DefaultPassword: cfg.SeedDefaultPassword,
		Retries:         params.retries,
	})

	fmt.Println()
	apitest.PrintResults(os.Stdout, results)
	if !results.OK() {
		fmt.Println()
		fmt.Println("To run only the failed tests:")
		fmt.Printf("  %s\n", params.rerunCommand(os.Args[0], results.Failures))
		return errTestsFailed
	}
	return nil
}

func newDevServerCmd(cfg appConfig, logger *logrus.Logger) *cobra.Command {
	var port, backendPort int
	var buildDir string
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Serve the built frontend, proxying auth paths to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := devproxy.NewHandler(devproxy.Config{
				BackendURL: fmt.Sprintf("http://localhost:%d", backendPort),
				BuildDir:   buildDir,
				Logger:     newDebugLogger(logger),
			})
			if err != nil {
				return err
			}
			return serve(cmd.Context(), fmt.Sprintf(":%d", port), handler, logger)
		},
	}
	cmd.Flags().IntVar(&port, "port", cfg.FrontendPort, "port to listen on")
	cmd.Flags().IntVar(&backendPort, "backend-port", cfg.BackendPort, "port of the backend on localhost")
	cmd.Flags().StringVar(&buildDir, "build-dir", "build", "directory holding the built frontend")
	return cmd
}

func newRefServiceCmd(cfg appConfig, logger *logrus.Logger) *cobra.Command {
	var port int
	var dbPath string
	cmd := &cobra.Command{
		Use:   "refservice",
		Short: "Run the reference backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := refservice.New(cmd.Context(), refservice.Config{
				DBPath:          dbPath,
				DefaultPassword: cfg.SeedDefaultPassword,
				Logger:          logger,
			})
			if err != nil {
				return err
			}
			defer svc.Close()
			return serve(cmd.Context(), fmt.Sprintf(":%d", port), svc, logger)
		},
	}
	cmd.Flags().IntVar(&port, "port", cfg.BackendPort, "port to listen on")
	cmd.Flags().StringVar(&dbPath, "db", refservice.MemoryDatabase, "sqlite database path")
	return cmd
}

// serve runs an HTTP server until the process is interrupted.
func serve(ctx context.Context, addr string, handler http.Handler, logger *logrus.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
