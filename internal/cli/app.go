// Package cli provides the ssts command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/transition-gate/internal/config"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/logging"
	"github.com/danielpatrickdp/transition-gate/internal/store"
	"github.com/danielpatrickdp/transition-gate/internal/telemetry"
)

// Version is set at build time.
var Version = "dev"

// UsageError marks bad flags or configuration; commands exit 2 on it.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usagef(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// IsUsage reports whether err should map to exit code 2.
func IsUsage(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// #region app
// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
	global globalOptions
}

type globalOptions struct {
	envFile   string
	dbPath    string
	tauLow    float64
	tauHigh   float64
	logLevel  string
	logFormat string
	trace     bool
}

// New creates the CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "ssts",
		Short: "Structural admissibility gate for R>C>P transitions",
		Long: `ssts canonicalizes transition records, derives their structural
coordinates (g, a, c) and classifies them as DENY, ABSTAIN or ALLOW.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	app.root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	pf := app.root.PersistentFlags()
	pf.StringVar(&app.global.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&app.global.dbPath, "db", "", "SQLite database for runs and provenance (overrides SSTS_DB)")
	pf.Float64Var(&app.global.tauLow, "tau-low", 0, "lower threshold (overrides SSTS_TAU_LOW)")
	pf.Float64Var(&app.global.tauHigh, "tau-high", 0, "upper threshold (overrides SSTS_TAU_HIGH)")
	pf.StringVar(&app.global.logLevel, "log-level", "", "trace, debug, info, warn or error (overrides LOG_LEVEL)")
	pf.StringVar(&app.global.logFormat, "log-format", "", "console or json (overrides LOG_FORMAT)")
	pf.BoolVar(&app.global.trace, "trace", false, "write OpenTelemetry spans to stderr (overrides SSTS_TRACE)")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newEvaluateCmd(),
		app.newBatchCmd(),
		app.newControlsCmd(),
		app.newSweepCmd(),
		app.newServeCmd(),
	)
	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "ssts version %s\n", Version)
		},
	}
}

// #endregion app

// #region runtime
// runtimeEnv is what every command needs after flags are parsed.
type runtimeEnv struct {
	cfg      config.Config
	logger   *bolt.Logger
	gate     *gate.Gate
	store    *store.Store
	shutdown func(context.Context) error
}

func (e *runtimeEnv) Close(ctx context.Context) {
	if e.store != nil {
		e.store.Close()
	}
	if e.shutdown != nil {
		e.shutdown(ctx)
	}
}

// setup merges env config with flags and builds the gate, logger, tracer
// and optional store.
func (a *App) setup(cmd *cobra.Command) (*runtimeEnv, error) {
	cfg, err := config.Load(a.global.envFile)
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = a.global.dbPath
	}
	if flags.Changed("tau-low") {
		cfg.TauLow = a.global.tauLow
	}
	if flags.Changed("tau-high") {
		cfg.TauHigh = a.global.tauHigh
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.global.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.global.logFormat
	}
	if flags.Changed("trace") {
		cfg.Trace = a.global.trace
	}

	g, err := gate.NewGate(cfg.Thresholds())
	if err != nil {
		return nil, &UsageError{Err: err}
	}

	env := &runtimeEnv{
		cfg:    cfg,
		logger: logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: a.stderr}),
		gate:   g,
	}
	env.shutdown, err = telemetry.Setup(cfg.Trace, a.stderr)
	if err != nil {
		return nil, err
	}
	if cfg.DBPath != "" {
		env.store, err = store.NewStore(cfg.DBPath)
		if err != nil {
			env.Close(cmd.Context())
			return nil, fmt.Errorf("open store: %w", err)
		}
	}
	return env, nil
}

// #endregion runtime
