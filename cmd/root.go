package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/timvw/claude-panes/internal/config"
	"github.com/timvw/claude-panes/internal/gitctx"
	"github.com/timvw/claude-panes/internal/loader"
	"github.com/timvw/claude-panes/internal/logging"
	"github.com/timvw/claude-panes/internal/mux"
	telem "github.com/timvw/claude-panes/internal/otel"
	"github.com/timvw/claude-panes/internal/proc"
)

var (
	// Global flags.
	flagConfig   string
	flagMux      string
	flagLogLevel string
	flagLogFile  string
)

var rootCmd = &cobra.Command{
	Use:   "claude-panes",
	Short: "Find and watch Claude Code instances running in tmux panes",
	Long: `claude-panes finds every Claude Code instance running in a tmux pane.

Instances are identified by walking the process tree from the claude process up
to the pane that owns it, so wrappers (node, shells, scripts) do not hide them.
Each instance's status (working, idle, waiting for input) is read from the
visible pane content, and its git branch and worktree state is loaded in the
background.

Configuration is loaded from .claude-panes.yaml, ~/.config/claude-panes/config.yaml
or CLAUDE_PANES_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .claude-panes.yaml or ~/.config/claude-panes/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagMux, "mux", "", "terminal multiplexer: tmux (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "log file (overrides config)")
}

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	mux     mux.Multiplexer
	tel     *telem.Telemetry
	metrics *telem.Metrics
	runID   string

	logCloser io.Closer
}

// setup loads configuration and builds the logger, telemetry and multiplexer.
// defaultLogFile is used when neither the flag nor the config names a file;
// empty means stderr.
func setup(ctx context.Context, defaultLogFile string) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &app{cfg: cfg, runID: uuid.NewString()}

	logFile := cfg.LogFile
	if flagLogFile != "" {
		logFile = flagLogFile
	}
	if logFile == "" {
		logFile = defaultLogFile
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	a.logger, a.logCloser, err = logging.New(logging.Options{File: logFile, Level: level, RunID: a.runID})
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if cfg.ConfigFile != "" {
		a.logger.Debug("config loaded", "file", cfg.ConfigFile)
	}

	// Wire build version into OTEL service metadata
	telem.Version = Version

	// No-op when no endpoint is configured.
	a.tel, err = telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
		RunID:    a.runID,
	})
	if err != nil {
		a.logger.Warn("otel init failed", "error", err)
	} else {
		a.metrics = a.tel.Metrics
	}

	a.mux, err = getMultiplexer()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// Close flushes telemetry and closes the log file.
func (a *app) Close(ctx context.Context) {
	a.tel.Shutdown(ctx)
	_ = a.logCloser.Close()
}

// discoverer builds the discovery pass from the configuration.
func (a *app) discoverer() *loader.Discoverer {
	return &loader.Discoverer{
		Mux:          a.mux,
		Procs:        proc.NewPS(),
		Matcher:      proc.NewMatcher(a.cfg.Tool),
		MaxHops:      a.cfg.MaxHops,
		CaptureLines: a.cfg.CaptureLines,
		Parallel:     a.cfg.Parallel,
		Exclude:      a.cfg.Excluded,
		Metrics:      a.metrics,
		Logger:       a.logger,
	}
}

// loader builds the progressive loader with a TTL-cached git enricher.
func (a *app) loader() *loader.Loader {
	enricher := gitctx.NewCachedEnricher(gitctx.NewCLI(), a.cfg.GitCacheTTLDuration)
	return loader.New(a.discoverer(), enricher,
		loader.WithParallel(a.cfg.Parallel),
		loader.WithMetrics(a.metrics),
		loader.WithLogger(a.logger),
	)
}

// getMultiplexer returns the configured or auto-detected multiplexer.
func getMultiplexer() (mux.Multiplexer, error) {
	if flagMux != "" {
		return mux.FromName(flagMux)
	}
	return mux.Detect()
}
