package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/site"
	"git.home.luguber.info/inful/sitegen/internal/source"
	"git.home.luguber.info/inful/sitegen/internal/state"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the site into the output directory"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Discover DiscoverCmd `cmd:"" help:"List discovered documents and their collections without building"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild automatically when source content changes"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads and validates the configuration named by the root flags.
// Malformed configuration is a fatal startup error, not a pipeline error.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "load configuration")
	}
	return cfg, nil
}

// resolveRoot makes the content root available, fetching the git source
// first when one is configured.
func resolveRoot(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Source.Git != nil {
		return source.FetchGitSource(ctx, cfg.Source.Git)
	}
	return cfg.Source.Root, nil
}

// newBuilder assembles a Builder with the standard collaborators: disk
// writer, optional state store, optional Prometheus recorder.
func newBuilder(cfg *config.Config, outputDir string, incremental, force, withMetrics bool) (*site.Builder, func(), error) {
	opts := []site.Option{
		site.WithWriter(&site.DiskWriter{Dir: outputDir, Clean: cfg.Output.Clean}),
	}
	cleanup := func() {}

	if cfg.Build.StateDB != "" {
		store, err := state.Open(cfg.Build.StateDB)
		if err != nil {
			return nil, nil, errors.WrapError(err, errors.CategoryState, "open state store")
		}
		opts = append(opts, site.WithStore(store))
		cleanup = func() { _ = store.Close() }
	}
	if incremental {
		opts = append(opts, site.WithIncremental(force))
	}
	if withMetrics {
		opts = append(opts, site.WithRecorder(metrics.NewPrometheusRecorder(nil)))
	}
	return site.NewBuilder(cfg, opts...), cleanup, nil
}

// resolveOutputDir determines the final output directory.
// Priority: CLI flag > configured directory.
func resolveOutputDir(cliOutput string, cfg *config.Config) string {
	if cliOutput != "" {
		return cliOutput
	}
	return cfg.Output.Directory
}
