package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/watch"
)

// WatchCmd implements the 'watch' command: rebuild on change, with an
// optional interval schedule for sources that change without local events.
type WatchCmd struct {
	Output   string        `short:"o" help:"Output directory (overrides output.directory)"`
	Debounce time.Duration `default:"500ms" help:"Quiet window before a rebuild after a change burst"`
	Every    time.Duration `help:"Also rebuild at this fixed interval (e.g. 10m for a git source)"`
	Metrics  bool          `help:"Record Prometheus build metrics"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srcRoot, err := resolveRoot(ctx, cfg)
	if err != nil {
		return err
	}

	outputDir := resolveOutputDir(w.Output, cfg)
	builder, cleanup, err := newBuilder(cfg, outputDir, false, false, w.Metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	// The interval schedule and the debounce loop both trigger rebuilds;
	// Sequential keeps them from driving the writer concurrently.
	rebuild := watch.Sequential(func(ctx context.Context) error {
		// The git source may have moved; re-fetch before rebuilding.
		buildRoot, fetchErr := resolveRoot(ctx, cfg)
		if fetchErr != nil {
			return fetchErr
		}
		_, buildErr := builder.Build(ctx, buildRoot)
		return buildErr
	})

	if err := rebuild(ctx); err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}

	if w.Every > 0 {
		sched, schedErr := watch.NewSchedule(w.Every, rebuild)
		if schedErr != nil {
			return schedErr
		}
		sched.Start()
		defer func() { _ = sched.Shutdown() }()
	}

	watcher, err := watch.NewWatcher(srcRoot, w.Debounce, rebuild)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
