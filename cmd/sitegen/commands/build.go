package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory (overrides output.directory)"`
	Incremental bool   `short:"i" help:"Skip emission when input is unchanged since the last successful build"`
	Force       bool   `help:"With --incremental, rebuild even when the input is unchanged"`
	Metrics     bool   `help:"Record Prometheus build metrics"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx := context.Background()
	srcRoot, err := resolveRoot(ctx, cfg)
	if err != nil {
		return err
	}

	outputDir := resolveOutputDir(b.Output, cfg)
	builder, cleanup, err := newBuilder(cfg, outputDir, b.Incremental, b.Force, b.Metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := builder.Build(ctx, srcRoot)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Println("Input unchanged, build skipped")
		return nil
	}

	slog.Info("Site written", logfields.Path(outputDir), logfields.Count(res.Report.Emitted))
	fmt.Printf("Built %d file(s) into %s\n", res.Report.Emitted, outputDir)
	return nil
}
