package source

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/sitegen/internal/config"
	siteerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// FetchGitSource makes the configured git content repository available
// locally and returns the checkout directory to use as the source root.
//
// An existing checkout is updated with a pull; a missing one is cloned.
// Fetch failures are fatal: the build has no transient-failure model and
// never retries.
func FetchGitSource(ctx context.Context, cfg *config.GitSourceConfig) (string, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = filepath.Join(".sitegen", "source")
	}

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return dir, pullExisting(ctx, dir, cfg)
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o750); err != nil {
		return "", siteerrors.WrapError(err, siteerrors.CategoryFileSystem, "ensure git source directory")
	}

	opts := &ggit.CloneOptions{URL: cfg.URL, Depth: 1, SingleBranch: true}
	if cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(cfg.Branch)
	}
	slog.Info("Cloning content source", slog.String("url", cfg.URL), logfields.Path(dir))
	if _, err := ggit.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return "", siteerrors.WrapError(err, siteerrors.CategoryFileSystem, "clone content source").
			WithContext("url", cfg.URL)
	}
	return dir, nil
}

func pullExisting(ctx context.Context, dir string, cfg *config.GitSourceConfig) error {
	repo, err := ggit.PlainOpen(dir)
	if err != nil {
		return siteerrors.WrapError(err, siteerrors.CategoryFileSystem, "open content source checkout").
			WithContext("dir", dir)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return siteerrors.WrapError(err, siteerrors.CategoryFileSystem, "content source worktree").
			WithContext("dir", dir)
	}

	opts := &ggit.PullOptions{Depth: 1, SingleBranch: true}
	if cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(cfg.Branch)
	}
	slog.Info("Updating content source", logfields.Path(dir))
	err = wt.PullContext(ctx, opts)
	if err != nil && !errors.Is(err, ggit.NoErrAlreadyUpToDate) {
		return siteerrors.WrapError(err, siteerrors.CategoryFileSystem, "pull content source").
			WithContext("dir", dir)
	}
	return nil
}
