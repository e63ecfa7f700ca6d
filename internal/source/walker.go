// Package source supplies content files to the pipeline: a filesystem walker
// with exclude patterns, and an optional git fetcher for remote content.
package source

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	siteerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// File is one discovered content file.
type File struct {
	Path    string // absolute path on disk
	RelPath string // path relative to the walked root, slash-separated
	Data    []byte
}

// Walker enumerates files under a root, skipping excluded paths.
//
// Exclude patterns are globs matched against the root-relative slash path
// (filepath.Match semantics); a pattern matching a directory prunes the
// whole subtree. Hidden files and directories are always skipped.
type Walker struct {
	Root    string
	Exclude []string
}

// NewWalker creates a walker for root with the given exclude patterns.
func NewWalker(root string, exclude []string) *Walker {
	return &Walker{Root: root, Exclude: exclude}
}

// Walk returns all included files in deterministic (lexical) order.
//
// Filesystem errors are fatal and unretried: a static build has no
// transient-failure model.
func (w *Walker) Walk() ([]File, error) {
	info, err := os.Stat(w.Root)
	if err != nil {
		return nil, siteerrors.WrapError(err, siteerrors.CategoryFileSystem, "source root not accessible").
			WithContext("root", w.Root)
	}
	if !info.IsDir() {
		return nil, siteerrors.New(siteerrors.CategoryFileSystem, siteerrors.SeverityFatal, "source root is not a directory").
			WithContext("root", w.Root)
	}

	var files []File
	walkErr := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(w.Root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		hidden := strings.HasPrefix(d.Name(), ".")
		excluded := w.excluded(rel)
		if d.IsDir() {
			if hidden || excluded {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden || excluded {
			if excluded {
				slog.Debug("Excluding file", logfields.Path(rel))
			}
			return nil
		}

		data, readErr := os.ReadFile(path) // #nosec G304 -- paths come from walking the configured root
		if readErr != nil {
			return readErr
		}
		files = append(files, File{Path: path, RelPath: rel, Data: data})
		return nil
	})
	if walkErr != nil {
		return nil, siteerrors.WrapError(walkErr, siteerrors.CategoryFileSystem, "walking source root failed").
			WithContext("root", w.Root)
	}

	slog.Debug("Source walk complete", logfields.Path(w.Root), logfields.Count(len(files)))
	return files, nil
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.Exclude {
		pattern = strings.Trim(filepath.ToSlash(pattern), "/")
		if pattern == "" {
			continue
		}
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		// A pattern naming a directory excludes everything below it.
		if rel == pattern || strings.HasPrefix(rel, pattern+"/") {
			return true
		}
	}
	return false
}
