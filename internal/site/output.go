package site

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OutputTree is the assembled build result: a site-relative file path keyed
// mapping. Emission order does not affect correctness; Paths() provides a
// deterministic view for reporting and tests.
type OutputTree struct {
	files map[string][]byte
}

// NewOutputTree returns an empty tree.
func NewOutputTree() *OutputTree {
	return &OutputTree{files: make(map[string][]byte)}
}

// Add stores content under the given file path. Adding a path twice is a
// pipeline invariant violation: the aggregate collision check runs first.
func (t *OutputTree) Add(path string, content []byte) error {
	if _, dup := t.files[path]; dup {
		return fmt.Errorf("output path emitted twice: %s", path)
	}
	t.files[path] = content
	return nil
}

// Get returns the content stored at path.
func (t *OutputTree) Get(path string) ([]byte, bool) {
	c, ok := t.files[path]
	return c, ok
}

// Len returns the number of files in the tree.
func (t *OutputTree) Len() int { return len(t.files) }

// Paths returns all file paths, sorted.
func (t *OutputTree) Paths() []string {
	out := make([]string, 0, len(t.files))
	for p := range t.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Writer persists a finished output tree. The pipeline makes no assumption
// about the storage medium.
type Writer interface {
	Write(ctx context.Context, tree *OutputTree) error
}

// DiskWriter writes the output tree under a local directory.
type DiskWriter struct {
	Dir   string
	Clean bool // remove the directory's previous contents first
}

// Write persists every file in the tree. It is only called with a complete,
// collision-checked tree, so a failure mid-write is a filesystem fault, not
// a partial-build hazard the pipeline created.
func (w *DiskWriter) Write(ctx context.Context, tree *OutputTree) error {
	if w.Clean {
		if err := os.RemoveAll(w.Dir); err != nil {
			return fmt.Errorf("clean output directory: %w", err)
		}
	}
	for _, p := range tree.Paths() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		content, _ := tree.Get(p)
		dst := filepath.Join(w.Dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return fmt.Errorf("create output directory for %s: %w", p, err)
		}
		if err := os.WriteFile(dst, content, 0o644); err != nil { // #nosec G306 -- site output is world readable
			return fmt.Errorf("write %s: %w", p, err)
		}
	}
	return nil
}

// outputFilePath maps a site-absolute permalink to a file path in the tree:
// directory-style permalinks get an index.html, file-style ones are literal.
func outputFilePath(permalink string) string {
	p := strings.TrimPrefix(permalink, "/")
	if p == "" {
		return "index.html"
	}
	if strings.HasSuffix(p, "/") {
		return p + "index.html"
	}
	return p
}
