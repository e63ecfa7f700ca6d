package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siteerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relPaths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestWalk_DeterministicOrderAndContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "posts/2024-04-30-a.md", "a")
	writeFile(t, root, "about.md", "about")
	writeFile(t, root, "posts/2022-07-07-b.md", "b")

	files, err := NewWalker(root, nil).Walk()
	require.NoError(t, err)
	assert.Equal(t, []string{"about.md", "posts/2022-07-07-b.md", "posts/2024-04-30-a.md"}, relPaths(files))
	assert.Equal(t, []byte("about"), files[0].Data)
}

func TestWalk_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "posts/keep.md", "x")
	writeFile(t, root, "drafts/skip.md", "x")
	writeFile(t, root, "posts/skip.tmp", "x")

	files, err := NewWalker(root, []string{"drafts", "*/*.tmp"}).Walk()
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/keep.md"}, relPaths(files))
}

func TestWalk_HiddenFilesSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/config", "x")
	writeFile(t, root, ".hidden.md", "x")
	writeFile(t, root, "visible.md", "x")

	files, err := NewWalker(root, nil).Walk()
	require.NoError(t, err)
	assert.Equal(t, []string{"visible.md"}, relPaths(files))
}

func TestWalk_MissingRootIsFatalFilesystemError(t *testing.T) {
	_, err := NewWalker(filepath.Join(t.TempDir(), "absent"), nil).Walk()
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryFileSystem))
}

func TestWalk_RootIsFileFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.md", "x")

	_, err := NewWalker(filepath.Join(root, "file.md"), nil).Walk()
	require.Error(t, err)
}
