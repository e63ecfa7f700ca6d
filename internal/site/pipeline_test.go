package site

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/collections"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/permalink"
	"git.home.luguber.info/inful/sitegen/internal/state"
)

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func parseConfig(t *testing.T, raw string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(raw))
	require.NoError(t, err)
	return cfg
}

const twoPostConfig = `
site:
  title: Test Site
permalink: "/:year/:month/:day/:title/"
collections:
  - prefix: posts
    paginate: true
`

func twoPostRoot(t *testing.T) string {
	root := t.TempDir()
	writeSource(t, root, "posts/2024-04-30-modules.md", "---\ntitle: C++ Modules\n---\nFirst paragraph.\n\nSecond.\n")
	writeSource(t, root, "posts/2022-07-07-ranges.md", "---\ntitle: Ranges Survey\n---\nOlder post body.\n")
	return root
}

func TestBuild_ResolvesDatedPermalinks(t *testing.T) {
	res, err := Build(context.Background(), twoPostRoot(t), parseConfig(t, twoPostConfig))
	require.NoError(t, err)
	require.NotNil(t, res.Tree)

	newer, ok := res.Tree.Get("2024/04/30/c-modules/index.html")
	require.True(t, ok, "paths: %v", res.Tree.Paths())
	assert.Contains(t, string(newer), "<h1>C++ Modules</h1>")
	assert.Contains(t, string(newer), "First paragraph.")

	_, ok = res.Tree.Get("2022/07/07/ranges-survey/index.html")
	require.True(t, ok)
}

func TestBuild_ListingPageOrdersNewestFirst(t *testing.T) {
	res, err := Build(context.Background(), twoPostRoot(t), parseConfig(t, twoPostConfig))
	require.NoError(t, err)

	listing, ok := res.Tree.Get("posts/index.html")
	require.True(t, ok)
	html := string(listing)
	newerAt := strings.Index(html, "/2024/04/30/c-modules/")
	olderAt := strings.Index(html, "/2022/07/07/ranges-survey/")
	require.Positive(t, newerAt)
	require.Positive(t, olderAt)
	assert.Less(t, newerAt, olderAt, "date-sorted collection lists the 2024 post first")
	assert.Contains(t, html, "First paragraph.", "listing carries the excerpt")
}

func TestBuild_UngroupedPageAndAsset(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "about.md", "---\ntitle: About\n---\nHello.\n")
	writeSource(t, root, "css/site.css", "body { margin: 0 }")

	res, err := Build(context.Background(), root, parseConfig(t, "site:\n  title: T\n"))
	require.NoError(t, err)

	page, ok := res.Tree.Get("about/index.html")
	require.True(t, ok)
	assert.Contains(t, string(page), "<h1>About</h1>")

	asset, ok := res.Tree.Get("css/site.css")
	require.True(t, ok)
	assert.Equal(t, "body { margin: 0 }", string(asset), "assets pass through verbatim")
}

func TestBuild_AssetUnderCollectionPrefixCopiedVerbatim(t *testing.T) {
	root := twoPostRoot(t)
	writeSource(t, root, "posts/2024-04-30-diagram.png", "\x89PNG fake bytes")

	res, err := Build(context.Background(), root, parseConfig(t, twoPostConfig))
	require.NoError(t, err)

	asset, ok := res.Tree.Get("posts/2024-04-30-diagram.png")
	require.True(t, ok, "asset keeps its source path, paths: %v", res.Tree.Paths())
	assert.Equal(t, "\x89PNG fake bytes", string(asset))

	for _, p := range res.Tree.Paths() {
		assert.NotEqual(t, "2024/04/30/diagram/index.html", p,
			"a dated filename must not drag an asset through permalink expansion")
	}

	listing, ok := res.Tree.Get("posts/index.html")
	require.True(t, ok)
	assert.NotContains(t, string(listing), "diagram", "assets never appear as listing entries")
}

func TestBuild_FrontMatterErrorsReportedAsBatch(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "posts/2024-04-30-good.md", "---\ntitle: Fine\n---\nok\n")
	writeSource(t, root, "posts/2024-04-29-bad.md", "---\ntitle: [broken\n---\nx\n")
	writeSource(t, root, "posts/2024-04-28-worse.md", "---\nunterminated: yes\n")

	_, err := Build(context.Background(), root, parseConfig(t, twoPostConfig))
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, StateParsing, buildErr.State)
	require.Len(t, buildErr.FrontMatter, 2, "all parse errors reported together")
	paths := []string{buildErr.FrontMatter[0].Path, buildErr.FrontMatter[1].Path}
	assert.Contains(t, paths, "posts/2024-04-29-bad.md")
	assert.Contains(t, paths, "posts/2024-04-28-worse.md")
}

func TestBuild_AmbiguityAborts(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "notes/n.md", "---\ntitle: N\n---\nx\n")
	cfg := parseConfig(t, `
collections:
  - name: one
    prefix: notes
    sort_by_date: false
  - name: two
    prefix: notes
    sort_by_date: false
`)

	_, err := Build(context.Background(), root, cfg)
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, StateResolving, buildErr.State)
	var ambErr *collections.AmbiguityError
	require.ErrorAs(t, err, &ambErr)
}

func TestBuild_PermalinkCollisionWritesNothing(t *testing.T) {
	root := t.TempDir()
	// Same date, same title: identical permalink.
	writeSource(t, root, "posts/2024-04-30-a.md", "---\ntitle: Same Title\n---\na\n")
	writeSource(t, root, "posts/2024-04-30-b.md", "---\ntitle: Same Title\n---\nb\n")

	out := filepath.Join(t.TempDir(), "public")
	builder := NewBuilder(parseConfig(t, twoPostConfig), WithWriter(&DiskWriter{Dir: out}))

	_, err := builder.Build(context.Background(), root)
	require.Error(t, err)

	var collErr *permalink.CollisionError
	require.ErrorAs(t, err, &collErr)
	require.Len(t, collErr.Collisions, 1)
	assert.Equal(t, []string{"posts/2024-04-30-a.md", "posts/2024-04-30-b.md"}, collErr.Collisions[0].Sources)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no partial output tree is ever persisted")
}

func TestBuild_DeterministicAcrossRuns(t *testing.T) {
	root := twoPostRoot(t)
	cfg := parseConfig(t, twoPostConfig)

	first, err := Build(context.Background(), root, cfg)
	require.NoError(t, err)
	second, err := Build(context.Background(), root, cfg)
	require.NoError(t, err)

	require.Equal(t, first.Tree.Paths(), second.Tree.Paths())
	for _, p := range first.Tree.Paths() {
		a, _ := first.Tree.Get(p)
		b, _ := second.Tree.Get(p)
		assert.Equal(t, a, b, "content of %s", p)
	}
}

func TestBuild_PaginationSplitsListing(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "posts/2024-01-01-a.md", "---\ntitle: A\n---\na\n")
	writeSource(t, root, "posts/2024-01-02-b.md", "---\ntitle: B\n---\nb\n")
	writeSource(t, root, "posts/2024-01-03-c.md", "---\ntitle: C\n---\nc\n")
	cfg := parseConfig(t, twoPostConfig+"pagination:\n  page_size: 2\n")

	res, err := Build(context.Background(), root, cfg)
	require.NoError(t, err)

	pageOne, ok := res.Tree.Get("posts/index.html")
	require.True(t, ok)
	pageTwo, ok := res.Tree.Get("posts/page/2/index.html")
	require.True(t, ok)

	assert.Contains(t, string(pageOne), `rel="next" href="/posts/page/2/"`)
	assert.Contains(t, string(pageTwo), `rel="prev" href="/posts/"`)
	assert.Contains(t, string(pageTwo), "Page 2 of 2")
}

func TestBuild_OutputDisabledCollectionEmitsNothing(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "drafts/2024-04-30-wip.md", "---\ntitle: WIP\n---\nx\n")
	cfg := parseConfig(t, "collections:\n  - prefix: drafts\n    output: false\n")

	res, err := Build(context.Background(), root, cfg)
	require.NoError(t, err)
	assert.Zero(t, res.Tree.Len())
}

func TestBuild_MissingRootFailsInDiscovery(t *testing.T) {
	cfg := parseConfig(t, "site:\n  title: T\n")

	_, err := Build(context.Background(), filepath.Join(t.TempDir(), "absent"), cfg)
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, StateDiscovering, buildErr.State)
}

func TestBuild_IncrementalSkipsUnchangedInput(t *testing.T) {
	root := twoPostRoot(t)
	cfg := parseConfig(t, twoPostConfig)

	store, err := state.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	first, err := NewBuilder(cfg, WithStore(store), WithIncremental(false)).Build(context.Background(), root)
	require.NoError(t, err)
	require.False(t, first.Skipped)
	require.NotNil(t, first.Tree)

	second, err := NewBuilder(cfg, WithStore(store), WithIncremental(false)).Build(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Nil(t, second.Tree)

	// force re-runs the full pipeline despite the matching signature
	third, err := NewBuilder(cfg, WithStore(store), WithIncremental(true)).Build(context.Background(), root)
	require.NoError(t, err)
	assert.False(t, third.Skipped)

	// a content change invalidates the signature
	writeSource(t, root, "posts/2024-04-30-modules.md", "---\ntitle: C++ Modules\n---\nEdited.\n")
	fourth, err := NewBuilder(cfg, WithStore(store), WithIncremental(false)).Build(context.Background(), root)
	require.NoError(t, err)
	assert.False(t, fourth.Skipped)
}

func TestBuild_ReportPopulated(t *testing.T) {
	res, err := Build(context.Background(), twoPostRoot(t), parseConfig(t, twoPostConfig))
	require.NoError(t, err)

	r := res.Report
	assert.NotEmpty(t, r.BuildID)
	assert.Equal(t, StateDone, r.FinalState)
	assert.Equal(t, OutcomeSuccess, r.Outcome)
	assert.Equal(t, 2, r.Documents)
	assert.Equal(t, 3, r.Emitted) // two posts + one listing page
	for _, stage := range []string{"discover", "parse", "resolve", "paginate", "emit"} {
		_, ok := r.Timings[stage]
		assert.True(t, ok, "timing for %s", stage)
	}
}
