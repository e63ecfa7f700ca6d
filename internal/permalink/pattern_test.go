package permalink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/content"
)

func postDoc(relPath, title string) *content.Document {
	meta := content.Fields{}
	if title != "" {
		meta[content.KeyTitle] = content.String(title)
	}
	d := content.New("/src/"+relPath, relPath, meta, nil, true)
	d.Collection = "posts"
	return d
}

func TestExpand_DatePattern(t *testing.T) {
	p, err := Compile("/:year/:month/:day/:title/")
	require.NoError(t, err)

	got, err := p.Expand(postDoc("posts/2024-04-30-a.md", "C++ Modules: A Survey"))
	require.NoError(t, err)
	assert.Equal(t, "/2024/04/30/c-modules-a-survey/", got)

	older, err := p.Expand(postDoc("posts/2022-07-07-b.md", "Pattern Matching"))
	require.NoError(t, err)
	assert.Equal(t, "/2022/07/07/pattern-matching/", older)
}

func TestExpand_ZeroPaddedMonthAndDay(t *testing.T) {
	p, err := Compile("/:year/:month/:day/")
	require.NoError(t, err)

	got, err := p.Expand(postDoc("posts/2024-01-05-x.md", "X"))
	require.NoError(t, err)
	assert.Equal(t, "/2024/01/05/", got)
}

func TestExpand_CollectionPlaceholder(t *testing.T) {
	p, err := Compile("/:collection/:slug/")
	require.NoError(t, err)

	got, err := p.Expand(postDoc("posts/2024-04-30-hello.md", "Hello World"))
	require.NoError(t, err)
	assert.Equal(t, "/posts/hello-world/", got)
}

func TestExpand_NoDoubleSeparators(t *testing.T) {
	p, err := Compile("//:collection//:slug/")
	require.NoError(t, err)

	got, err := p.Expand(postDoc("posts/2024-04-30-a.md", "A"))
	require.NoError(t, err)
	assert.Equal(t, "/posts/a/", got)
	assert.NotContains(t, got, "//")
}

func TestExpand_MissingDateFails(t *testing.T) {
	p, err := Compile("/:year/:slug/")
	require.NoError(t, err)

	_, err = p.Expand(postDoc("posts/undated.md", "No Date"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no derivable date")
}

func TestExpand_EmptyPlaceholderFails(t *testing.T) {
	p, err := Compile("/:collection/:slug/")
	require.NoError(t, err)

	ungrouped := content.New("/src/a.md", "a.md", content.Fields{"title": content.String("A")}, nil, true)
	_, err = p.Expand(ungrouped)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolved empty")
}

func TestCompile_UnknownPlaceholder(t *testing.T) {
	_, err := Compile("/:year/:bogus/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown placeholder")
}

func TestCompile_LiteralOnlyPattern(t *testing.T) {
	p, err := Compile("/about/")
	require.NoError(t, err)

	got, err := p.Expand(postDoc("posts/2024-04-30-a.md", "A"))
	require.NoError(t, err)
	assert.Equal(t, "/about/", got)
}

func TestCheckCollisions_ReportsAllInAggregate(t *testing.T) {
	resolved := map[string]string{
		"posts/a.md":  "/2024/04/30/same/",
		"posts/b.md":  "/2024/04/30/same/",
		"posts/c.md":  "/unique/",
		"notes/d.md":  "/other/",
		"notes/d2.md": "/other/",
	}

	err := CheckCollisions(resolved)
	require.Error(t, err)

	var ce *CollisionError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Collisions, 2)
	assert.Equal(t, "/2024/04/30/same/", ce.Collisions[0].OutputPath)
	assert.Equal(t, []string{"posts/a.md", "posts/b.md"}, ce.Collisions[0].Sources)
	assert.Equal(t, "/other/", ce.Collisions[1].OutputPath)
}

func TestCheckCollisions_CleanSetPasses(t *testing.T) {
	require.NoError(t, CheckCollisions(map[string]string{
		"a.md": "/a/",
		"b.md": "/b/",
	}))
	require.NoError(t, CheckCollisions(nil))
}
