package state

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/source"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("site:\n  title: T\n"))
	require.NoError(t, err)
	return cfg
}

func TestComputeSignature_DeterministicAndOrderIndependent(t *testing.T) {
	cfg := testConfig(t)
	a := source.File{RelPath: "a.md", Data: []byte("aaa")}
	b := source.File{RelPath: "b.md", Data: []byte("bbb")}

	s1, err := ComputeSignature([]source.File{a, b}, cfg)
	require.NoError(t, err)
	s2, err := ComputeSignature([]source.File{b, a}, cfg)
	require.NoError(t, err)
	assert.Equal(t, s1, s2, "discovery order must not affect the signature")
}

func TestComputeSignature_SensitiveToContentAndConfig(t *testing.T) {
	cfg := testConfig(t)
	base := []source.File{{RelPath: "a.md", Data: []byte("aaa")}}

	orig, err := ComputeSignature(base, cfg)
	require.NoError(t, err)

	changed, err := ComputeSignature([]source.File{{RelPath: "a.md", Data: []byte("AAA")}}, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, orig, changed)

	cfg2 := testConfig(t)
	cfg2.Site.Title = "Other"
	reconfigured, err := ComputeSignature(base, cfg2)
	require.NoError(t, err)
	assert.NotEqual(t, orig, reconfigured)
}

func TestStore_RecordAndLastSuccessfulSignature(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	sig, err := store.LastSuccessfulSignature(ctx)
	require.NoError(t, err)
	assert.Empty(t, sig, "empty store has no signature")

	require.NoError(t, store.Record(ctx, BuildRecord{
		ID: uuid.NewString(), Signature: "sig-1", Outcome: "success", Documents: 3,
		CreatedAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, store.Record(ctx, BuildRecord{
		ID: uuid.NewString(), Signature: "sig-2", Outcome: "failed", Documents: 0,
	}))

	sig, err = store.LastSuccessfulSignature(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sig-1", sig, "failed builds do not advance the signature")

	require.NoError(t, store.Record(ctx, BuildRecord{
		ID: uuid.NewString(), Signature: "sig-3", Outcome: "success", Documents: 3,
	}))
	sig, err = store.LastSuccessfulSignature(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sig-3", sig)
}

func TestStore_History(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i, sig := range []string{"one", "two", "three"} {
		require.NoError(t, store.Record(ctx, BuildRecord{
			ID: uuid.NewString(), Signature: sig, Outcome: "success",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}

	recs, err := store.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "three", recs[0].Signature)
	assert.Equal(t, "two", recs[1].Signature)
}
