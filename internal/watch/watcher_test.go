package watch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebounceLoop_CoalescesBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan struct{}, 16)
	var fires atomic.Int32
	go debounceLoop(ctx, events, 30*time.Millisecond, func() { fires.Add(1) })

	for i := 0; i < 5; i++ {
		events <- struct{}{}
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return fires.Load() == 1 },
		time.Second, 10*time.Millisecond, "one fire for the whole burst")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load(), "no extra fires after quiet period")
}

func TestDebounceLoop_SeparateBurstsFireSeparately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan struct{}, 16)
	var fires atomic.Int32
	go debounceLoop(ctx, events, 20*time.Millisecond, func() { fires.Add(1) })

	events <- struct{}{}
	require.Eventually(t, func() bool { return fires.Load() == 1 }, time.Second, 5*time.Millisecond)

	events <- struct{}{}
	require.Eventually(t, func() bool { return fires.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestSequential_NoOverlappingRebuilds(t *testing.T) {
	var active, maxActive atomic.Int32
	rebuild := Sequential(func(context.Context) error {
		n := active.Add(1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rebuild(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load(), "rebuilds run one at a time")
}

func TestNewSchedule_RejectsNonPositiveInterval(t *testing.T) {
	_, err := NewSchedule(0, func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestNewSchedule_RunsRebuild(t *testing.T) {
	var fires atomic.Int32
	s, err := NewSchedule(20*time.Millisecond, func(context.Context) error {
		fires.Add(1)
		return nil
	})
	require.NoError(t, err)
	s.Start()
	defer func() { _ = s.Shutdown() }()

	require.Eventually(t, func() bool { return fires.Load() >= 1 },
		2*time.Second, 10*time.Millisecond)
}
