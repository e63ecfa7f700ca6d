package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// NewSchedule creates a scheduler running rebuild at a fixed interval, for
// content sources that change without filesystem events (e.g. a git source
// updated remotely). The caller starts and shuts the scheduler down.
func NewSchedule(every time.Duration, rebuild RebuildFunc) (gocron.Scheduler, error) {
	if every <= 0 {
		return nil, fmt.Errorf("schedule interval must be positive, got %s", every)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if rebuildErr := rebuild(context.Background()); rebuildErr != nil {
				slog.Error("Scheduled rebuild failed", logfields.Error(rebuildErr))
			}
		}),
		gocron.WithName("interval-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("register rebuild job: %w", err)
	}
	return s, nil
}
