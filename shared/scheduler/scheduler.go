// Package scheduler runs periodic maintenance jobs for the service.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner removes cached search results older than maxAge.
type Pruner interface {
	PruneSearches(maxAge time.Duration) (int64, error)
}

// Sweeper prunes the search cache on a cron schedule.
type Sweeper struct {
	cron     *cron.Cron
	pruner   Pruner
	schedule string
	maxAge   time.Duration
}

func NewSweeper(pruner Pruner, schedule string, maxAge time.Duration) *Sweeper {
	return &Sweeper{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		pruner:   pruner,
		schedule: schedule,
		maxAge:   maxAge,
	}
}

// Start registers the prune job and begins the schedule. It returns
// immediately; the sweeper stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, s.prune)
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.Printf("Cache sweeper started (schedule: %s, max age: %v)", s.schedule, s.maxAge)

	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		log.Println("Cache sweeper stopped")
	}()

	return nil
}

func (s *Sweeper) prune() {
	removed, err := s.pruner.PruneSearches(s.maxAge)
	if err != nil {
		log.Printf("Cache prune failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Pruned %d stale cached searches", removed)
	}
}
