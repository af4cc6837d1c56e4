// Package scheduler runs periodic background jobs
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/miraclemessages/mm-case-api/logging"
)

// Purger closes sessions idle since before cutoff
type Purger interface {
	Purge(cutoff time.Time) int
}

// Scheduler purges stale workflow sessions on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	sessions Purger
	ttl      time.Duration
	now      func() time.Time
	log      *zap.SugaredLogger
}

// NewScheduler creates a new scheduler instance
func NewScheduler(sessions Purger, ttl time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		log:      logging.New("scheduler"),
	}
}

// Start registers the purge job on schedule and starts the scheduler
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.purgeSessions); err != nil {
		s.log.Errorw("failed to register session purge job", "schedule", schedule, "error", err)
		return err
	}
	s.cron.Start()
	s.log.Infow("session scheduler started", "schedule", schedule, "ttl", s.ttl)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("session scheduler stopped")
}

func (s *Scheduler) purgeSessions() {
	n := s.sessions.Purge(s.now().Add(-s.ttl))
	if n > 0 {
		s.log.Infow("purged stale sessions", "count", n)
	}
}
