package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the sync pipeline on a fixed interval so fixture results
// keep flowing in without an operator calling the endpoint. Off by default;
// enabled via ENABLE_BACKGROUND_SYNC.
type Scheduler struct {
	cron   *cron.Cron
	sync   *SyncService
	logger *logrus.Logger
}

func NewScheduler(sync *SyncService, logger *logrus.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), sync: sync, logger: logger}
}

// Start registers the periodic sync job. interval is a Go duration string
// ("6h", "30m").
func (s *Scheduler) Start(interval string) error {
	if _, err := time.ParseDuration(interval); err != nil {
		return fmt.Errorf("invalid sync interval %q: %w", interval, err)
	}

	_, err := s.cron.AddFunc("@every "+interval, s.runSync)
	if err != nil {
		return fmt.Errorf("failed to schedule background sync: %w", err)
	}

	s.cron.Start()
	s.logger.Infof("Background sync scheduled every %s", interval)
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Background sync stopped")
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result := s.sync.Run(ctx)
	if !result.Success {
		s.logger.Warnf("Scheduled sync finished with %d stage errors", len(result.Errors))
	}
}
