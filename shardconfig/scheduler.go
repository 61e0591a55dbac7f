package shardconfig

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RefreshFunc reloads configuration from whatever source backs it (file,
// etcd, ConfigMap) and reports the result.
type RefreshFunc func(ctx context.Context) (*Root, error)

// Scheduler runs a RefreshFunc on a cron schedule, as an alternative to
// Watcher's fixed-interval polling or EtcdSource's push-based Watch — useful
// when the source is a remote API better polled on a sparse schedule
// ("every 5 minutes") than hammered every few seconds.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	refresh RefreshFunc

	mu      sync.RWMutex
	current *Root
}

// NewScheduler builds a Scheduler that has not started running yet.
func NewScheduler(logger *zap.Logger, refresh RefreshFunc) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		refresh: refresh,
	}
}

// AddSchedule registers refresh on a cron spec (seconds-resolution, e.g.
// "0 */5 * * * *" for every five minutes).
func (s *Scheduler) AddSchedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		root, err := s.refresh(context.Background())
		if err != nil {
			s.logger.Error("shardconfig scheduled refresh failed", zap.Error(err))
			return
		}
		s.mu.Lock()
		s.current = root
		s.mu.Unlock()
		s.logger.Info("shardconfig scheduled refresh completed")
	})
	return err
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop blocks until any in-flight job completes, then halts the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Current returns the most recently refreshed configuration, or nil if no
// scheduled refresh has completed yet.
func (s *Scheduler) Current() *Root {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
