package retention

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"stocwatch/config"
	"stocwatch/core/store"
	"stocwatch/core/utils"
)

// DeletionPurger is the slice of the history store the sweeper needs.
type DeletionPurger interface {
	PurgeDeletionsOlderThan(ctx context.Context, party store.Party, olderThan time.Duration) (int64, error)
}

// Sweeper permanently erases tombstone entries older than the retention
// window. It runs once at process start and then on a fixed schedule, and is
// owned by the process: composed at boot, stopped at shutdown. A failed
// sweep is logged and swallowed; the next scheduled tick is the retry.
type Sweeper struct {
	cfg    *config.AppConfig
	purger DeletionPurger
	logger *utils.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

func NewSweeper(cfg *config.AppConfig, purger DeletionPurger, logger *utils.Logger) *Sweeper {
	return &Sweeper{cfg: cfg, purger: purger, logger: logger}
}

func (s *Sweeper) StartWithContext(ctx context.Context) {
	if s == nil || s.purger == nil || !s.cfg.Retention.Enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	c := cron.New()
	c.Schedule(cron.Every(s.cfg.EffectiveSweepInterval()), cron.FuncJob(func() {
		s.RunOnce(runCtx)
	}))
	s.cron = c
	s.running = true
	go func() {
		s.RunOnce(runCtx)
		c.Start()
	}()
}

func (s *Sweeper) StopWithContext(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	c := s.cron
	cancel := s.cancel
	s.cron = nil
	s.cancel = nil
	s.running = false
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce sweeps both parties' tombstone logs. The sweeps are independent:
// one party's failure never blocks the other's, and errors never propagate.
func (s *Sweeper) RunOnce(ctx context.Context) {
	window := s.cfg.EffectiveRetentionWindow()
	for _, party := range []store.Party{store.PartySTOC, store.PartyStore} {
		purged, err := s.purger.PurgeDeletionsOlderThan(ctx, party, window)
		if err != nil {
			if s.logger != nil {
				s.logger.Errorf("retention sweep %s: %v", party, err)
			}
			continue
		}
		if s.logger != nil && purged > 0 {
			s.logger.Printf("retention sweep %s: purged %d tombstones older than %s", party, purged, window)
		}
	}
}
