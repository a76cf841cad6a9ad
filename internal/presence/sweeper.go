package presence

import (
	"context"
	"time"

	"github.com/covechat/cove/pkg/log"
)

// Sweeper periodically evicts expired presence records. A failed sweep is
// logged and retried on the next tick; it never stops the loop.
type Sweeper struct {
	tracker  Tracker
	interval time.Duration
	cancel   context.CancelFunc
	doneCh   chan struct{}
}

func NewSweeper(tracker Tracker, interval time.Duration) *Sweeper {
	return &Sweeper{
		tracker:  tracker,
		interval: interval,
		doneCh:   make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.run(ctx)
	l := log.L()
	l.Info().Dur("interval", s.interval).Msg("presence sweeper started")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.tracker.SweepExpired(ctx, time.Now()); err != nil {
				l := log.L()
				l.Error().Err(err).Msg("presence sweep failed")
			}
		}
	}
}

func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.doneCh
	}
}
