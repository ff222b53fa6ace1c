package roster

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Poller refreshes a Coordinator on a fixed interval in agent mode.
type Poller struct {
	coordinator *Coordinator
	logger      *slog.Logger
	interval    time.Duration
	running     atomic.Bool
	paused      atomic.Bool
}

func NewPoller(coordinator *Coordinator, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		coordinator: coordinator,
		logger:      logger,
		interval:    interval,
	}
}

// Start blocks until ctx is done. A non-positive interval makes it return
// immediately.
func (p *Poller) Start(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Info("roster polling disabled")
		return
	}
	if p.running.Swap(true) {
		return
	}
	defer p.running.Store(false)

	p.logger.Info("roster poller started", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("roster poller stopping")
			return
		case <-ticker.C:
			if !p.paused.Load() {
				_ = p.coordinator.Refresh(ctx)
			}
		}
	}
}

func (p *Poller) Pause() {
	p.paused.Store(true)
	p.logger.Info("roster poller paused")
}

func (p *Poller) Resume() {
	p.paused.Store(false)
	p.logger.Info("roster poller resumed")
}

func (p *Poller) IsPaused() bool {
	return p.paused.Load()
}

func (p *Poller) IsRunning() bool {
	return p.running.Load()
}
