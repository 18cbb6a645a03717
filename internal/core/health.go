package core

import (
	"context"
	"sync"
	"time"

	"github.com/coregx/quill/internal/logger"
)

const maxPingTimeout = 5 * time.Second

type pinger interface {
	PingContext(ctx context.Context) error
}

// healthChecker pings the pool in the background. When the database comes
// back after failed pings, onRecover runs so that statements prepared on the
// lost connections are not reused.
type healthChecker struct {
	pool      pinger
	logger    logger.Logger
	interval  time.Duration
	onRecover func()

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.RWMutex
	failures  int
	checkedAt time.Time
}

func newHealthChecker(pool pinger, log logger.Logger, interval time.Duration, onRecover func()) *healthChecker {
	return &healthChecker{
		pool:      pool,
		logger:    log,
		interval:  interval,
		onRecover: onRecover,
	}
}

func (h *healthChecker) start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})
	go h.loop(ctx)
}

func (h *healthChecker) loop(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.check(ctx)
		}
	}
}

// check pings once and records the outcome.
func (h *healthChecker) check(ctx context.Context) {
	timeout := h.interval
	if timeout > maxPingTimeout {
		timeout = maxPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	err := h.pool.PingContext(pingCtx)
	cancel()

	h.mu.Lock()
	previous := h.failures
	if err != nil {
		h.failures++
	} else {
		h.failures = 0
	}
	h.checkedAt = time.Now()
	failures := h.failures
	h.mu.Unlock()

	switch {
	case err != nil:
		h.logger.Warn("database unreachable", "error", err, "consecutive_failures", failures)
	case previous > 0:
		h.logger.Info("database reachable again", "failed_checks", previous)
		if h.onRecover != nil {
			h.onRecover()
		}
	default:
		h.logger.Debug("database reachable")
	}
}

func (h *healthChecker) stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
}

func (h *healthChecker) healthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.failures == 0
}

func (h *healthChecker) consecutiveFailures() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.failures
}

func (h *healthChecker) lastCheck() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.checkedAt
}
