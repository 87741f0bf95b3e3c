// Package worker runs periodic maintenance tasks in the background.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mpettersen/lettersmith/internal/service"
)

// DefaultCleanupInterval is how often the janitor runs its tasks.
const DefaultCleanupInterval = time.Hour

// Janitor periodically removes expired sessions.
// It must be started with Start() and stopped with Stop().
type Janitor struct {
	users    service.UserService
	interval time.Duration
	logger   *slog.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewJanitor creates a new Janitor. A non-positive interval falls back
// to DefaultCleanupInterval.
func NewJanitor(users service.UserService, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &Janitor{
		users:    users,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the cleanup loop. One pass runs immediately so expired
// sessions from before a restart do not linger for a full interval.
func (j *Janitor) Start(ctx context.Context) {
	j.wg.Add(1)
	go j.run(ctx)

	j.logger.Info("janitor started", "interval", j.interval)
}

// Stop signals the loop to exit and waits for the current pass to finish.
func (j *Janitor) Stop() {
	close(j.stopCh)
	j.wg.Wait()
	j.logger.Info("janitor stopped")
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	j.sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-j.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	if err := j.users.DeleteExpiredSessions(ctx); err != nil {
		j.logger.Error("session cleanup failed", "error", err)
	}
}
