package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

// StaleSessionStore is the slice of the session store the janitor needs:
// listing abandoned sessions and destroying them.
type StaleSessionStore interface {
	Stale(ttl time.Duration) ([]string, error)
	Destroy(sessionID string) error
}

// Janitor reaps session folders whose client never finished or never came
// back. Normal cleanup runs on the response lifecycle; the janitor is the
// backstop that keeps crashed or abandoned sessions from accumulating.
type Janitor struct {
	store    StaleSessionStore
	config   *domain.SessionConfig
	logger   *zap.Logger
	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	workerWg sync.WaitGroup
}

// NewJanitor creates a session janitor.
func NewJanitor(store StaleSessionStore, config *domain.SessionConfig, logger *zap.Logger) *Janitor {
	return &Janitor{
		store:    store,
		config:   config,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start starts the background sweeper.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return fmt.Errorf("janitor already running")
	}
	j.running = true
	j.mu.Unlock()

	j.logger.Info("Session janitor started",
		zap.Duration("ttl", j.config.TTL),
		zap.Duration("interval", j.config.SweepInterval))

	j.workerWg.Add(1)
	go j.sweepLoop(ctx)

	return nil
}

// Stop stops the sweeper and waits for the in-flight sweep to finish.
func (j *Janitor) Stop() error {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return fmt.Errorf("janitor not running")
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopChan)
	j.workerWg.Wait()

	j.logger.Info("Session janitor stopped")
	return nil
}

// IsRunning returns whether the janitor is running.
func (j *Janitor) IsRunning() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.running
}

func (j *Janitor) sweepLoop(ctx context.Context) {
	defer j.workerWg.Done()

	ticker := time.NewTicker(j.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep removes every session folder older than the configured TTL. Destroy
// is idempotent, so racing the response cleaner is harmless.
func (j *Janitor) Sweep() {
	stale, err := j.store.Stale(j.config.TTL)
	if err != nil {
		j.logger.Error("Failed to list stale sessions", zap.Error(err))
		return
	}
	for _, sessionID := range stale {
		if err := j.store.Destroy(sessionID); err != nil {
			j.logger.Warn("Failed to reap session",
				zap.String("session_id", sessionID),
				zap.Error(err))
			continue
		}
		j.logger.Info("Reaped abandoned session", zap.String("session_id", sessionID))
	}
}
