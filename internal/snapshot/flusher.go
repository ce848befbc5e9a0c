package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Flusher periodically persists dirty sessions, so edits survive a restart
// even when the operator never triggers a save.
type Flusher struct {
	cron     *cron.Cron
	sessions *SessionCache
	store    Store
	prefixes []string
	schedule string
	logger   *zap.Logger
	mu       sync.Mutex
	running  bool
}

// NewFlusher creates a flusher running on a six-field cron schedule.
func NewFlusher(sessions *SessionCache, store Store, prefixes []string, schedule string, logger *zap.Logger) *Flusher {
	return &Flusher{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		store:    store,
		prefixes: prefixes,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the flush job and starts the scheduler.
func (f *Flusher) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return fmt.Errorf("snapshot flusher already running")
	}

	if _, err := f.cron.AddFunc(f.schedule, func() { f.Flush(ctx) }); err != nil {
		return fmt.Errorf("invalid flush schedule %q: %w", f.schedule, err)
	}

	f.logger.Info("Starting snapshot flusher", zap.String("schedule", f.schedule))
	f.cron.Start()
	f.running = true
	return nil
}

// Stop waits for a running flush to finish and stops the scheduler.
func (f *Flusher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return
	}

	f.logger.Info("Stopping snapshot flusher")
	<-f.cron.Stop().Done()
	f.running = false
}

// Flush persists every dirty session and returns how many were saved.
func (f *Flusher) Flush(ctx context.Context) int {
	saved := 0
	for _, s := range f.sessions.Sessions() {
		if !s.Dirty() {
			continue
		}
		if s.Persist(ctx, f.store, f.prefixes, f.logger) {
			saved++
		}
	}
	if saved > 0 {
		f.logger.Debug("Flushed sessions", zap.Int("count", saved))
	}
	return saved
}
