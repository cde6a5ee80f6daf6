package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"parallax/internal/logging"
)

// ProgressStore persists a job's progress percentage.
type ProgressStore interface {
	UpdateJobProgress(ctx context.Context, jobID string, percent int) error
}

const defaultMinInterval = 2 * time.Second

// Store throttles progress writes so a chatty conversion does not hammer the
// shared queue database. Intermediate updates inside the throttle window are
// dropped; the final update (current >= total) always lands.
type Store struct {
	store       ProgressStore
	jobID       string
	ctx         context.Context
	logger      *slog.Logger
	minInterval time.Duration
	now         func() time.Time

	mu           sync.Mutex
	lastAccepted time.Time
}

// StoreOption adjusts a store sink.
type StoreOption func(*Store)

// WithMinInterval overrides the throttle window.
func WithMinInterval(interval time.Duration) StoreOption {
	return func(s *Store) {
		if interval > 0 {
			s.minInterval = interval
		}
	}
}

// WithNow overrides the clock used for throttling.
func WithNow(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a sink that persists progress for one job. The context is
// job-scoped: writes stop once the job's attempt is cancelled.
func NewStore(ctx context.Context, store ProgressStore, jobID string, logger *slog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		store:       store,
		jobID:       jobID,
		ctx:         ctx,
		logger:      logging.NewComponentLogger(logger, "progress"),
		minInterval: defaultMinInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReportPhase is a no-op: phases are transient and never persisted.
func (s *Store) ReportPhase(phase, message string) {}

func (s *Store) ReportProgress(current, total int, message string) {
	denominator := safeTotal(total)
	now := s.now()

	s.mu.Lock()
	if now.Sub(s.lastAccepted) < s.minInterval && current < denominator {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	percent := int(float64(current) / float64(denominator) * 100)
	if err := s.store.UpdateJobProgress(s.ctx, s.jobID, percent); err != nil {
		s.logger.Warn("progress update failed",
			logging.String(logging.FieldJobID, s.jobID),
			logging.Error(err))
		return
	}

	s.mu.Lock()
	s.lastAccepted = now
	s.mu.Unlock()
}
