package scheduler

import (
	"log/slog"
	"time"

	"github.com/jonah3272/boliviablue/metrics"
)

type Option func(s *Scheduler)

// WithLogger specifies the logger for the scheduler
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithQueryInterval specifies how often the scheduler checks for due ticks.
// Defaults to 1s.
// Subscription intervals finer than this are rounded up to it
func WithQueryInterval(q time.Duration) Option {
	return func(s *Scheduler) {
		s.queryInterval = q
	}
}

// WithMetrics specifies the metrics the scheduler reports to
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}
