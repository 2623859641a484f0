package server

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonah3272/boliviablue/server/config"
)

type Option func(s *Server)

// WithLogger specifies the logger for the server
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithConfig specifies the config for the server
func WithConfig(c *config.Config) Option {
	return func(s *Server) {
		s.config = c
	}
}

// WithRates enables the live blue rate endpoint
func WithRates(r RateCache) Option {
	return func(s *Server) {
		s.rates = r
	}
}

// WithHistory enables the history, stats and CSV endpoints
func WithHistory(h HistorySource) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithMetrics exposes the gathered metrics at /metrics
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}
