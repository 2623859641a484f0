package blue

import (
	"log/slog"

	"github.com/jonah3272/boliviablue/metrics"
)

type (
	SourceOption   func(s *Source)
	PipelineOption func(p *Pipeline)
)

// WithSourceLogger specifies the logger for the rate source
func WithSourceLogger(l *slog.Logger) SourceOption {
	return func(s *Source) {
		s.logger = l
	}
}

// WithLogger specifies the logger for the pipeline
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithMetrics specifies the metrics the pipeline reports to
func WithMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithOfficialSource enables the official rate fields of the snapshots
func WithOfficialSource(o OfficialSource) PipelineOption {
	return func(p *Pipeline) {
		p.official = o
	}
}
