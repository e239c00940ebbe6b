package papersources

import (
	"github.com/rs/zerolog"

	"github.com/helixir/scholar-gateway/internal/observability"
)

// Deps carries the collaborators shared by every adapter instance.
// Logger must be a usable logger; pass zerolog.Nop() to discard output.
type Deps struct {
	Logger  zerolog.Logger
	Metrics *observability.Metrics

	// Doer replaces the HTTP transport when set.
	Doer Doer
}

// ExecutorOptions converts the dependencies into executor options.
func (d Deps) ExecutorOptions() []HTTPClientOption {
	opts := []HTTPClientOption{
		WithLogger(d.Logger),
		WithMetrics(d.Metrics),
	}
	if d.Doer != nil {
		opts = append(opts, WithDoer(d.Doer))
	}
	return opts
}

// RecordParsed reports how many records of a page were normalized and how
// many were skipped as invalid.
func (d Deps) RecordParsed(source string, parsed, rejected int) {
	d.Metrics.RecordPapersParsed(source, parsed, rejected)
}
