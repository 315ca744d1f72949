package application

import "context"

// Metrics receives counters for timer and blocking activity. Implementations
// must be safe for concurrent use.
type Metrics interface {
	SessionStarted(ctx context.Context, sessionType string)
	SessionEnded(ctx context.Context, sessionType, status string, actualSeconds int)
	URLChecked(ctx context.Context, blocked bool)
}

type noopMetrics struct{}

func (noopMetrics) SessionStarted(context.Context, string) {}
func (noopMetrics) SessionEnded(context.Context, string, string, int) {}
func (noopMetrics) URLChecked(context.Context, bool) {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
