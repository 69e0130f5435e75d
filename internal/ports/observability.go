package ports

import "context"

// MetricsCollector records quantitative observability signals. The interface
// is intentionally generic so adapters can back onto Prometheus or a
// vendor-specific SDK. Metric names the engine records:
//   - Counters:
//     zonepipe_run_total{status="finished|failed|cancelled"}
//     zonepipe_step_total{step, status="finished|failed|skipped"}
//   - Gauges: none (the engine does not call SetGauge)
//   - Histograms:
//     zonepipe_run_duration_seconds
//     zonepipe_step_duration_seconds
type MetricsCollector interface {
	IncCounter(ctx context.Context, name string, labels map[string]string)
	SetGauge(ctx context.Context, name string, value float64, labels map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, labels map[string]string)
}
