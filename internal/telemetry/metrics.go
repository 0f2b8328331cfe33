package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "stride-core"

// Metrics holds the domain counters. A nil *Metrics is valid and records
// nothing, so services can be built without telemetry in tests.
type Metrics struct {
	plansGenerated     metric.Int64Counter
	sessionsCompleted  metric.Int64Counter
	writeBackFailures  metric.Int64Counter
	resolutionsCreated metric.Int64Counter
	catalogFallbacks   metric.Int64Counter
}

// NewMetrics registers the counters on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	m := &Metrics{}
	var err error
	if m.plansGenerated, err = meter.Int64Counter("stride.plans.generated",
		metric.WithDescription("Personalized plans generated")); err != nil {
		return nil, err
	}
	if m.sessionsCompleted, err = meter.Int64Counter("stride.sessions.completed",
		metric.WithDescription("Workout sessions completed")); err != nil {
		return nil, err
	}
	if m.writeBackFailures, err = meter.Int64Counter("stride.writeback.failures",
		metric.WithDescription("Failed schedule or daily workout write-backs")); err != nil {
		return nil, err
	}
	if m.resolutionsCreated, err = meter.Int64Counter("stride.daily.resolutions_created",
		metric.WithDescription("Daily workouts resolved lazily on first read")); err != nil {
		return nil, err
	}
	if m.catalogFallbacks, err = meter.Int64Counter("stride.catalog.fallbacks",
		metric.WithDescription("Exercise provider calls replaced by built-in templates")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) PlanGenerated(ctx context.Context, forced bool) {
	if m == nil {
		return
	}
	m.plansGenerated.Add(ctx, 1, metric.WithAttributes(attribute.Bool("forced", forced)))
}

func (m *Metrics) SessionCompleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsCompleted.Add(ctx, 1)
}

// WriteBackFailed counts one failed secondary write; target is
// "schedule_entry" or "daily_resolution".
func (m *Metrics) WriteBackFailed(ctx context.Context, target string) {
	if m == nil {
		return
	}
	m.writeBackFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("target", target)))
}

func (m *Metrics) ResolutionCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.resolutionsCreated.Add(ctx, 1)
}

func (m *Metrics) CatalogFallback(ctx context.Context) {
	if m == nil {
		return
	}
	m.catalogFallbacks.Add(ctx, 1)
}
