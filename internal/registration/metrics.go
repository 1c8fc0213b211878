package registration

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"silentsignals/client/internal/registration/domain"
)

type flowMetrics struct {
	transitions        metric.Int64Counter
	resends            metric.Int64Counter
	validationFailures metric.Int64Counter
}

func newFlowMetrics(m metric.Meter) *flowMetrics {
	return &flowMetrics{
		transitions:        counter(m, "registration.transitions", "Registration step transitions"),
		resends:            counter(m, "registration.resends", "Successful PIN resends"),
		validationFailures: counter(m, "registration.validation_failures", "Inputs rejected before any request"),
	}
}

func counter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		log.Printf("registration: create counter %s: %v", name, err)
		return noop.Int64Counter{}
	}
	return c
}

func (f *flowMetrics) transitioned(ctx context.Context, step domain.Step) {
	f.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step.String())))
}

func (f *flowMetrics) validationFailed(ctx context.Context, field domain.Field) {
	f.validationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("field", string(field))))
}
