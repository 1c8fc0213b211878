package telemetry

import (
	"context"

	"silentsignals/client/internal/telemetry/domain"
)

// EventEmitter emits flow events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Emit(context.Context, *domain.Event) error { return nil }
