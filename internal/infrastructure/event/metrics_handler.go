package event

import (
	"context"

	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/kouden/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsHandler counts return record events and the records they touched
type MetricsHandler struct {
	events  metric.Int64Counter
	records metric.Int64Counter
}

// NewMetricsHandler creates the counters on meter
func NewMetricsHandler(meter metric.Meter) (*MetricsHandler, error) {
	events, err := meter.Int64Counter("kouden.return_record.events",
		metric.WithDescription("Return record domain events published"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, err
	}
	records, err := meter.Int64Counter("kouden.return_record.records_changed",
		metric.WithDescription("Return records touched by published events"),
		metric.WithUnit("{record}"))
	if err != nil {
		return nil, err
	}
	return &MetricsHandler{events: events, records: records}, nil
}

// EventTypes implements shared.EventHandler
func (h *MetricsHandler) EventTypes() []string {
	return ReturnRecordEventTypes()
}

// Handle implements shared.EventHandler
func (h *MetricsHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	attrs := metric.WithAttributes(attribute.String("event_type", ev.EventType()))
	h.events.Add(ctx, 1, attrs)

	var touched int
	switch e := ev.(type) {
	case *kouden.ReturnRecordsBulkUpdatedEvent:
		touched = len(e.RecordIDs)
	case *kouden.ReturnRecordsDeletedEvent:
		touched = len(e.RecordIDs)
	default:
		touched = 1
	}
	h.records.Add(ctx, int64(touched), attrs)
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
