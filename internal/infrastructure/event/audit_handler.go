package event

import (
	"context"

	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/kouden/backend/internal/domain/shared"
	"github.com/kouden/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured audit line per return record event
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit handler
func NewAuditLogHandler(log *zap.Logger) *AuditLogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditLogHandler{
		logger: log.Named("audit"),
	}
}

// EventTypes implements shared.EventHandler
func (h *AuditLogHandler) EventTypes() []string {
	return ReturnRecordEventTypes()
}

// Handle implements shared.EventHandler
func (h *AuditLogHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", ev.EventType()),
		zap.String("event_id", ev.EventID().String()),
		zap.String("aggregate_id", ev.AggregateID().String()),
		zap.String("kouden_id", ev.LedgerID().String()),
		zap.Time("occurred_at", ev.OccurredAt()),
	}

	switch e := ev.(type) {
	case *kouden.ReturnRecordCreatedEvent:
		fields = append(fields,
			zap.String("actor", e.CreatedBy.String()),
			zap.String("kouden_entry_id", e.KoudenEntryID.String()))
	case *kouden.ReturnRecordUpdatedEvent:
		fields = append(fields,
			zap.String("actor", e.UpdatedBy.String()),
			zap.Strings("fields", e.Fields))
	case *kouden.ReturnRecordsBulkUpdatedEvent:
		fields = append(fields,
			zap.String("actor", e.UpdatedBy.String()),
			zap.Int("records", len(e.RecordIDs)),
			zap.Strings("columns", e.Columns))
	case *kouden.ReturnRecordsDeletedEvent:
		fields = append(fields,
			zap.String("actor", e.DeletedBy.String()),
			zap.Int("records", len(e.RecordIDs)))
	}

	fields = append(fields, zap.Reflect("payload", ev))
	logger.Enrich(ctx, h.logger).Info("return record audit", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
