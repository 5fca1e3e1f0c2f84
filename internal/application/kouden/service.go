package kouden

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/kouden/backend/internal/domain/shared"
	"github.com/kouden/backend/internal/infrastructure/logger"
	"github.com/kouden/backend/internal/infrastructure/telemetry"
)

const serviceName = "ReturnRecordService"

// OperationMetrics receives per-operation outcomes. telemetry.ServiceMetrics implements it.
type OperationMetrics interface {
	RecordOperation(ctx context.Context, op string, elapsed time.Duration, err error)
	RecordSummaryLookup(ctx context.Context, hit bool)
}

// ReturnRecordService handles return record operations for gift ledgers
type ReturnRecordService struct {
	records       kouden.ReturnRecordRepository
	entries       kouden.EntryReader
	relationships kouden.RelationshipLookup
	offerings     kouden.OfferingAllocator
	invalidator   kouden.ViewCacheInvalidator

	summaryCache   kouden.SummaryCache
	eventPublisher shared.EventPublisher
	metrics        OperationMetrics
	now            func() time.Time
}

// NewReturnRecordService creates a new ReturnRecordService
func NewReturnRecordService(
	records kouden.ReturnRecordRepository,
	entries kouden.EntryReader,
	relationships kouden.RelationshipLookup,
	offerings kouden.OfferingAllocator,
	invalidator kouden.ViewCacheInvalidator,
) *ReturnRecordService {
	return &ReturnRecordService{
		records:       records,
		entries:       entries,
		relationships: relationships,
		offerings:     offerings,
		invalidator:   invalidator,
		now:           time.Now,
	}
}

// SetSummaryCache enables read-through caching of BuildSummaries and Statistics.
// Entries are evicted only by this service's own mutations, by a ledger key
// published on the invalidation channel, or by TTL. Gift entry or relationship
// edits made elsewhere stay invisible until one of those happens.
func (s *ReturnRecordService) SetSummaryCache(cache kouden.SummaryCache) {
	s.summaryCache = cache
}

// SetEventPublisher sets the publisher for return record events
func (s *ReturnRecordService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ReturnRecordService) SetMetrics(metrics OperationMetrics) {
	s.metrics = metrics
}

// SetClock replaces the time source used for updated_at
func (s *ReturnRecordService) SetClock(now func() time.Time) {
	s.now = now
}

// Create creates the return record of a gift entry
func (s *ReturnRecordService) Create(ctx context.Context, actor, entryID uuid.UUID, req CreateReturnRecordRequest) (resp *ReturnRecordResponse, err error) {
	ctx, finish := s.begin(ctx, "create", telemetry.WithAttribute(telemetry.SpanAttrEntryID, entryID.String()))
	defer func() { finish(err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	init, err := req.initialFields()
	if err != nil {
		return nil, err
	}

	entry, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Gift entry not found")
		}
		return nil, err
	}
	if req.KoudenID != uuid.Nil && entry.KoudenID != req.KoudenID {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Gift entry not found in this ledger")
	}

	record, err := kouden.NewReturnEntryRecord(entry, actor, init)
	if err != nil {
		return nil, err
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	s.invalidate(ctx, record.KoudenID)
	s.publish(ctx, record.GetDomainEvents()...)
	record.ClearDomainEvents()

	logger.L(ctx).Info("Return record created",
		zap.String("return_record_id", record.ID.String()),
		zap.String("kouden_entry_id", entryID.String()),
		zap.String("kouden_id", record.KoudenID.String()))

	response := ToReturnRecordResponse(record)
	return &response, nil
}

// GetByEntryID returns the record of an entry, or nil when the entry has none
func (s *ReturnRecordService) GetByEntryID(ctx context.Context, entryID uuid.UUID) (resp *ReturnRecordResponse, err error) {
	ctx, finish := s.begin(ctx, "get_by_entry", telemetry.WithAttribute(telemetry.SpanAttrEntryID, entryID.String()))
	defer func() { finish(err) }()

	record, err := s.records.FindByEntryID(ctx, entryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	response := ToReturnRecordResponse(record)
	return &response, nil
}

// ListByLedger lists every return record of a ledger, newest first
func (s *ReturnRecordService) ListByLedger(ctx context.Context, koudenID uuid.UUID) (resp []ReturnRecordResponse, err error) {
	ctx, finish := s.begin(ctx, "list", telemetry.WithAttribute(telemetry.SpanAttrKoudenID, koudenID.String()))
	defer func() { finish(err) }()

	records, err := s.records.FindByLedger(ctx, koudenID)
	if err != nil {
		return nil, err
	}
	return toReturnRecordResponses(records), nil
}

// DeleteByEntryID removes the record of an entry. Deleting nothing is not an error.
func (s *ReturnRecordService) DeleteByEntryID(ctx context.Context, actor, entryID uuid.UUID) (resp *DeleteResult, err error) {
	ctx, finish := s.begin(ctx, "delete_by_entry", telemetry.WithAttribute(telemetry.SpanAttrEntryID, entryID.String()))
	defer func() { finish(err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	deleted, err := s.records.DeleteByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	s.afterDelete(ctx, actor, deleted)
	return &DeleteResult{Deleted: len(deleted)}, nil
}

// DeleteMany removes records by id. Unknown ids are skipped.
func (s *ReturnRecordService) DeleteMany(ctx context.Context, actor uuid.UUID, ids []uuid.UUID) (resp *DeleteResult, err error) {
	ctx, finish := s.begin(ctx, "delete_many", telemetry.WithAttribute(telemetry.SpanAttrRecordCount, len(ids)))
	defer func() { finish(err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &DeleteResult{}, nil
	}
	deleted, err := s.records.DeleteByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.afterDelete(ctx, actor, deleted)
	return &DeleteResult{Deleted: len(deleted)}, nil
}

// afterDelete signals each touched ledger once
func (s *ReturnRecordService) afterDelete(ctx context.Context, actor uuid.UUID, deleted []kouden.DeletedRecord) {
	if len(deleted) == 0 {
		return
	}
	byLedger := make(map[uuid.UUID][]uuid.UUID)
	order := make([]uuid.UUID, 0, 1)
	for _, d := range deleted {
		if _, seen := byLedger[d.KoudenID]; !seen {
			order = append(order, d.KoudenID)
		}
		byLedger[d.KoudenID] = append(byLedger[d.KoudenID], d.ID)
	}
	for _, koudenID := range order {
		s.invalidate(ctx, koudenID)
		s.publish(ctx, kouden.NewReturnRecordsDeletedEvent(koudenID, byLedger[koudenID], actor))
	}
	logger.L(ctx).Info("Return records deleted",
		zap.Int("count", len(deleted)),
		zap.Int("ledgers", len(order)))
}

// UpdateField sets one allow-listed field of a record
func (s *ReturnRecordService) UpdateField(ctx context.Context, actor, recordID uuid.UUID, req UpdateFieldRequest) (resp *ReturnRecordResponse, err error) {
	ctx, finish := s.begin(ctx, "update_field",
		telemetry.WithAttribute(telemetry.SpanAttrRecordID, recordID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrField, req.Field))
	defer func() { finish(err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	change, err := kouden.NewFieldChange(req.Field, req.Value)
	if err != nil {
		return nil, err
	}
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return s.applyChanges(ctx, actor, record, []kouden.FieldChange{change})
}

// UpdateFieldByEntryID is UpdateField addressed by gift entry
func (s *ReturnRecordService) UpdateFieldByEntryID(ctx context.Context, actor, entryID uuid.UUID, req UpdateFieldRequest) (resp *ReturnRecordResponse, err error) {
	ctx, finish := s.begin(ctx, "update_field",
		telemetry.WithAttribute(telemetry.SpanAttrEntryID, entryID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrField, req.Field))
	defer func() { finish(err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	change, err := kouden.NewFieldChange(req.Field, req.Value)
	if err != nil {
		return nil, err
	}
	record, err := s.records.FindByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return s.applyChanges(ctx, actor, record, []kouden.FieldChange{change})
}

// UpdateFields applies several allow-listed fields in one statement.
// A single forbidden key rejects the whole payload.
func (s *ReturnRecordService) UpdateFields(ctx context.Context, actor, recordID uuid.UUID, payload map[string]any) (resp *ReturnRecordResponse, err error) {
	ctx, finish := s.begin(ctx, "update_fields", telemetry.WithAttribute(telemetry.SpanAttrRecordID, recordID.String()))
	defer func() { finish(err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	changes, err := kouden.NewFieldChanges(payload)
	if err != nil {
		return nil, err
	}
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return s.applyChanges(ctx, actor, record, changes)
}

func (s *ReturnRecordService) applyChanges(ctx context.Context, actor uuid.UUID, record *kouden.ReturnEntryRecord, changes []kouden.FieldChange) (*ReturnRecordResponse, error) {
	at := s.now()
	cols := kouden.Columns(changes)
	if err := s.records.UpdateColumns(ctx, record.ID, cols, at); err != nil {
		return nil, err
	}

	previous := record.ReturnStatus
	record.ApplyChanges(changes, at)
	if !kouden.IsNormalTransition(previous, record.ReturnStatus) {
		logger.L(ctx).Warn("Unusual return status transition",
			zap.String("return_record_id", record.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(record.ReturnStatus)))
	}

	fields := make([]string, len(changes))
	for i, c := range changes {
		fields[i] = string(c.Field)
	}
	s.invalidate(ctx, record.KoudenID)
	s.publish(ctx, kouden.NewReturnRecordUpdatedEvent(record, fields, actor))

	logger.L(ctx).Debug("Return record fields updated",
		zap.String("return_record_id", record.ID.String()),
		zap.Strings("fields", fields))

	response := ToReturnRecordResponse(record)
	return &response, nil
}

// UpdateItems replaces the item list of a record and recomputes its cost
func (s *ReturnRecordService) UpdateItems(ctx context.Context, actor, recordID uuid.UUID, req UpdateItemsRequest) (resp *ReturnRecordResponse, err error) {
	ctx, finish := s.begin(ctx, "update_items", telemetry.WithAttribute(telemetry.SpanAttrRecordID, recordID.String()))
	defer func() { finish(err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	items := toDomainItems(req.ReturnItems)
	if err := kouden.ValidateItems(items); err != nil {
		return nil, err
	}
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := record.ReplaceItems(items); err != nil {
		return nil, err
	}
	record.UpdatedAt = s.now()
	if err := s.records.SaveItems(ctx, record); err != nil {
		return nil, err
	}

	s.invalidate(ctx, record.KoudenID)
	s.publish(ctx, kouden.NewReturnRecordUpdatedEvent(record,
		[]string{"returnItems", string(kouden.FieldReturnItemsCost)}, actor))

	response := ToReturnRecordResponse(record)
	return &response, nil
}

// BulkUpdate writes one payload to every record of a ledger matching the filters
// and returns how many records were targeted.
func (s *ReturnRecordService) BulkUpdate(ctx context.Context, actor, koudenID uuid.UUID, req BulkUpdateRequest) (resp *BulkUpdateResult, err error) {
	ctx, finish := s.begin(ctx, "bulk_update", telemetry.WithAttribute(telemetry.SpanAttrKoudenID, koudenID.String()))
	defer func() { finish(err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter, err := req.Filters.toDomain()
	if err != nil {
		return nil, err
	}
	updates, err := req.Updates.toDomain()
	if err != nil {
		return nil, err
	}

	log := logger.L(ctx)
	if updates.ReturnItems != nil {
		log.Info("Bulk returnItems instruction ignored",
			zap.String("mode", string(updates.ReturnItems.Mode)),
			zap.Int("items", len(updates.ReturnItems.Items)))
	}
	cols := updates.Columns()
	if len(cols) == 0 {
		return &BulkUpdateResult{}, nil
	}

	ids, err := s.records.FindMatchingIDs(ctx, koudenID, filter)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &BulkUpdateResult{}, nil
	}

	written, err := s.records.BulkUpdateColumns(ctx, ids, cols, s.now())
	if err != nil {
		return nil, err
	}
	if written != int64(len(ids)) {
		// rows removed between resolve and write
		log.Warn("Bulk update wrote fewer rows than matched",
			zap.Int("matched", len(ids)), zap.Int64("written", written))
	}

	s.invalidate(ctx, koudenID)
	columns := kouden.ColumnNames(cols)
	s.publish(ctx, kouden.NewReturnRecordsBulkUpdatedEvent(koudenID, ids, columns, actor))

	log.Info("Bulk update applied",
		zap.String("kouden_id", koudenID.String()),
		zap.Int("count", len(ids)),
		zap.Strings("columns", columns))
	return &BulkUpdateResult{Updated: len(ids)}, nil
}

// BuildSummaries returns one summary per gift entry of the ledger
func (s *ReturnRecordService) BuildSummaries(ctx context.Context, koudenID uuid.UUID) (resp []SummaryResponse, err error) {
	ctx, finish := s.begin(ctx, "build_summaries", telemetry.WithAttribute(telemetry.SpanAttrKoudenID, koudenID.String()))
	defer func() { finish(err) }()

	summaries, err := s.loadSummaries(ctx, koudenID, true)
	if err != nil {
		return nil, err
	}
	return toSummaryResponses(summaries), nil
}

// GetAllForBulkEdit returns every summary of the ledger, always read fresh
func (s *ReturnRecordService) GetAllForBulkEdit(ctx context.Context, koudenID uuid.UUID) (resp []SummaryResponse, err error) {
	ctx, finish := s.begin(ctx, "bulk_edit_view", telemetry.WithAttribute(telemetry.SpanAttrKoudenID, koudenID.String()))
	defer func() { finish(err) }()

	summaries, err := s.loadSummaries(ctx, koudenID, false)
	if err != nil {
		return nil, err
	}
	return toSummaryResponses(summaries), nil
}

// Statistics aggregates the ledger's summaries
func (s *ReturnRecordService) Statistics(ctx context.Context, koudenID uuid.UUID) (resp *StatisticsResponse, err error) {
	ctx, finish := s.begin(ctx, "statistics", telemetry.WithAttribute(telemetry.SpanAttrKoudenID, koudenID.String()))
	defer func() { finish(err) }()

	summaries, err := s.loadSummaries(ctx, koudenID, true)
	if err != nil {
		return nil, err
	}
	response := ToStatisticsResponse(kouden.NewReturnStatistics(koudenID, summaries))
	return &response, nil
}

func (s *ReturnRecordService) loadSummaries(ctx context.Context, koudenID uuid.UUID, cached bool) ([]kouden.ReturnManagementSummary, error) {
	key := kouden.LedgerCacheKey(koudenID)
	useCache := cached && s.summaryCache != nil
	if useCache {
		summaries, ok, err := s.summaryCache.Get(ctx, key)
		if err != nil {
			logger.L(ctx).Warn("Summary cache read failed", zap.String("key", key), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordSummaryLookup(ctx, ok)
		}
		if ok {
			return summaries, nil
		}
	}

	summaries, err := s.buildSummaries(ctx, koudenID)
	if err != nil {
		return nil, err
	}
	if useCache {
		if err := s.summaryCache.Set(ctx, key, summaries); err != nil {
			logger.L(ctx).Warn("Summary cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return summaries, nil
}

func (s *ReturnRecordService) buildSummaries(ctx context.Context, koudenID uuid.UUID) ([]kouden.ReturnManagementSummary, error) {
	entries, err := s.entries.ListEntries(ctx, koudenID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.FindByLedger(ctx, koudenID)
	if err != nil {
		return nil, err
	}
	relationships, err := s.relationships.ListRelationships(ctx, koudenID)
	if err != nil {
		return nil, err
	}

	recordByEntry := make(map[uuid.UUID]*kouden.ReturnEntryRecord, len(records))
	for i := range records {
		recordByEntry[records[i].KoudenEntryID] = &records[i]
	}
	relationshipName := make(map[uuid.UUID]string, len(relationships))
	for _, r := range relationships {
		relationshipName[r.ID] = r.Name
	}

	summaries := make([]kouden.ReturnManagementSummary, 0, len(entries))
	for _, entry := range entries {
		var allocation int64
		if entry.HasOffering {
			allocation, err = s.offerings.AllocatedOfferingValue(ctx, entry.ID)
			if err != nil {
				return nil, err
			}
		}
		var name *string
		if entry.RelationshipID != nil {
			if n, ok := relationshipName[*entry.RelationshipID]; ok {
				name = &n
			}
		}
		summaries = append(summaries, kouden.NewReturnManagementSummary(entry, recordByEntry[entry.ID], name, allocation))
	}
	return summaries, nil
}

// Page returns one cursor page of a ledger's records
func (s *ReturnRecordService) Page(ctx context.Context, koudenID uuid.UUID, q PageQuery) (resp *PageResponse, err error) {
	ctx, finish := s.begin(ctx, "page", telemetry.WithAttribute(telemetry.SpanAttrKoudenID, koudenID.String()))
	defer func() { finish(err) }()

	limit := kouden.NormalizePageLimit(q.Limit)
	var cursor *kouden.PageCursor
	if q.Cursor != "" {
		if cursor, err = kouden.DecodePageCursor(q.Cursor); err != nil {
			return nil, err
		}
	}
	filter := kouden.PageFilter{Search: q.Search}
	if q.Status != "" {
		status, err := kouden.ParseReturnStatus(q.Status)
		if err != nil {
			return nil, shared.NewDomainError(shared.CodeInvalidFilter, "unknown status: "+q.Status)
		}
		filter.Status = &status
	}

	rows, err := s.records.FindPage(ctx, koudenID, limit, cursor, filter)
	if err != nil {
		return nil, err
	}
	response := toPageResponse(shared.NewCursorPage(rows, limit, kouden.CursorOf))
	return &response, nil
}

// begin opens the operation span and returns a func that closes it and
// records the outcome.
func (s *ReturnRecordService) begin(ctx context.Context, op string, opts ...telemetry.SpanOption) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, op, opts...)
	return ctx, func(err error) {
		defer span.End()
		if s.metrics != nil {
			s.metrics.RecordOperation(ctx, op, time.Since(start), err)
		}
		if err == nil {
			telemetry.SetOK(span)
			return
		}
		telemetry.RecordError(span, err)
		switch shared.CodeOf(err) {
		case shared.CodePersistenceFailure, "":
			logger.L(ctx).Error("Return record operation failed", zap.String("operation", op), zap.Error(err))
		default:
			logger.L(ctx).Debug("Return record operation rejected",
				zap.String("operation", op), zap.String("code", shared.CodeOf(err)), zap.Error(err))
		}
	}
}

// invalidate signals the ledger's views after a committed change
func (s *ReturnRecordService) invalidate(ctx context.Context, koudenID uuid.UUID) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Invalidate(context.WithoutCancel(ctx), kouden.LedgerCacheKey(koudenID))
}

func (s *ReturnRecordService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		// the change is committed; a failed publish only loses the notification
		logger.L(ctx).Warn("Failed to publish return record events", zap.Error(err))
	}
}

func requireActor(actor uuid.UUID) error {
	if actor == uuid.Nil {
		return shared.ErrUnauthenticated
	}
	return nil
}
