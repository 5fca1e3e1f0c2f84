package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/kouden/backend/internal/domain/shared"
	"github.com/kouden/backend/internal/infrastructure/persistence/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// bulkWriteChunkSize caps the number of ids bound into one IN clause
const bulkWriteChunkSize = 500

// GormReturnRecordRepository implements kouden.ReturnRecordRepository using GORM
type GormReturnRecordRepository struct {
	db *gorm.DB
}

// NewGormReturnRecordRepository creates a new GormReturnRecordRepository
func NewGormReturnRecordRepository(db *gorm.DB) *GormReturnRecordRepository {
	return &GormReturnRecordRepository{db: db}
}

// Create inserts a new return record
func (r *GormReturnRecordRepository) Create(ctx context.Context, record *kouden.ReturnEntryRecord) error {
	model := models.ReturnEntryRecordModelFromDomain(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "create return record")
	}
	return nil
}

// FindByID finds a return record by its id
func (r *GormReturnRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*kouden.ReturnEntryRecord, error) {
	var model models.ReturnEntryRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "find return record")
	}
	return model.ToDomain(), nil
}

// FindByEntryID finds the return record owned by a gift entry
func (r *GormReturnRecordRepository) FindByEntryID(ctx context.Context, entryID uuid.UUID) (*kouden.ReturnEntryRecord, error) {
	var model models.ReturnEntryRecordModel
	if err := r.db.WithContext(ctx).First(&model, "kouden_entry_id = ?", entryID).Error; err != nil {
		return nil, translateError(err, "find return record by entry")
	}
	return model.ToDomain(), nil
}

// FindByLedger lists every return record of a ledger, newest first
func (r *GormReturnRecordRepository) FindByLedger(ctx context.Context, koudenID uuid.UUID) ([]kouden.ReturnEntryRecord, error) {
	var rows []models.ReturnEntryRecordModel
	if err := r.db.WithContext(ctx).
		Where("kouden_id = ?", koudenID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "list return records")
	}
	return toDomainRecords(rows), nil
}

// UpdateColumns writes cols and updated_at in one statement
func (r *GormReturnRecordRepository) UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any, at time.Time) error {
	values := withUpdatedAt(cols, at)
	result := r.db.WithContext(ctx).
		Model(&models.ReturnEntryRecordModel{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return translateError(result.Error, "update return record")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SaveItems rewrites the item list together with its recomputed cost
func (r *GormReturnRecordRepository) SaveItems(ctx context.Context, record *kouden.ReturnEntryRecord) error {
	items := datatypes.JSONSlice[kouden.ReturnItem](record.ReturnItems)
	if items == nil {
		items = datatypes.JSONSlice[kouden.ReturnItem]{}
	}
	return r.UpdateColumns(ctx, record.ID, map[string]any{
		"return_items":      items,
		"return_items_cost": record.ReturnItemsCost,
	}, record.UpdatedAt)
}

// DeleteByEntryID removes the record owned by entryID, if there is one
func (r *GormReturnRecordRepository) DeleteByEntryID(ctx context.Context, entryID uuid.UUID) ([]kouden.DeletedRecord, error) {
	return r.deleteWhere(ctx, "kouden_entry_id = ?", entryID)
}

// DeleteByIDs removes every listed record. Unknown ids are ignored.
func (r *GormReturnRecordRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) ([]kouden.DeletedRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.deleteWhere(ctx, "id IN ?", ids)
}

func (r *GormReturnRecordRepository) deleteWhere(ctx context.Context, query string, arg any) ([]kouden.DeletedRecord, error) {
	var deleted []kouden.DeletedRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.ReturnEntryRecordModel
		if err := tx.Select("id", "kouden_entry_id", "kouden_id").
			Where(query, arg).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
			deleted = append(deleted, kouden.DeletedRecord{
				ID:            row.ID,
				KoudenEntryID: row.KoudenEntryID,
				KoudenID:      row.KoudenID,
			})
		}
		return tx.Where("id IN ?", ids).Delete(&models.ReturnEntryRecordModel{}).Error
	})
	if err != nil {
		return nil, translateError(err, "delete return records")
	}
	return deleted, nil
}

// FindMatchingIDs evaluates a bulk filter over return records joined with their gift entries
func (r *GormReturnRecordRepository) FindMatchingIDs(ctx context.Context, koudenID uuid.UUID, filter kouden.BulkFilter) ([]uuid.UUID, error) {
	query := r.db.WithContext(ctx).
		Table("return_entry_records AS r").
		Joins("JOIN kouden_entries AS e ON e.id = r.kouden_entry_id").
		Where("r.kouden_id = ?", koudenID)

	if ar := filter.AmountRange; ar != nil {
		if ar.Min != nil {
			query = query.Where("e.amount >= ?", *ar.Min)
		}
		if ar.Max != nil {
			query = query.Where("e.amount <= ?", *ar.Max)
		}
	}
	if len(filter.RelationshipIDs) > 0 {
		query = query.Where("e.relationship_id IN ?", filter.RelationshipIDs)
	}
	if len(filter.CurrentStatuses) > 0 {
		statuses := make([]string, len(filter.CurrentStatuses))
		for i, s := range filter.CurrentStatuses {
			statuses[i] = string(s)
		}
		query = query.Where("r.return_status IN ?", statuses)
	}
	if len(filter.AttendanceTypes) > 0 {
		types := make([]string, len(filter.AttendanceTypes))
		for i, t := range filter.AttendanceTypes {
			types[i] = string(t)
		}
		query = query.Where("e.attendance_type IN ?", types)
	}
	if filter.HasOffering != nil {
		query = query.Where("e.has_offering = ?", *filter.HasOffering)
	}

	var ids []uuid.UUID
	if err := query.Order("r.id").Pluck("r.id", &ids).Error; err != nil {
		return nil, translateError(err, "match return records")
	}
	return ids, nil
}

// BulkUpdateColumns applies cols to every id inside one transaction.
// Any failing chunk rolls back all of them.
func (r *GormReturnRecordRepository) BulkUpdateColumns(ctx context.Context, ids []uuid.UUID, cols map[string]any, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	values := withUpdatedAt(cols, at)

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(ids); start += bulkWriteChunkSize {
			end := min(start+bulkWriteChunkSize, len(ids))
			result := tx.Model(&models.ReturnEntryRecordModel{}).
				Where("id IN ?", ids[start:end]).
				Updates(values)
			if result.Error != nil {
				return result.Error
			}
			affected += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, translateError(err, "bulk update return records")
	}
	return affected, nil
}

// FindPage returns up to limit+1 records of a ledger positioned after cursor
func (r *GormReturnRecordRepository) FindPage(ctx context.Context, koudenID uuid.UUID, limit int, cursor *kouden.PageCursor, filter kouden.PageFilter) ([]kouden.ReturnEntryRecord, error) {
	query := r.db.WithContext(ctx).
		Table("return_entry_records AS r").
		Select("r.*").
		Where("r.kouden_id = ?", koudenID)

	if term := normalizeSearchTerm(filter.Search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		query = query.
			Joins("JOIN kouden_entries AS e ON e.id = r.kouden_entry_id").
			Where(`(LOWER(e.name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(e.organization, '')) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filter.Status != nil {
		query = query.Where("r.return_status = ?", string(*filter.Status))
	}
	if cursor != nil {
		query = query.Where("(r.created_at < ? OR (r.created_at = ? AND r.id < ?))",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.ReturnEntryRecordModel
	if err := query.
		Order("r.created_at DESC").Order("r.id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "page return records")
	}
	return toDomainRecords(rows), nil
}

var searchFolder = cases.Lower(language.Und)

// normalizeSearchTerm folds full-width forms and case so that "ＳＡＴＯ" finds "sato"
func normalizeSearchTerm(s string) string {
	return searchFolder.String(norm.NFKC.String(strings.TrimSpace(s)))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func withUpdatedAt(cols map[string]any, at time.Time) map[string]any {
	values := make(map[string]any, len(cols)+1)
	for k, v := range cols {
		values[k] = v
	}
	values["updated_at"] = at
	return values
}

func toDomainRecords(rows []models.ReturnEntryRecordModel) []kouden.ReturnEntryRecord {
	records := make([]kouden.ReturnEntryRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records
}
