package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/kouden/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerRepository reads gift entries, relationship labels and offering
// allocations. It implements kouden.EntryReader, kouden.RelationshipLookup
// and kouden.OfferingAllocator.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// GetEntry finds a gift entry by id
func (r *GormLedgerRepository) GetEntry(ctx context.Context, id uuid.UUID) (*kouden.GiftEntry, error) {
	var model models.GiftEntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "find gift entry")
	}
	return model.ToDomain(), nil
}

// ListEntries lists every gift entry of a ledger, newest first
func (r *GormLedgerRepository) ListEntries(ctx context.Context, koudenID uuid.UUID) ([]kouden.GiftEntry, error) {
	var rows []models.GiftEntryModel
	if err := r.db.WithContext(ctx).
		Where("kouden_id = ?", koudenID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "list gift entries")
	}
	entries := make([]kouden.GiftEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// ListRelationships lists the relationship labels of a ledger
func (r *GormLedgerRepository) ListRelationships(ctx context.Context, koudenID uuid.UUID) ([]kouden.Relationship, error) {
	var rows []models.RelationshipModel
	if err := r.db.WithContext(ctx).
		Where("kouden_id = ?", koudenID).
		Order("name").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "list relationships")
	}
	rels := make([]kouden.Relationship, len(rows))
	for i := range rows {
		rels[i] = rows[i].ToDomain()
	}
	return rels, nil
}

// AllocatedOfferingValue sums the offering amounts allocated to an entry
func (r *GormLedgerRepository) AllocatedOfferingValue(ctx context.Context, entryID uuid.UUID) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.OfferingAllocationModel{}).
		Where("kouden_entry_id = ?", entryID).
		Select("COALESCE(SUM(allocated_amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, translateError(err, "sum offering allocations")
	}
	return total, nil
}
