package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupKoudenTestDB creates an in-memory SQLite database with the kouden schema.
// The pool is pinned to one connection so every statement sees the same memory database.
func setupKoudenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	statements := []string{
		`CREATE TABLE kouden_relationships (
			id TEXT PRIMARY KEY,
			kouden_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE kouden_entries (
			id TEXT PRIMARY KEY,
			kouden_id TEXT NOT NULL,
			name TEXT NOT NULL,
			organization TEXT,
			position TEXT,
			amount INTEGER NOT NULL DEFAULT 0,
			attendance_type TEXT NOT NULL DEFAULT 'FUNERAL',
			relationship_id TEXT,
			has_offering INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE offering_allocations (
			id TEXT PRIMARY KEY,
			offering_id TEXT NOT NULL,
			kouden_entry_id TEXT NOT NULL,
			allocated_amount INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE return_entry_records (
			id TEXT PRIMARY KEY,
			kouden_entry_id TEXT NOT NULL UNIQUE,
			kouden_id TEXT NOT NULL,
			return_status TEXT NOT NULL DEFAULT 'PENDING',
			return_items TEXT NOT NULL DEFAULT '[]',
			funeral_gift_amount INTEGER NOT NULL DEFAULT 0,
			return_items_cost INTEGER NOT NULL DEFAULT 0,
			additional_return_amount INTEGER GENERATED ALWAYS AS (return_items_cost + funeral_gift_amount) STORED,
			return_method TEXT,
			arrangement_date DATE,
			remarks TEXT,
			shipping_postal_code TEXT,
			shipping_address TEXT,
			shipping_phone_number TEXT,
			created_by TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// entrySeed describes a gift entry inserted by seedEntry
type entrySeed struct {
	KoudenID       uuid.UUID
	Name           string
	Organization   string
	Amount         int64
	AttendanceType string
	RelationshipID *uuid.UUID
	HasOffering    bool
	CreatedAt      time.Time
}

func seedEntry(t *testing.T, db *gorm.DB, s entrySeed) *models.GiftEntryModel {
	t.Helper()
	if s.AttendanceType == "" {
		s.AttendanceType = "FUNERAL"
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m := &models.GiftEntryModel{
		BaseModel: models.BaseModel{
			ID:        uuid.New(),
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.CreatedAt,
		},
		KoudenID:       s.KoudenID,
		Name:           s.Name,
		Amount:         s.Amount,
		AttendanceType: s.AttendanceType,
		RelationshipID: s.RelationshipID,
		HasOffering:    s.HasOffering,
		Version:        1,
	}
	if s.Organization != "" {
		org := s.Organization
		m.Organization = &org
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func seedRelationship(t *testing.T, db *gorm.DB, koudenID uuid.UUID, name string) *models.RelationshipModel {
	t.Helper()
	now := time.Now().UTC()
	m := &models.RelationshipModel{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		KoudenID:  koudenID,
		Name:      name,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}
