package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/kouden/backend/internal/domain/shared"
	"github.com/kouden/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecordFor(t *testing.T, entry *models.GiftEntryModel, init kouden.InitialFields) *kouden.ReturnEntryRecord {
	t.Helper()
	record, err := kouden.NewReturnEntryRecord(entry.ToDomain(), uuid.New(), init)
	require.NoError(t, err)
	return record
}

func createRecordAt(t *testing.T, repo *GormReturnRecordRepository, entry *models.GiftEntryModel, status kouden.ReturnStatus, createdAt time.Time) *kouden.ReturnEntryRecord {
	t.Helper()
	record := newRecordFor(t, entry, kouden.InitialFields{ReturnStatus: status})
	record.CreatedAt = createdAt
	record.UpdatedAt = createdAt
	require.NoError(t, repo.Create(context.Background(), record))
	return record
}

func TestGormReturnRecordRepository_CreateAndFind(t *testing.T) {
	db := setupKoudenTestDB(t)
	repo := NewGormReturnRecordRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, entrySeed{KoudenID: uuid.New(), Name: "Tanaka Ichiro", Amount: 10000})
	record := newRecordFor(t, entry, kouden.InitialFields{
		FuneralGiftAmount: 2000,
		ReturnItems:       []kouden.ReturnItem{{Name: "Tea", UnitPrice: 1500, Quantity: 2}},
	})

	require.NoError(t, repo.Create(ctx, record))

	found, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, found.KoudenEntryID)
	assert.Equal(t, entry.KoudenID, found.KoudenID)
	assert.Equal(t, kouden.ReturnStatusPending, found.ReturnStatus)
	assert.Equal(t, int64(3000), found.ReturnItemsCost)
	require.Len(t, found.ReturnItems, 1)
	assert.Equal(t, "Tea", found.ReturnItems[0].Name)

	byEntry, err := repo.FindByEntryID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, byEntry.ID)

	t.Run("generated column is computed by the database", func(t *testing.T) {
		var m models.ReturnEntryRecordModel
		require.NoError(t, db.First(&m, "id = ?", record.ID).Error)
		assert.Equal(t, int64(5000), m.AdditionalReturnAmount)
		assert.Equal(t, found.AdditionalReturnAmount(), m.AdditionalReturnAmount)
	})
}

func TestGormReturnRecordRepository_CreateDuplicate(t *testing.T) {
	db := setupKoudenTestDB(t)
	repo := NewGormReturnRecordRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, entrySeed{KoudenID: uuid.New(), Name: "Suzuki", Amount: 5000})
	require.NoError(t, repo.Create(ctx, newRecordFor(t, entry, kouden.InitialFields{})))

	err := repo.Create(ctx, newRecordFor(t, entry, kouden.InitialFields{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrDuplicateRecord)
}

func TestGormReturnRecordRepository_FindNotFound(t *testing.T) {
	db := setupKoudenTestDB(t)
	repo := NewGormReturnRecordRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByEntryID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormReturnRecordRepository_UpdateColumns(t *testing.T) {
	db := setupKoudenTestDB(t)
	repo := NewGormReturnRecordRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, entrySeed{KoudenID: uuid.New(), Name: "Ito", Amount: 30000})
	record := newRecordFor(t, entry, kouden.InitialFields{})
	require.NoError(t, repo.Create(ctx, record))

	changes, err := kouden.NewFieldChanges(map[string]any{
		"returnStatus":      "COMPLETED",
		"funeralGiftAmount": float64(4000),
		"remarks":           "handed over at the door",
	})
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateColumns(ctx, record.ID, kouden.Columns(changes), at))

	var m models.ReturnEntryRecordModel
	require.NoError(t, db.First(&m, "id = ?", record.ID).Error)
	assert.Equal(t, "COMPLETED", m.ReturnStatus)
	assert.Equal(t, int64(4000), m.FuneralGiftAmount)
	assert.Equal(t, int64(4000), m.AdditionalReturnAmount)
	require.NotNil(t, m.Remarks)
	assert.Equal(t, "handed over at the door", *m.Remarks)
	assert.True(t, at.Equal(m.UpdatedAt))

	t.Run("unknown id", func(t *testing.T) {
		err := repo.UpdateColumns(ctx, uuid.New(), map[string]any{"remarks": "x"}, at)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormReturnRecordRepository_SaveItems(t *testing.T) {
	db := setupKoudenTestDB(t)
	repo := NewGormReturnRecordRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, entrySeed{KoudenID: uuid.New(), Name: "Kato", Amount: 20000})
	record := newRecordFor(t, entry, kouden.InitialFields{FuneralGiftAmount: 1000})
	require.NoError(t, repo.Create(ctx, record))

	require.NoError(t, record.ReplaceItems([]kouden.ReturnItem{
		{Name: "Catalog gift", UnitPrice: 3000, Quantity: 1},
		{Name: "Sugar", UnitPrice: 500, Quantity: 2},
	}))
	require.NoError(t, repo.SaveItems(ctx, record))

	found, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Len(t, found.ReturnItems, 2)
	assert.Equal(t, int64(4000), found.ReturnItemsCost)

	var m models.ReturnEntryRecordModel
	require.NoError(t, db.First(&m, "id = ?", record.ID).Error)
	assert.Equal(t, int64(5000), m.AdditionalReturnAmount)
}

func TestGormReturnRecordRepository_Delete(t *testing.T) {
	db := setupKoudenTestDB(t)
	repo := NewGormReturnRecordRepository(db)
	ctx := context.Background()

	ledgerA, ledgerB := uuid.New(), uuid.New()
	e1 := seedEntry(t, db, entrySeed{KoudenID: ledgerA, Name: "A1", Amount: 1})
	e2 := seedEntry(t, db, entrySeed{KoudenID: ledgerA, Name: "A2", Amount: 1})
	e3 := seedEntry(t, db, entrySeed{KoudenID: ledgerB, Name: "B1", Amount: 1})
	r1 := newRecordFor(t, e1, kouden.InitialFields{})
	r2 := newRecordFor(t, e2, kouden.InitialFields{})
	r3 := newRecordFor(t, e3, kouden.InitialFields{})
	for _, r := range []*kouden.ReturnEntryRecord{r1, r2, r3} {
		require.NoError(t, repo.Create(ctx, r))
	}

	t.Run("by entry id", func(t *testing.T) {
		deleted, err := repo.DeleteByEntryID(ctx, e1.ID)
		require.NoError(t, err)
		require.Len(t, deleted, 1)
		assert.Equal(t, r1.ID, deleted[0].ID)
		assert.Equal(t, ledgerA, deleted[0].KoudenID)

		again, err := repo.DeleteByEntryID(ctx, e1.ID)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("many across ledgers, unknown ids ignored", func(t *testing.T) {
		deleted, err := repo.DeleteByIDs(ctx, []uuid.UUID{r2.ID, r3.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, deleted, 2)

		ledgers := map[uuid.UUID]bool{}
		for _, d := range deleted {
			ledgers[d.KoudenID] = true
		}
		assert.True(t, ledgers[ledgerA])
		assert.True(t, ledgers[ledgerB])

		var count int64
		require.NoError(t, db.Model(&models.ReturnEntryRecordModel{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("zero ids is a no-op", func(t *testing.T) {
		deleted, err := repo.DeleteByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, deleted)
	})
}

func TestGormReturnRecordRepository_FindMatchingIDs(t *testing.T) {
	db := setupKoudenTestDB(t)
	repo := NewGormReturnRecordRepository(db)
	ctx := context.Background()
	ledger := uuid.New()

	relA := seedRelationship(t, db, ledger, "Colleague")
	relB := seedRelationship(t, db, ledger, "Relative")

	e1 := seedEntry(t, db, entrySeed{KoudenID: ledger, Name: "R1", Amount: 5000, RelationshipID: &relA.ID})
	e2 := seedEntry(t, db, entrySeed{KoudenID: ledger, Name: "R2", Amount: 50000, RelationshipID: &relB.ID, AttendanceType: "ABSENT", HasOffering: true})
	e3 := seedEntry(t, db, entrySeed{KoudenID: ledger, Name: "R3", Amount: 8000, AttendanceType: "CONDOLENCE_VISIT"})
	other := seedEntry(t, db, entrySeed{KoudenID: uuid.New(), Name: "Elsewhere", Amount: 5000, RelationshipID: &relA.ID})

	now := time.Now().UTC()
	r1 := createRecordAt(t, repo, e1, kouden.ReturnStatusPending, now)
	r2 := createRecordAt(t, repo, e2, kouden.ReturnStatusCompleted, now)
	r3 := createRecordAt(t, repo, e3, kouden.ReturnStatusPartialReturned, now)
	createRecordAt(t, repo, other, kouden.ReturnStatusPending, now)

	maxAmount := int64(10000)
	minAmount := int64(6000)
	yes := true

	tests := []struct {
		name   string
		filter kouden.BulkFilter
		want   []uuid.UUID
	}{
		{"no filter matches whole ledger", kouden.BulkFilter{}, []uuid.UUID{r1.ID, r2.ID, r3.ID}},
		{"amount max and status conjunction", kouden.BulkFilter{
			AmountRange:     &kouden.AmountRange{Max: &maxAmount},
			CurrentStatuses: []kouden.ReturnStatus{kouden.ReturnStatusPending},
		}, []uuid.UUID{r1.ID}},
		{"amount range", kouden.BulkFilter{AmountRange: &kouden.AmountRange{Min: &minAmount, Max: &maxAmount}}, []uuid.UUID{r3.ID}},
		{"relationship", kouden.BulkFilter{RelationshipIDs: []uuid.UUID{relB.ID}}, []uuid.UUID{r2.ID}},
		{"attendance", kouden.BulkFilter{AttendanceTypes: []kouden.AttendanceType{kouden.AttendanceCondolenceVisit, kouden.AttendanceAbsent}}, []uuid.UUID{r2.ID, r3.ID}},
		{"offering", kouden.BulkFilter{HasOffering: &yes}, []uuid.UUID{r2.ID}},
		{"nothing", kouden.BulkFilter{CurrentStatuses: []kouden.ReturnStatus{kouden.ReturnStatusNotRequired}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := repo.FindMatchingIDs(ctx, ledger, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestGormReturnRecordRepository_BulkUpdateColumns(t *testing.T) {
	db := setupKoudenTestDB(t)
	repo := NewGormReturnRecordRepository(db)
	ctx := context.Background()
	ledger := uuid.New()

	e1 := seedEntry(t, db, entrySeed{KoudenID: ledger, Name: "R1", Amount: 5000})
	e2 := seedEntry(t, db, entrySeed{KoudenID: ledger, Name: "R2", Amount: 50000})
	now := time.Now().UTC()
	r1 := createRecordAt(t, repo, e1, kouden.ReturnStatusPending, now)
	r2 := createRecordAt(t, repo, e2, kouden.ReturnStatusCompleted, now)

	status := kouden.ReturnStatusCompleted
	method := "courier"
	at := now.Add(time.Hour)
	n, err := repo.BulkUpdateColumns(ctx, []uuid.UUID{r1.ID}, kouden.BulkUpdates{Status: &status, ReturnMethod: &method}.Columns(), at)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	updated, err := repo.FindByID(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, kouden.ReturnStatusCompleted, updated.ReturnStatus)
	assert.Equal(t, "courier", *updated.ReturnMethod)
	assert.True(t, at.Equal(updated.UpdatedAt))

	untouched, err := repo.FindByID(ctx, r2.ID)
	require.NoError(t, err)
	assert.Nil(t, untouched.ReturnMethod)

	t.Run("empty id list writes nothing", func(t *testing.T) {
		n, err := repo.BulkUpdateColumns(ctx, nil, map[string]any{"remarks": "x"}, at)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("failing write rolls back every chunk", func(t *testing.T) {
		ids := make([]uuid.UUID, 0, bulkWriteChunkSize+1)
		ids = append(ids, r1.ID)
		for len(ids) < bulkWriteChunkSize+1 {
			ids = append(ids, uuid.New())
		}
		ids = append(ids, r2.ID)

		// the trigger fails writes to r2, which lands in the second chunk
		require.NoError(t, db.Exec(`CREATE TRIGGER reject_r2 BEFORE UPDATE ON return_entry_records
			WHEN OLD.id = '`+r2.ID.String()+`'
			BEGIN SELECT RAISE(ABORT, 'rejected'); END`).Error)
		t.Cleanup(func() { db.Exec(`DROP TRIGGER IF EXISTS reject_r2`) })

		remarks := "should not persist"
		_, err := repo.BulkUpdateColumns(ctx, ids, kouden.BulkUpdates{Remarks: &remarks}.Columns(), at)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrPersistenceFailure)

		first, err := repo.FindByID(ctx, r1.ID)
		require.NoError(t, err)
		assert.Nil(t, first.Remarks)
	})
}

func TestGormReturnRecordRepository_FindPage(t *testing.T) {
	db := setupKoudenTestDB(t)
	repo := NewGormReturnRecordRepository(db)
	ctx := context.Background()
	ledger := uuid.New()

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	names := []string{"Sato", "Suzuki", "Takahashi", "Watanabe", "Yamamoto"}
	records := make([]*kouden.ReturnEntryRecord, len(names))
	// insert in shuffled order; created_at decides the page order
	for _, i := range []int{3, 0, 4, 1, 2} {
		e := seedEntry(t, db, entrySeed{KoudenID: ledger, Name: names[i], Organization: "Org " + names[i], Amount: 1000})
		status := kouden.ReturnStatusPending
		if i%2 == 0 {
			status = kouden.ReturnStatusCompleted
		}
		records[i] = createRecordAt(t, repo, e, status, base.Add(time.Duration(i)*time.Minute))
	}

	t.Run("pages are disjoint and ordered newest first", func(t *testing.T) {
		var seen []uuid.UUID
		var cursor *kouden.PageCursor
		for {
			rows, err := repo.FindPage(ctx, ledger, 2, cursor, kouden.PageFilter{})
			require.NoError(t, err)
			page := shared.NewCursorPage(rows, 2, kouden.CursorOf)
			for _, r := range page.Items {
				seen = append(seen, r.ID)
			}
			if !page.HasMore {
				break
			}
			cursor, err = kouden.DecodePageCursor(page.NextCursor)
			require.NoError(t, err)
		}

		want := []uuid.UUID{records[4].ID, records[3].ID, records[2].ID, records[1].ID, records[0].ID}
		assert.Equal(t, want, seen)
	})

	t.Run("identical timestamps are split by id", func(t *testing.T) {
		tieLedger := uuid.New()
		ts := base.Add(24 * time.Hour)
		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			e := seedEntry(t, db, entrySeed{KoudenID: tieLedger, Name: "Tie", Amount: 1})
			ids = append(ids, createRecordAt(t, repo, e, kouden.ReturnStatusPending, ts).ID)
		}

		first, err := repo.FindPage(ctx, tieLedger, 2, nil, kouden.PageFilter{})
		require.NoError(t, err)
		page := shared.NewCursorPage(first, 2, kouden.CursorOf)
		require.True(t, page.HasMore)

		cursor, err := kouden.DecodePageCursor(page.NextCursor)
		require.NoError(t, err)
		second, err := repo.FindPage(ctx, tieLedger, 2, cursor, kouden.PageFilter{})
		require.NoError(t, err)
		require.Len(t, second, 1)

		got := []uuid.UUID{page.Items[0].ID, page.Items[1].ID, second[0].ID}
		assert.ElementsMatch(t, ids, got)
	})

	t.Run("search is case-insensitive over name and organization", func(t *testing.T) {
		rows, err := repo.FindPage(ctx, ledger, 10, nil, kouden.PageFilter{Search: "SUZU"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, records[1].ID, rows[0].ID)

		rows, err = repo.FindPage(ctx, ledger, 10, nil, kouden.PageFilter{Search: "org wata"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, records[3].ID, rows[0].ID)
	})

	t.Run("full-width search term", func(t *testing.T) {
		rows, err := repo.FindPage(ctx, ledger, 10, nil, kouden.PageFilter{Search: "ＳＡＴＯ"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, records[0].ID, rows[0].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		status := kouden.ReturnStatusCompleted
		rows, err := repo.FindPage(ctx, ledger, 10, nil, kouden.PageFilter{Status: &status})
		require.NoError(t, err)
		assert.Len(t, rows, 3)
		for _, r := range rows {
			assert.Equal(t, kouden.ReturnStatusCompleted, r.ReturnStatus)
		}
	})

	t.Run("like wildcards are literal", func(t *testing.T) {
		rows, err := repo.FindPage(ctx, ledger, 10, nil, kouden.PageFilter{Search: "%"})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestGormReturnRecordRepository_FindByLedger(t *testing.T) {
	db := setupKoudenTestDB(t)
	repo := NewGormReturnRecordRepository(db)
	ledger := uuid.New()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	older := createRecordAt(t, repo, seedEntry(t, db, entrySeed{KoudenID: ledger, Name: "old", Amount: 1}), kouden.ReturnStatusPending, base)
	newer := createRecordAt(t, repo, seedEntry(t, db, entrySeed{KoudenID: ledger, Name: "new", Amount: 1}), kouden.ReturnStatusPending, base.Add(time.Hour))

	records, err := repo.FindByLedger(context.Background(), ledger)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, older.ID, records[1].ID)
}

var _ kouden.ReturnRecordRepository = (*GormReturnRecordRepository)(nil)
