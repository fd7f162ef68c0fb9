package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stock_ingest/internal/feature/prices/domain/entity"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(&DailyPriceModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

func testPrice(stockID uint, date time.Time, close float64) entity.DailyPrice {
	tv := 1_000_000.0
	return entity.DailyPrice{
		StockID:      stockID,
		TradeDate:    date,
		Open:         100,
		High:         110,
		Low:          90,
		Close:        close,
		Volume:       1234,
		TradingValue: &tv,
	}
}

func TestPricePostgres_UpsertBatch_EmptyInput(t *testing.T) {
	t.Parallel()

	repo := NewPriceRepository(setupTestDB(t))

	n, err := repo.UpsertBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, n, "empty input must be a no-op")
}

func TestPricePostgres_UpsertBatch_Insert(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPriceRepository(db)
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	n, err := repo.UpsertBatch(context.Background(), []entity.DailyPrice{
		testPrice(1, date, 100),
		testPrice(1, date.AddDate(0, 0, 1), 101),
		testPrice(2, date, 200),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var count int64
	db.Model(&DailyPriceModel{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestPricePostgres_UpsertBatch_ConflictRefreshesRow(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPriceRepository(db)
	ctx := context.Background()
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.UpsertBatch(ctx, []entity.DailyPrice{testPrice(1, date, 100)})
	require.NoError(t, err)

	var first DailyPriceModel
	require.NoError(t, db.First(&first, "stock_id = ?", 1).Error)

	time.Sleep(20 * time.Millisecond)

	n, err := repo.UpsertBatch(ctx, []entity.DailyPrice{testPrice(1, date, 105)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Exactly one row, mutable columns refreshed
	var count int64
	db.Model(&DailyPriceModel{}).Count(&count)
	assert.Equal(t, int64(1), count, "conflict must not create a duplicate row")

	var got DailyPriceModel
	require.NoError(t, db.First(&got, "stock_id = ?", 1).Error)
	assert.Equal(t, 105.0, got.ClosePrice)
	assert.True(t, got.UpdatedAt.After(first.UpdatedAt), "updated_at must advance on conflict")
	assert.Equal(t, first.CreatedAt.Unix(), got.CreatedAt.Unix(), "created_at must never change on conflict")
}

func TestPricePostgres_UpsertBatch_Idempotent(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPriceRepository(db)
	ctx := context.Background()
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	batch := []entity.DailyPrice{
		testPrice(1, date, 100),
		testPrice(2, date, 200),
	}

	// Applying the identical batch twice yields the same rows and no
	// duplicate key violation.
	for i := 0; i < 2; i++ {
		n, err := repo.UpsertBatch(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	var count int64
	db.Model(&DailyPriceModel{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestPricePostgres_UpsertBatch_NilOptionalColumns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPriceRepository(db)
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	p := testPrice(1, date, 100)
	p.TradingValue = nil

	_, err := repo.UpsertBatch(context.Background(), []entity.DailyPrice{p})
	require.NoError(t, err)

	var got DailyPriceModel
	require.NoError(t, db.First(&got, "stock_id = ?", 1).Error)
	assert.Nil(t, got.TradingValue, "absent optional field must be stored as NULL")
	assert.Nil(t, got.MarketCap)
}
