package adapters

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthRanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  []monthRange
	}{
		{
			name:  "window inside one month yields one range",
			start: date(2025, 8, 13),
			end:   date(2025, 8, 20),
			want: []monthRange{
				{Start: date(2025, 8, 1), Next: date(2025, 9, 1)},
			},
		},
		{
			name:  "window spanning a month boundary yields both months",
			start: date(2025, 8, 13),
			end:   date(2025, 9, 30),
			want: []monthRange{
				{Start: date(2025, 8, 1), Next: date(2025, 9, 1)},
				{Start: date(2025, 9, 1), Next: date(2025, 10, 1)},
			},
		},
		{
			name:  "year boundary",
			start: date(2024, 12, 20),
			end:   date(2025, 1, 5),
			want: []monthRange{
				{Start: date(2024, 12, 1), Next: date(2025, 1, 1)},
				{Start: date(2025, 1, 1), Next: date(2025, 2, 1)},
			},
		},
		{
			name:  "single day",
			start: date(2025, 2, 14),
			end:   date(2025, 2, 14),
			want: []monthRange{
				{Start: date(2025, 2, 1), Next: date(2025, 3, 1)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := monthRanges(tt.start, tt.end)

			assert.Equal(t, tt.want, got)

			// Coverage: consecutive ranges, no gaps or overlaps
			for i := 1; i < len(got); i++ {
				assert.Equal(t, got[i-1].Next, got[i].Start, "ranges must be contiguous")
			}
		})
	}
}

func TestMonthRange_Name(t *testing.T) {
	t.Parallel()

	m := monthRange{Start: date(2025, 8, 1), Next: date(2025, 9, 1)}
	assert.Equal(t, "daily_price_2025_08", m.name())

	m = monthRange{Start: date(2025, 12, 1), Next: date(2026, 1, 1)}
	assert.Equal(t, "daily_price_2025_12", m.name())
}

// setupMockDB prepares a gorm handle backed by sqlmock; the partition DDL
// is Postgres-only, so it cannot run against the SQLite test database.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "failed to create sqlmock")
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gpostgres.New(gpostgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err, "failed to open gorm over sqlmock")

	return db, mock
}

// expectPartitionDDL registers the three statements issued per month range.
func expectPartitionDDL(mock sqlmock.Sqlmock, name, from, to string) {
	mock.ExpectExec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s PARTITION OF daily_price FOR VALUES FROM \('%s'\) TO \('%s'\)`,
		name, from, to,
	)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%s_sid_date ON %s \(stock_id, trade_date DESC\)`,
		name, name,
	)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%s_date ON %s \(trade_date DESC\)`,
		name, name,
	)).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestPartitionPostgres_EnsurePartitions(t *testing.T) {
	t.Parallel()

	db, mock := setupMockDB(t)
	repo := NewPartitionRepository(db)

	expectPartitionDDL(mock, "daily_price_2025_08", "2025-08-01", "2025-09-01")
	expectPartitionDDL(mock, "daily_price_2025_09", "2025-09-01", "2025-10-01")

	n, err := repo.EnsurePartitions(context.Background(), date(2025, 8, 13), date(2025, 9, 30))

	require.NoError(t, err)
	assert.Equal(t, 2, n, "one range per calendar month touched")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPartitionPostgres_EnsurePartitions_DDLError(t *testing.T) {
	t.Parallel()

	db, mock := setupMockDB(t)
	repo := NewPartitionRepository(db)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS daily_price_2025_08`).
		WillReturnError(fmt.Errorf("permission denied"))

	_, err := repo.EnsurePartitions(context.Background(), date(2025, 8, 1), date(2025, 8, 31))

	require.Error(t, err, "a failed partition creation must propagate")
	assert.Contains(t, err.Error(), "daily_price_2025_08")
}
