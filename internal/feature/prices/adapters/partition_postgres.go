package adapters

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// partitionPostgres creates the monthly range partitions of daily_price.
type partitionPostgres struct {
	db *gorm.DB
}

// NewPartitionRepository creates a new partition repository on the given DB handle.
func NewPartitionRepository(db *gorm.DB) *partitionPostgres {
	return &partitionPostgres{db: db}
}

// monthRange is one calendar-month partition window, [Start, Next).
type monthRange struct {
	Start time.Time // first day of the month, inclusive
	Next  time.Time // first day of the following month, exclusive
}

// name returns the canonical partition name, daily_price_YYYY_MM.
func (m monthRange) name() string {
	return fmt.Sprintf("daily_price_%04d_%02d", m.Start.Year(), int(m.Start.Month()))
}

func monthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthRanges decomposes [start, end] into the consecutive calendar-month
// windows that cover it. Both boundary months are included; a window
// inside a single month yields exactly one range.
func monthRanges(start, end time.Time) []monthRange {
	var out []monthRange

	cur := monthStart(start)
	limit := monthStart(end).AddDate(0, 1, 0)
	for cur.Before(limit) {
		next := cur.AddDate(0, 1, 0)
		out = append(out, monthRange{Start: cur, Next: next})
		cur = next
	}
	return out
}

// EnsurePartitions makes sure every monthly partition touched by
// [start, end] exists, together with its two supporting indexes.
// Everything is IF NOT EXISTS, so repeated and concurrent calls are safe
// without locking. Returns the number of month ranges processed,
// counting already-existing partitions the same as created ones.
func (r *partitionPostgres) EnsurePartitions(ctx context.Context, start, end time.Time) (int, error) {
	processed := 0

	for _, m := range monthRanges(start, end) {
		name := m.name()

		createSQL := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s PARTITION OF daily_price FOR VALUES FROM ('%s') TO ('%s')`,
			name, m.Start.Format("2006-01-02"), m.Next.Format("2006-01-02"),
		)
		if err := r.db.WithContext(ctx).Exec(createSQL).Error; err != nil {
			return processed, fmt.Errorf("create partition %s: %w", name, err)
		}

		idxStockDate := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_sid_date ON %s (stock_id, trade_date DESC)`,
			name, name,
		)
		if err := r.db.WithContext(ctx).Exec(idxStockDate).Error; err != nil {
			return processed, fmt.Errorf("create index on %s: %w", name, err)
		}

		idxDate := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_date ON %s (trade_date DESC)`,
			name, name,
		)
		if err := r.db.WithContext(ctx).Exec(idxDate).Error; err != nil {
			return processed, fmt.Errorf("create index on %s: %w", name, err)
		}

		processed++
	}

	return processed, nil
}
