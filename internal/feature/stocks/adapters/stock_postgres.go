// Package adapters provides the repository implementations for the stocks feature.
package adapters

import (
	"context"

	"gorm.io/gorm"

	"stock_ingest/internal/feature/stocks/domain/entity"
)

// stockPostgres resolves tickers against the stock/market tables.
type stockPostgres struct {
	db *gorm.DB
}

// NewStockRepository creates a new stock repository on the given DB handle.
func NewStockRepository(db *gorm.DB) *stockPostgres {
	return &stockPostgres{db: db}
}

// ActiveTickers returns the ticker → stock_id mapping for every active
// instrument listed on the requested markets. Multiple market codes are
// unioned. An empty map is a valid result, not an error.
func (r *stockPostgres) ActiveTickers(ctx context.Context, marketCodes []string) (map[string]uint, error) {
	var rows []struct {
		Ticker  string
		StockID uint
	}

	err := r.db.WithContext(ctx).
		Model(&entity.Stock{}).
		Select("stock.ticker, stock.stock_id").
		Joins("JOIN market ON market.market_id = stock.market_id").
		Where("market.market_code IN ?", marketCodes).
		Where("stock.is_active = ?", true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]uint, len(rows))
	for _, row := range rows {
		out[row.Ticker] = row.StockID
	}
	return out, nil
}
