// Package adapters provides the persistence implementations for the prices feature.
package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_ingest/internal/feature/prices/domain/entity"
)

type pricePostgres struct {
	db *gorm.DB
}

// NewPriceRepository creates a new daily price repository on the given DB handle.
func NewPriceRepository(db *gorm.DB) *pricePostgres {
	return &pricePostgres{db: db}
}

// DailyPriceModel is the gorm mapping for the partitioned daily_price table.
// Composite primary key (stock_id, trade_date); the production table is
// partitioned by RANGE (trade_date), see PartitionRepository.
type DailyPriceModel struct {
	StockID   uint      `gorm:"column:stock_id;primaryKey"`
	TradeDate time.Time `gorm:"column:trade_date;primaryKey;type:date"`

	OpenPrice  float64 `gorm:"column:open_price;not null"`
	HighPrice  float64 `gorm:"column:high_price;not null"`
	LowPrice   float64 `gorm:"column:low_price;not null"`
	ClosePrice float64 `gorm:"column:close_price;not null"`
	Volume     int64   `gorm:"column:volume;not null;default:0"`

	TradingValue      *float64 `gorm:"column:trading_value"`
	AdjustedClose     *float64 `gorm:"column:adjusted_close"`
	ChangeRate        *float64 `gorm:"column:change_rate"`
	ChangeAmount      *float64 `gorm:"column:change_amount"`
	MarketCap         *float64 `gorm:"column:market_cap"`
	SharesOutstanding *int64   `gorm:"column:shares_outstanding"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for DailyPriceModel.
func (DailyPriceModel) TableName() string {
	return "daily_price"
}

// priceUpdateColumns are the columns refreshed on a key conflict.
// Keys and created_at are never touched; updated_at advances with the upsert.
var priceUpdateColumns = []string{
	"open_price", "high_price", "low_price", "close_price", "volume",
	"trading_value", "adjusted_close", "change_rate", "change_amount",
	"market_cap", "shares_outstanding", "updated_at",
}

func toModel(e entity.DailyPrice) DailyPriceModel {
	return DailyPriceModel{
		StockID:           e.StockID,
		TradeDate:         e.TradeDate,
		OpenPrice:         e.Open,
		HighPrice:         e.High,
		LowPrice:          e.Low,
		ClosePrice:        e.Close,
		Volume:            e.Volume,
		TradingValue:      e.TradingValue,
		AdjustedClose:     e.AdjustedClose,
		ChangeRate:        e.ChangeRate,
		ChangeAmount:      e.ChangeAmount,
		MarketCap:         e.MarketCap,
		SharesOutstanding: e.SharesOutstanding,
	}
}

// UpsertBatch inserts or updates the given records in a single statement
// keyed on (stock_id, trade_date). The whole batch applies atomically;
// on error nothing is written. Returns the number of records applied.
func (r *pricePostgres) UpsertBatch(ctx context.Context, prices []entity.DailyPrice) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	ms := make([]DailyPriceModel, 0, len(prices))
	for _, e := range prices {
		ms = append(ms, toModel(e))
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_id"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns(priceUpdateColumns),
	}).Create(&ms).Error
	if err != nil {
		return 0, err
	}
	return len(ms), nil
}
