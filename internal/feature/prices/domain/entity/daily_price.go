// Package entity defines the domain models for the prices feature.
package entity

import "time"

// DailyPrice represents one day of OHLCV data for a stock.
// Optional figures the broker did not deliver are nil, never zero.
// The natural key is (StockID, TradeDate).
type DailyPrice struct {
	StockID   uint      // surrogate key from the stock table
	TradeDate time.Time // trade date, midnight UTC

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64

	TradingValue      *float64 // total traded value
	AdjustedClose     *float64
	ChangeRate        *float64 // prior-day change in percent
	ChangeAmount      *float64 // prior-day change amount
	MarketCap         *float64
	SharesOutstanding *int64
}
