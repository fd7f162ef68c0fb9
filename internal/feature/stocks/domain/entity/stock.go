// Package entity defines the domain models for the stocks feature.
package entity

import "time"

// Market represents an exchange market (e.g. KOSPI, KOSDAQ).
type Market struct {
	MarketID   uint   `gorm:"primaryKey"`
	MarketCode string `gorm:"size:20;not null;uniqueIndex"`
	MarketName string `gorm:"size:100;not null"`
}

// TableName returns the table name for Market.
func (Market) TableName() string {
	return "market"
}

// Stock represents a tradable instrument listed on a market.
// StockID is the surrogate key the storage layer uses in place of the
// exchange-assigned ticker string.
type Stock struct {
	StockID   uint   `gorm:"primaryKey"`
	Ticker    string `gorm:"size:20;not null;index;uniqueIndex:uq_stock_ticker_market,priority:1"`
	MarketID  uint   `gorm:"not null;index;uniqueIndex:uq_stock_ticker_market,priority:2"`
	StockName string `gorm:"size:200;not null"`

	ListingDate   *time.Time `gorm:"type:date"`
	ListingShares *int64

	IsActive      bool       `gorm:"not null;default:true"` // tradable flag
	DelistingDate *time.Time `gorm:"type:date"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for Stock.
func (Stock) TableName() string {
	return "stock"
}
