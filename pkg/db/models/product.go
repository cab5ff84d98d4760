package models

import "github.com/shopspring/decimal"

// Product is a catalog entry; Price is the current list price.
type Product struct {
	ID    int64           `gorm:"column:id;primaryKey"`
	Name  string          `gorm:"column:name;not null"`
	Price decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}
