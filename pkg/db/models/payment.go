package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the only source of revenue figures.
type Payment struct {
	ID      int64           `gorm:"column:id;primaryKey"`
	OrderID int64           `gorm:"column:order_id;not null"`
	Amount  decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	PaidAt  time.Time       `gorm:"column:paid_at;not null"`
}
