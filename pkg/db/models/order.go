package models

import (
	"time"

	"github.com/famiglia/ops-console/pkg/enums"
)

// Order is a customer order; status "cart" marks an unpurchased cart.
type Order struct {
	ID        int64             `gorm:"column:id;primaryKey"`
	UserID    *int64            `gorm:"column:user_id"`
	Status    enums.OrderStatus `gorm:"column:status;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;not null"`
	User      *User             `gorm:"foreignKey:UserID"`
	LineItems []OrderLineItem   `gorm:"foreignKey:OrderID"`
}
