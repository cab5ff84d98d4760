package models

// OrderLineItem links an order to a product with a quantity.
type OrderLineItem struct {
	ID        int64    `gorm:"column:id;primaryKey"`
	OrderID   int64    `gorm:"column:order_id;not null"`
	ProductID *int64   `gorm:"column:product_id"`
	Quantity  int      `gorm:"column:quantity;not null"`
	Product   *Product `gorm:"foreignKey:ProductID"`
}
