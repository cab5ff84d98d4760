package orders

import (
	"fmt"
	"time"

	"github.com/famiglia/ops-console/pkg/db/models"
	"github.com/famiglia/ops-console/pkg/enums"
	"github.com/shopspring/decimal"
)

const anonymousCustomer = "Anonymous"

// StatusCount is one slice of the order status distribution.
type StatusCount struct {
	Status enums.OrderStatus `json:"status"`
	Count  int64             `json:"count"`
}

// CartLine is one product inside an abandoned cart.
type CartLine struct {
	ProductID   *int64          `json:"productId,omitempty"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// CartSummary is an unpurchased cart valued at current product prices.
type CartSummary struct {
	OrderID       int64           `json:"orderId"`
	CreatedAt     time.Time       `json:"createdAt"`
	UserID        *int64          `json:"userId,omitempty"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
	Anonymous     bool            `json:"anonymous"`
	UserLink      string          `json:"userLink,omitempty"`
	TotalItems    int             `json:"totalItems"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	Lines         []CartLine      `json:"lines"`
}

// OrderSummary is the compact order row of a user's detail page.
type OrderSummary struct {
	ID        int64             `json:"id"`
	Status    enums.OrderStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

// UserLink is the console path of a user's detail page.
func UserLink(userID int64) string {
	return fmt.Sprintf("/dashboard/users/%d", userID)
}

// SummarizeCart totals a preloaded cart order. Items whose product is gone
// count toward TotalItems but add nothing to TotalValue.
func SummarizeCart(order models.Order) CartSummary {
	summary := CartSummary{
		OrderID:      order.ID,
		CreatedAt:    order.CreatedAt,
		CustomerName: anonymousCustomer,
		Anonymous:    true,
		TotalValue:   decimal.Zero,
		Lines:        make([]CartLine, 0, len(order.LineItems)),
	}

	if order.User != nil {
		summary.UserID = &order.User.ID
		summary.CustomerName = order.User.Name
		summary.CustomerEmail = order.User.Email
		summary.Anonymous = false
		summary.UserLink = UserLink(order.User.ID)
	}

	for _, item := range order.LineItems {
		line := CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: decimal.Zero,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.UnitPrice = item.Product.Price
		}
		line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		summary.TotalItems += item.Quantity
		summary.TotalValue = summary.TotalValue.Add(line.LineTotal)
		summary.Lines = append(summary.Lines, line)
	}
	return summary
}

func toOrderSummaries(list []models.Order) []OrderSummary {
	out := make([]OrderSummary, 0, len(list))
	for _, order := range list {
		out = append(out, OrderSummary{ID: order.ID, Status: order.Status, CreatedAt: order.CreatedAt})
	}
	return out
}
