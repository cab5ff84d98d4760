package orders

import (
	"context"
	"time"

	"github.com/famiglia/ops-console/pkg/db/models"
	"github.com/famiglia/ops-console/pkg/enums"
	"gorm.io/gorm"
)

// MaxAbandonedCarts caps the cart-recovery list.
const MaxAbandonedCarts = 20

// Repository exposes read-only order queries for reporting.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountCreatedSince counts orders of every status created at or after since.
func (r *Repository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("created_at >= ?", since.UTC()).
		Count(&count).Error
	return count, err
}

// CountByStatusSince counts orders in status created at or after since.
func (r *Repository) CountByStatusSince(ctx context.Context, status enums.OrderStatus, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ? AND created_at >= ?", status, since.UTC()).
		Count(&count).Error
	return count, err
}

// StatusDistribution counts orders per non-empty status, ordered by status.
func (r *Repository) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
	rows := []StatusCount{}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("status IS NOT NULL AND status <> ''").
		Group("status").
		Order("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AbandonedCarts returns the newest cart orders with owner and products
// preloaded, valued at current prices.
func (r *Repository) AbandonedCarts(ctx context.Context, limit int) ([]CartSummary, error) {
	if limit <= 0 || limit > MaxAbandonedCarts {
		limit = MaxAbandonedCarts
	}

	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("LineItems.Product").
		Where("status = ?", enums.OrderStatusCart).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}

	out := make([]CartSummary, 0, len(list))
	for _, order := range list {
		out = append(out, SummarizeCart(order))
	}
	return out, nil
}

// RecentByUser returns a user's newest orders.
func (r *Repository) RecentByUser(ctx context.Context, userID int64, limit int) ([]OrderSummary, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toOrderSummaries(list), nil
}
