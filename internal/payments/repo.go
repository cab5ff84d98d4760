package payments

import (
	"context"
	"time"

	"github.com/famiglia/ops-console/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Point is a single payment reduced to what revenue reports need.
type Point struct {
	Amount decimal.Decimal
	PaidAt time.Time
}

// Repository reads the payments table; it is the only source of revenue.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type sumRow struct {
	Total decimal.Decimal
}

// Total sums every payment ever recorded.
func (r *Repository) Total(ctx context.Context) (decimal.Decimal, error) {
	return r.sum(r.db.WithContext(ctx).Model(&models.Payment{}))
}

// TotalSince sums payments made at or after since.
func (r *Repository) TotalSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	return r.sum(r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("paid_at >= ?", since.UTC()))
}

func (r *Repository) sum(query *gorm.DB) (decimal.Decimal, error) {
	var row sumRow
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// PointsSince lists payments made at or after since, oldest first.
func (r *Repository) PointsSince(ctx context.Context, since time.Time) ([]Point, error) {
	var list []models.Payment
	err := r.db.WithContext(ctx).
		Where("paid_at >= ?", since.UTC()).
		Order("paid_at").
		Order("id").
		Find(&list).Error
	if err != nil {
		return nil, err
	}

	out := make([]Point, 0, len(list))
	for _, p := range list {
		out = append(out, Point{Amount: p.Amount, PaidAt: p.PaidAt})
	}
	return out, nil
}
