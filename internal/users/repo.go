package users

import (
	"context"
	"strconv"

	"github.com/famiglia/ops-console/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes read-only user queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListRecent returns the newest users by id.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.User, error) {
	var list []models.User
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListIDs returns every user id, formatted the way the audit log stores them.
func (r *Repository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out, nil
}
