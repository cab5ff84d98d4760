package models

import (
	"time"

	"github.com/famiglia/ops-console/pkg/enums"
)

// User is a platform account; the console reads it and never writes it.
type User struct {
	ID           int64          `gorm:"column:id;primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
}
