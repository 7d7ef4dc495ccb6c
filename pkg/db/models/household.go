package models

import (
	"time"

	"github.com/google/uuid"
)

// Household is the root aggregate for budgets, receipts, and expenses. Access
// control checks are scoped to the household boundary.
type Household struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Currency    string    `gorm:"column:currency;not null;default:'SGD'"`
	OwnerUserID uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
