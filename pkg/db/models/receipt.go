package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// Receipt owns its items (cascade delete at the storage layer).
type Receipt struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID      uuid.UUID           `gorm:"column:household_id;type:uuid;not null;index"`
	UploadedByUserID uuid.UUID           `gorm:"column:uploaded_by_user_id;type:uuid;not null"`
	Merchant         *string             `gorm:"column:merchant"`
	Status           enums.ReceiptStatus `gorm:"column:status;type:receipt_status;not null;default:'draft'"`
	TotalCents       int64               `gorm:"column:total_cents;not null;default:0"`
	PurchasedAt      *time.Time          `gorm:"column:purchased_at"`
	ConfirmedAt      *time.Time          `gorm:"column:confirmed_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
