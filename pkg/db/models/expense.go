package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// Expense is a directly logged spend (no receipt attached).
type Expense struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID uuid.UUID             `gorm:"column:household_id;type:uuid;not null;index"`
	MemberID    uuid.UUID             `gorm:"column:member_id;type:uuid;not null;index"`
	Category    enums.ExpenseCategory `gorm:"column:category;type:expense_category;not null"`
	AmountCents int64                 `gorm:"column:amount_cents;not null"`
	Note        *string               `gorm:"column:note"`
	OccurredAt  time.Time             `gorm:"column:occurred_at;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
