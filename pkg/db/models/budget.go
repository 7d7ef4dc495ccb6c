package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// Budget caps one expense category for one calendar month in a household.
type Budget struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID uuid.UUID             `gorm:"column:household_id;type:uuid;not null;uniqueIndex:budgets_household_category_month_key,priority:1"`
	Category    enums.ExpenseCategory `gorm:"column:category;type:expense_category;not null;uniqueIndex:budgets_household_category_month_key,priority:2"`
	Month       string                `gorm:"column:month;not null;uniqueIndex:budgets_household_category_month_key,priority:3"` // YYYY-MM
	LimitCents  int64                 `gorm:"column:limit_cents;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
