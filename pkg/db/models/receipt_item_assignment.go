package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptItemAssignment attributes a share of one receipt item to one household
// member. All monetary columns are derived by the apportionment engine, never
// user supplied. Rows are replaced wholesale on re-assignment.
type ReceiptItemAssignment struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReceiptItemID uuid.UUID       `gorm:"column:receipt_item_id;type:uuid;not null;index"`
	MemberID      uuid.UUID       `gorm:"column:member_id;type:uuid;not null;index"`
	AssignedQty   decimal.Decimal `gorm:"column:assigned_qty;type:numeric(12,4);not null;default:1"`

	BaseCents          int64 `gorm:"column:base_cents;not null"`
	ServiceChargeCents int64 `gorm:"column:service_charge_cents;not null;default:0"`
	TaxCents           int64 `gorm:"column:tax_cents;not null;default:0"`
	TotalCents         int64 `gorm:"column:total_cents;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
