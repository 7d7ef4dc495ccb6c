package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// ReceiptItem is one parsed or hand-entered line on a receipt. TotalCents is
// authoritative; UnitPriceCents is advisory because OCR noise means
// unit price x quantity does not always reproduce the line total.
type ReceiptItem struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReceiptID      uuid.UUID        `gorm:"column:receipt_id;type:uuid;not null;index"`
	Name           string           `gorm:"column:name;not null"`
	Quantity       int              `gorm:"column:quantity;not null;default:1"`
	UnitPriceCents *int64           `gorm:"column:unit_price_cents"`
	TotalCents     int64            `gorm:"column:total_cents;not null"`
	LineNumber     int              `gorm:"column:line_number;not null"`
	Source         enums.ItemSource `gorm:"column:source;type:item_source;not null;default:'manual'"`
	OCRConfidence  *float64         `gorm:"column:ocr_confidence"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
