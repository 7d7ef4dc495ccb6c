package receipts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
)

// Repository manages persistence for receipts, their line items, and the
// per-member allocation rows derived from them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateReceipt(ctx context.Context, receipt *models.Receipt) error
	GetReceipt(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	UpdateReceipt(ctx context.Context, receipt *models.Receipt) error
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.Receipt, error)

	CreateItem(ctx context.Context, item *models.ReceiptItem) error
	ListItems(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptItem, error)
	NextLineNumber(ctx context.Context, receiptID uuid.UUID) (int, error)

	// ReplaceItemAssignments drops every allocation row for the item and inserts
	// the new set in one shot. Partial updates of existing rows are never done.
	ReplaceItemAssignments(ctx context.Context, itemID uuid.UUID, rows []models.ReceiptItemAssignment) error
	ListAssignments(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptItemAssignment, error)
	// AssignedTotalsByMember sums the stored allocation totals for the receipt,
	// keyed by member. Used to compute expenditure deltas on re-assignment.
	AssignedTotalsByMember(ctx context.Context, receiptID uuid.UUID) (map[uuid.UUID]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a receipt repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *repository) GetReceipt(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).First(&receipt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *repository) UpdateReceipt(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Save(receipt).Error
}

func (r *repository) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.Receipt, error) {
	var rows []models.Receipt
	if err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.ReceiptItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) ListItems(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptItem, error) {
	var rows []models.ReceiptItem
	if err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("line_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) NextLineNumber(ctx context.Context, receiptID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.ReceiptItem{}).
		Where("receipt_id = ?", receiptID).
		Select("COALESCE(MAX(line_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *repository) ReplaceItemAssignments(ctx context.Context, itemID uuid.UUID, rows []models.ReceiptItemAssignment) error {
	if err := r.db.WithContext(ctx).
		Where("receipt_item_id = ?", itemID).
		Delete(&models.ReceiptItemAssignment{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) ListAssignments(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptItemAssignment, error) {
	var rows []models.ReceiptItemAssignment
	if err := r.db.WithContext(ctx).
		Joins("JOIN receipt_items ON receipt_items.id = receipt_item_assignments.receipt_item_id").
		Where("receipt_items.receipt_id = ?", receiptID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) AssignedTotalsByMember(ctx context.Context, receiptID uuid.UUID) (map[uuid.UUID]int64, error) {
	type row struct {
		MemberID uuid.UUID
		Total    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.ReceiptItemAssignment{}).
		Select("receipt_item_assignments.member_id AS member_id, SUM(receipt_item_assignments.total_cents) AS total").
		Joins("JOIN receipt_items ON receipt_items.id = receipt_item_assignments.receipt_item_id").
		Where("receipt_items.receipt_id = ?", receiptID).
		Group("receipt_item_assignments.member_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		totals[r.MemberID] = r.Total
	}
	return totals, nil
}
