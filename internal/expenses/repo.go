package expenses

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
	"github.com/hearthapp/hearthledger-backend/pkg/pagination"
)

// Repository manages persistence for directly logged expenses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, expense *models.Expense) error
	ListByHousehold(ctx context.Context, householdID uuid.UUID, params pagination.Params) ([]models.Expense, error)
	// SumByCategoryInRange totals the household's spend for one category across
	// [from, to). Used by the budget spent view.
	SumByCategoryInRange(ctx context.Context, householdID uuid.UUID, category enums.ExpenseCategory, from, to time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an expense repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *repository) ListByHousehold(ctx context.Context, householdID uuid.UUID, params pagination.Params) ([]models.Expense, error) {
	query := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("occurred_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(occurred_at < ?) OR (occurred_at = ? AND id < ?)",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.Expense
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SumByCategoryInRange(ctx context.Context, householdID uuid.UUID, category enums.ExpenseCategory, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Expense{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("household_id = ? AND category = ? AND occurred_at >= ? AND occurred_at < ?",
			householdID, category, from, to).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
