package households

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
)

// Repository manages persistence for households and their budgets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, household *models.Household) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Household, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Household, error)

	UpsertBudget(ctx context.Context, budget *models.Budget) error
	ListBudgets(ctx context.Context, householdID uuid.UUID, month string) ([]models.Budget, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a household repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, household *models.Household) error {
	return r.db.WithContext(ctx).Create(household).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Household, error) {
	var household models.Household
	err := r.db.WithContext(ctx).First(&household, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &household, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Household, error) {
	var rows []models.Household
	err := r.db.WithContext(ctx).
		Joins("JOIN household_members ON household_members.household_id = households.id").
		Where("household_members.user_id = ?", userID).
		Order("households.created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpsertBudget(ctx context.Context, budget *models.Budget) error {
	var existing models.Budget
	err := r.db.WithContext(ctx).
		First(&existing, "household_id = ? AND category = ? AND month = ?",
			budget.HouseholdID, budget.Category, budget.Month).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(budget).Error
	}
	if err != nil {
		return err
	}

	existing.LimitCents = budget.LimitCents
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return err
	}
	*budget = existing
	return nil
}

func (r *repository) ListBudgets(ctx context.Context, householdID uuid.UUID, month string) ([]models.Budget, error) {
	query := r.db.WithContext(ctx).Where("household_id = ?", householdID)
	if month != "" {
		query = query.Where("month = ?", month)
	}

	var rows []models.Budget
	if err := query.Order("month DESC, category ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
