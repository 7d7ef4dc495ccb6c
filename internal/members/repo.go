package members

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
)

// CounterUpdate mutates a member's shared counters. Deltas accumulate on top of
// the stored values; Set fields overwrite. Every successful update bumps the
// member's version, which is how concurrent writers detect each other.
type CounterUpdate struct {
	MonthlyExpenditureDeltaCents  int64
	LifetimeExpenditureDeltaCents int64
	XPDelta                       int
	QuestsCompletedDelta          int
	SetStreak                     *int
	SetLastStreakDate             *time.Time
	TouchExpenditureUpdate        bool
	Now                           time.Time
}

// Repository manages persistence for household members.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, member *models.HouseholdMember) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.HouseholdMember, error)
	GetByUserAndHousehold(ctx context.Context, userID, householdID uuid.UUID) (*models.HouseholdMember, error)
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.HouseholdMember, error)
	// UpdateCounters applies the update iff the member row still carries
	// expectedVersion. Returns false when another writer got there first.
	UpdateCounters(ctx context.Context, memberID uuid.UUID, expectedVersion int, upd CounterUpdate) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a member repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, member *models.HouseholdMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.HouseholdMember, error) {
	var member models.HouseholdMember
	err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) GetByUserAndHousehold(ctx context.Context, userID, householdID uuid.UUID) (*models.HouseholdMember, error) {
	var member models.HouseholdMember
	err := r.db.WithContext(ctx).
		First(&member, "user_id = ? AND household_id = ?", userID, householdID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.HouseholdMember, error) {
	var rows []models.HouseholdMember
	if err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateCounters(ctx context.Context, memberID uuid.UUID, expectedVersion int, upd CounterUpdate) (bool, error) {
	now := upd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	values := map[string]any{
		"version":    gorm.Expr("version + 1"),
		"updated_at": now,
	}
	if upd.MonthlyExpenditureDeltaCents != 0 {
		values["monthly_expenditure_cents"] = gorm.Expr("monthly_expenditure_cents + ?", upd.MonthlyExpenditureDeltaCents)
	}
	if upd.LifetimeExpenditureDeltaCents != 0 {
		values["lifetime_expenditure_cents"] = gorm.Expr("lifetime_expenditure_cents + ?", upd.LifetimeExpenditureDeltaCents)
	}
	if upd.XPDelta != 0 {
		values["xp"] = gorm.Expr("xp + ?", upd.XPDelta)
	}
	if upd.QuestsCompletedDelta != 0 {
		values["quests_completed"] = gorm.Expr("quests_completed + ?", upd.QuestsCompletedDelta)
	}
	if upd.SetStreak != nil {
		values["streak"] = *upd.SetStreak
	}
	if upd.SetLastStreakDate != nil {
		values["last_streak_date"] = *upd.SetLastStreakDate
	}
	if upd.TouchExpenditureUpdate {
		values["last_expenditure_update"] = now
	}

	result := r.db.WithContext(ctx).
		Model(&models.HouseholdMember{}).
		Where("id = ? AND version = ?", memberID, expectedVersion).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
