package members

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
)

// casAttempts bounds the optimistic retry loop on counter updates.
const casAttempts = 3

// Service defines the only write path for a member's shared counters
// (expenditure, XP, streak, quest count). Nothing else may mutate these fields.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Get(ctx context.Context, memberID uuid.UUID) (*models.HouseholdMember, error)
	// GetByUserAndHousehold returns nil without error when the user is not a
	// member of the household.
	GetByUserAndHousehold(ctx context.Context, userID, householdID uuid.UUID) (*models.HouseholdMember, error)
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.HouseholdMember, error)
	Create(ctx context.Context, member *models.HouseholdMember) error
	AddExpenditure(ctx context.Context, memberID uuid.UUID, deltaCents int64) error
	GrantXP(ctx context.Context, memberID uuid.UUID, xp int, countQuest bool) error
	TouchStreak(ctx context.Context, memberID uuid.UUID, at time.Time) (int, error)
}

type service struct {
	repo Repository
}

// NewService wires a member service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "member repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Get(ctx context.Context, memberID uuid.UUID) (*models.HouseholdMember, error) {
	member, err := s.repo.GetByID(ctx, memberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	if member == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	return member, nil
}

func (s *service) GetByUserAndHousehold(ctx context.Context, userID, householdID uuid.UUID) (*models.HouseholdMember, error) {
	member, err := s.repo.GetByUserAndHousehold(ctx, userID, householdID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member by user and household")
	}
	return member, nil
}

func (s *service) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.HouseholdMember, error) {
	rows, err := s.repo.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list household members")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, member *models.HouseholdMember) error {
	if err := s.repo.Create(ctx, member); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member")
	}
	return nil
}

// AddExpenditure adds the delta (which may be negative during re-assignment) to
// both the monthly and lifetime counters and stamps the expenditure update time.
func (s *service) AddExpenditure(ctx context.Context, memberID uuid.UUID, deltaCents int64) error {
	if deltaCents == 0 {
		return nil
	}
	return s.applyWithRetry(ctx, memberID, func(_ *models.HouseholdMember) CounterUpdate {
		return CounterUpdate{
			MonthlyExpenditureDeltaCents:  deltaCents,
			LifetimeExpenditureDeltaCents: deltaCents,
			TouchExpenditureUpdate:        true,
		}
	})
}

// GrantXP credits the reward and optionally counts a completed quest. Callers
// are responsible for the exactly-once guard; this only moves the counters.
func (s *service) GrantXP(ctx context.Context, memberID uuid.UUID, xp int, countQuest bool) error {
	if xp < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "xp must be non-negative")
	}
	questDelta := 0
	if countQuest {
		questDelta = 1
	}
	if xp == 0 && questDelta == 0 {
		return nil
	}
	return s.applyWithRetry(ctx, memberID, func(_ *models.HouseholdMember) CounterUpdate {
		return CounterUpdate{XPDelta: xp, QuestsCompletedDelta: questDelta}
	})
}

// TouchStreak advances the member's daily activity streak for the given moment:
// consecutive days extend it, a repeated day keeps it, a gap resets it to 1.
func (s *service) TouchStreak(ctx context.Context, memberID uuid.UUID, at time.Time) (int, error) {
	var newStreak int
	err := s.applyWithRetry(ctx, memberID, func(member *models.HouseholdMember) CounterUpdate {
		day := at.UTC().Truncate(24 * time.Hour)
		newStreak = 1
		if member.LastStreakDate != nil {
			last := member.LastStreakDate.UTC().Truncate(24 * time.Hour)
			switch {
			case last.Equal(day):
				newStreak = member.Streak
			case day.Sub(last) == 24*time.Hour:
				newStreak = member.Streak + 1
			}
		}
		streak := newStreak
		return CounterUpdate{SetStreak: &streak, SetLastStreakDate: &day}
	})
	if err != nil {
		return 0, err
	}
	return newStreak, nil
}

// applyWithRetry re-reads the member and retries the version-checked update a
// bounded number of times, satisfying the no-lost-update requirement without
// database-level row locks.
func (s *service) applyWithRetry(ctx context.Context, memberID uuid.UUID, build func(*models.HouseholdMember) CounterUpdate) error {
	for attempt := 0; attempt < casAttempts; attempt++ {
		member, err := s.repo.GetByID(ctx, memberID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
		}
		if member == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}

		ok, err := s.repo.UpdateCounters(ctx, memberID, member.Version, build(member))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member counters")
		}
		if ok {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "member counters changed concurrently")
}
