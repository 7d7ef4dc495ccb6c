package households

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/internal/expenses"
	"github.com/hearthapp/hearthledger-backend/internal/members"
	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
	"github.com/hearthapp/hearthledger-backend/pkg/logger"
)

// TxRunner runs fn inside a single database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput starts a new household. The owner automatically becomes its first
// member with the parent role.
type CreateInput struct {
	Name        string
	Currency    string
	OwnerUserID uuid.UUID
}

// SetBudgetInput caps one category for one calendar month.
type SetBudgetInput struct {
	HouseholdID uuid.UUID
	Category    enums.ExpenseCategory
	Month       string // YYYY-MM
	LimitCents  int64
}

// BudgetView is a budget row with the spend derived from logged expenses.
type BudgetView struct {
	models.Budget
	SpentCents int64 `json:"spent_cents"`
}

// Service owns household lifecycle, membership, and category budgets.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Household, error)
	Get(ctx context.Context, householdID uuid.UUID) (*models.Household, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Household, error)
	ListMembers(ctx context.Context, householdID uuid.UUID) ([]models.HouseholdMember, error)
	// AddMember enrolls a user. Enrolling the same user twice is a conflict.
	AddMember(ctx context.Context, householdID, userID uuid.UUID, role enums.MemberRole) (*models.HouseholdMember, error)
	// Membership resolves the caller's member record, or nil when the user does
	// not belong to the household. Controllers use it for authorization.
	Membership(ctx context.Context, userID, householdID uuid.UUID) (*models.HouseholdMember, error)

	SetBudget(ctx context.Context, input SetBudgetInput) (*models.Budget, error)
	ListBudgets(ctx context.Context, householdID uuid.UUID, month string) ([]BudgetView, error)
}

type service struct {
	repo        Repository
	membersSvc  members.Service
	expenseRepo expenses.Repository
	tx          TxRunner
	logg        *logger.Logger
}

// NewService wires the household service with its collaborators.
func NewService(repo Repository, membersSvc members.Service, expenseRepo expenses.Repository, tx TxRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "household repository required")
	}
	if membersSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "member service required")
	}
	if expenseRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "expense repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, membersSvc: membersSvc, expenseRepo: expenseRepo, tx: tx, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Household, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "household name is required")
	}
	currency := input.Currency
	if currency == "" {
		currency = "SGD"
	}

	household := &models.Household{
		ID:          uuid.New(),
		Name:        input.Name,
		Currency:    currency,
		OwnerUserID: input.OwnerUserID,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, household); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create household")
		}
		member := &models.HouseholdMember{
			ID:          uuid.New(),
			HouseholdID: household.ID,
			UserID:      input.OwnerUserID,
			Role:        enums.MemberRoleParent,
		}
		if err := s.membersSvc.WithTx(tx).Create(ctx, member); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return household, nil
}

func (s *service) Get(ctx context.Context, householdID uuid.UUID) (*models.Household, error) {
	household, err := s.repo.GetByID(ctx, householdID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load household")
	}
	if household == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "household not found")
	}
	return household, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Household, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list households")
	}
	return rows, nil
}

func (s *service) ListMembers(ctx context.Context, householdID uuid.UUID) ([]models.HouseholdMember, error) {
	if _, err := s.Get(ctx, householdID); err != nil {
		return nil, err
	}
	return s.membersSvc.ListByHousehold(ctx, householdID)
}

func (s *service) AddMember(ctx context.Context, householdID, userID uuid.UUID, role enums.MemberRole) (*models.HouseholdMember, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown member role")
	}
	if _, err := s.Get(ctx, householdID); err != nil {
		return nil, err
	}

	existing, err := s.membersSvc.GetByUserAndHousehold(ctx, userID, householdID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a member of the household")
	}

	member := &models.HouseholdMember{
		ID:          uuid.New(),
		HouseholdID: householdID,
		UserID:      userID,
		Role:        role,
	}
	if err := s.membersSvc.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *service) Membership(ctx context.Context, userID, householdID uuid.UUID) (*models.HouseholdMember, error) {
	return s.membersSvc.GetByUserAndHousehold(ctx, userID, householdID)
}

func (s *service) SetBudget(ctx context.Context, input SetBudgetInput) (*models.Budget, error) {
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown expense category")
	}
	if input.LimitCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget limit must be non-negative")
	}
	if _, err := monthRange(input.Month); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, input.HouseholdID); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		ID:          uuid.New(),
		HouseholdID: input.HouseholdID,
		Category:    input.Category,
		Month:       input.Month,
		LimitCents:  input.LimitCents,
	}
	if err := s.repo.UpsertBudget(ctx, budget); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save budget")
	}
	return budget, nil
}

func (s *service) ListBudgets(ctx context.Context, householdID uuid.UUID, month string) ([]BudgetView, error) {
	rows, err := s.repo.ListBudgets(ctx, householdID, month)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list budgets")
	}

	views := make([]BudgetView, 0, len(rows))
	for _, budget := range rows {
		window, err := monthRange(budget.Month)
		if err != nil {
			return nil, err
		}
		spent, err := s.expenseRepo.SumByCategoryInRange(ctx, householdID, budget.Category, window.from, window.to)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum budget spend")
		}
		views = append(views, BudgetView{Budget: budget, SpentCents: spent})
	}
	return views, nil
}

type window struct {
	from time.Time
	to   time.Time
}

// monthRange parses a YYYY-MM month label into its [from, to) UTC range.
func monthRange(month string) (window, error) {
	from, err := time.ParseInLocation("2006-01", month, time.UTC)
	if err != nil {
		return window{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("month must be formatted YYYY-MM, got %q", month))
	}
	return window{from: from, to: from.AddDate(0, 1, 0)}, nil
}
