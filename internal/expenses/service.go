package expenses

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/internal/events"
	"github.com/hearthapp/hearthledger-backend/internal/members"
	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
	"github.com/hearthapp/hearthledger-backend/pkg/logger"
	"github.com/hearthapp/hearthledger-backend/pkg/pagination"
)

// TxRunner runs fn inside a single database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Publisher is the slice of the event dispatcher this service needs.
type Publisher interface {
	Publish(ctx context.Context, evt events.Event)
}

// CreateInput logs one direct expense against a household member.
type CreateInput struct {
	HouseholdID uuid.UUID
	MemberID    uuid.UUID
	Category    enums.ExpenseCategory
	AmountCents int64
	Note        *string
	OccurredAt  time.Time
}

// Service owns direct expense logging. A successful write moves the member's
// expenditure counters and streak, then publishes expense.logged.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Expense, error)
	ListByHousehold(ctx context.Context, householdID uuid.UUID, params pagination.Params) ([]models.Expense, string, error)
}

type service struct {
	repo       Repository
	membersSvc members.Service
	tx         TxRunner
	publisher  Publisher
	logg       *logger.Logger
}

// NewService wires the expense service with its collaborators. The publisher is
// optional; everything else is required.
func NewService(repo Repository, membersSvc members.Service, tx TxRunner, publisher Publisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "expense repository required")
	}
	if membersSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "member service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, membersSvc: membersSvc, tx: tx, publisher: publisher, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Expense, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown expense category")
	}
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var (
		expense *models.Expense
		member  *models.HouseholdMember
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		membersSvc := s.membersSvc.WithTx(tx)

		var err error
		member, err = membersSvc.Get(ctx, input.MemberID)
		if err != nil {
			return err
		}
		if member.HouseholdID != input.HouseholdID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "member does not belong to the household")
		}

		expense = &models.Expense{
			ID:          uuid.New(),
			HouseholdID: input.HouseholdID,
			MemberID:    input.MemberID,
			Category:    input.Category,
			AmountCents: input.AmountCents,
			Note:        input.Note,
			OccurredAt:  occurredAt,
		}
		if err := repo.Create(ctx, expense); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create expense")
		}

		if err := membersSvc.AddExpenditure(ctx, input.MemberID, input.AmountCents); err != nil {
			return err
		}
		if _, err := membersSvc.TouchStreak(ctx, input.MemberID, occurredAt); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(ctx, events.ExpenseLogged{
			UserID:      member.UserID,
			HouseholdID: input.HouseholdID,
			Category:    input.Category,
			AmountCents: input.AmountCents,
			At:          occurredAt,
		})
	}
	return expense, nil
}

func (s *service) ListByHousehold(ctx context.Context, householdID uuid.UUID, params pagination.Params) ([]models.Expense, string, error) {
	rows, err := s.repo.ListByHousehold(ctx, householdID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expenses")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{Timestamp: last.OccurredAt, ID: last.ID})
	}
	return rows, next, nil
}
