package receipts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/internal/apportion"
	"github.com/hearthapp/hearthledger-backend/internal/events"
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

// Publisher is the slice of the event dispatcher this service needs.
type Publisher interface {
	Publish(ctx context.Context, evt events.Event)
}

// CreateReceiptInput starts a draft receipt for a household.
type CreateReceiptInput struct {
	HouseholdID      uuid.UUID
	UploadedByUserID uuid.UUID
	Merchant         *string
	PurchasedAt      *time.Time
}

// AddItemInput appends one line to a draft receipt.
type AddItemInput struct {
	Name           string
	Quantity       int
	UnitPriceCents *int64
	TotalCents     int64
	Source         enums.ItemSource
	OCRConfidence  *float64
}

// ItemAssignments carries the member shares requested for one receipt line.
type ItemAssignments struct {
	ItemID      uuid.UUID
	Assignments []apportion.Assignment
}

// AssignInput is the full re-assignable payload for one receipt. Rates are
// fractions supplied per call, never hardcoded.
type AssignInput struct {
	ReceiptID         uuid.UUID
	Items             []ItemAssignments
	ServiceChargeRate decimal.Decimal
	TaxRate           decimal.Decimal
}

// MemberAggregate is one member's total share of a receipt after assignment.
type MemberAggregate struct {
	MemberID   uuid.UUID `json:"member_id"`
	TotalCents int64     `json:"total_cents"`
}

// View is a receipt with its lines and current allocations.
type View struct {
	Receipt     models.Receipt                 `json:"receipt"`
	Items       []models.ReceiptItem           `json:"items"`
	Assignments []models.ReceiptItemAssignment `json:"assignments"`
}

// Service owns the receipt lifecycle: draft creation, line entry, confirmation,
// and the assignment write that attributes item shares to household members.
type Service interface {
	Create(ctx context.Context, input CreateReceiptInput) (*models.Receipt, error)
	Get(ctx context.Context, receiptID uuid.UUID) (*View, error)
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.Receipt, error)
	AddItem(ctx context.Context, receiptID uuid.UUID, input AddItemInput) (*models.ReceiptItem, error)
	// Confirm freezes the draft, stamps the receipt total from its lines, and
	// publishes receipt.scanned so quest progress can react.
	Confirm(ctx context.Context, receiptID, actingUserID uuid.UUID) (*models.Receipt, error)
	// AssignItemsToMembers replaces the allocations of every referenced item and
	// moves member expenditure counters by the delta against what was previously
	// recorded for this receipt. The whole write is atomic and idempotent.
	AssignItemsToMembers(ctx context.Context, input AssignInput) ([]MemberAggregate, error)
}

type service struct {
	repo       Repository
	membersSvc members.Service
	tx         TxRunner
	publisher  Publisher
	logg       *logger.Logger
}

// NewService wires the receipt service with its collaborators. The publisher is
// optional; everything else is required.
func NewService(repo Repository, membersSvc members.Service, tx TxRunner, publisher Publisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "receipt repository required")
	}
	if membersSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "member service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, membersSvc: membersSvc, tx: tx, publisher: publisher, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateReceiptInput) (*models.Receipt, error) {
	receipt := &models.Receipt{
		ID:               uuid.New(),
		HouseholdID:      input.HouseholdID,
		UploadedByUserID: input.UploadedByUserID,
		Merchant:         input.Merchant,
		Status:           enums.ReceiptStatusDraft,
		PurchasedAt:      input.PurchasedAt,
	}
	if err := s.repo.CreateReceipt(ctx, receipt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create receipt")
	}
	return receipt, nil
}

func (s *service) Get(ctx context.Context, receiptID uuid.UUID) (*View, error) {
	receipt, err := s.loadReceipt(ctx, s.repo, receiptID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, receiptID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list receipt items")
	}
	assignments, err := s.repo.ListAssignments(ctx, receiptID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list receipt assignments")
	}
	return &View{Receipt: *receipt, Items: items, Assignments: assignments}, nil
}

func (s *service) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.Receipt, error) {
	rows, err := s.repo.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list receipts")
	}
	return rows, nil
}

func (s *service) AddItem(ctx context.Context, receiptID uuid.UUID, input AddItemInput) (*models.ReceiptItem, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
	}
	if input.TotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item total must be non-negative")
	}

	receipt, err := s.loadReceipt(ctx, s.repo, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.Status != enums.ReceiptStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "items can only be added to draft receipts")
	}

	line, err := s.repo.NextLineNumber(ctx, receiptID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute line number")
	}

	source := input.Source
	if source == "" {
		source = enums.ItemSourceManual
	}
	item := &models.ReceiptItem{
		ID:             uuid.New(),
		ReceiptID:      receiptID,
		Name:           input.Name,
		Quantity:       input.Quantity,
		UnitPriceCents: input.UnitPriceCents,
		TotalCents:     input.TotalCents,
		LineNumber:     line,
		Source:         source,
		OCRConfidence:  input.OCRConfidence,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create receipt item")
	}
	return item, nil
}

func (s *service) Confirm(ctx context.Context, receiptID, actingUserID uuid.UUID) (*models.Receipt, error) {
	var confirmed *models.Receipt
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		receipt, err := s.loadReceipt(ctx, repo, receiptID)
		if err != nil {
			return err
		}
		if receipt.Status == enums.ReceiptStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "receipt already confirmed")
		}

		items, err := repo.ListItems(ctx, receiptID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list receipt items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot confirm a receipt with no items")
		}

		var total int64
		for _, item := range items {
			total += item.TotalCents
		}

		now := time.Now().UTC()
		receipt.Status = enums.ReceiptStatusConfirmed
		receipt.TotalCents = total
		receipt.ConfirmedAt = &now
		if err := repo.UpdateReceipt(ctx, receipt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm receipt")
		}
		confirmed = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(ctx, events.ReceiptScanned{
			UserID:      actingUserID,
			HouseholdID: confirmed.HouseholdID,
			ReceiptID:   confirmed.ID,
			At:          time.Now().UTC(),
		})
	}
	return confirmed, nil
}

func (s *service) AssignItemsToMembers(ctx context.Context, input AssignInput) ([]MemberAggregate, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item assignment is required")
	}
	if input.ServiceChargeRate.IsNegative() || input.TaxRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rates must be non-negative")
	}

	var aggregates []MemberAggregate
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		membersSvc := s.membersSvc.WithTx(tx)

		receipt, err := s.loadReceipt(ctx, repo, input.ReceiptID)
		if err != nil {
			return err
		}

		items, err := repo.ListItems(ctx, input.ReceiptID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list receipt items")
		}
		itemsByID := make(map[uuid.UUID]models.ReceiptItem, len(items))
		for _, item := range items {
			itemsByID[item.ID] = item
		}

		if err := s.checkMembers(ctx, membersSvc, receipt.HouseholdID, input.Items); err != nil {
			return err
		}

		// Previous aggregates before any row is touched. Subtracting these and
		// adding the new aggregates makes re-assignment idempotent with respect
		// to member expenditure totals.
		previous, err := repo.AssignedTotalsByMember(ctx, input.ReceiptID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load previous allocation totals")
		}

		current := make(map[uuid.UUID]int64)
		for _, ia := range input.Items {
			item, ok := itemsByID[ia.ItemID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("item %s does not belong to receipt", ia.ItemID))
			}

			allocations, err := apportion.Apportion(
				apportion.Item{ID: item.ID, Quantity: item.Quantity, TotalCents: item.TotalCents},
				ia.Assignments,
				input.ServiceChargeRate,
				input.TaxRate,
			)
			if err != nil {
				return err
			}

			rows := make([]models.ReceiptItemAssignment, 0, len(allocations))
			for _, alloc := range allocations {
				rows = append(rows, models.ReceiptItemAssignment{
					ID:                 uuid.New(),
					ReceiptItemID:      item.ID,
					MemberID:           alloc.MemberID,
					AssignedQty:        alloc.AssignedQty,
					BaseCents:          alloc.BaseCents,
					ServiceChargeCents: alloc.ServiceChargeCents,
					TaxCents:           alloc.TaxCents,
					TotalCents:         alloc.TotalCents,
				})
				current[alloc.MemberID] += alloc.TotalCents
			}
			if err := repo.ReplaceItemAssignments(ctx, item.ID, rows); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace item allocations")
			}
		}

		// Untouched items keep their stored allocations, so their previous
		// totals carry forward into the new aggregate unchanged.
		replaced := make(map[uuid.UUID]bool, len(input.Items))
		for _, ia := range input.Items {
			replaced[ia.ItemID] = true
		}
		stored, err := repo.ListAssignments(ctx, input.ReceiptID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stored allocations")
		}
		for _, row := range stored {
			if !replaced[row.ReceiptItemID] {
				current[row.MemberID] += row.TotalCents
			}
		}

		for _, memberID := range unionKeys(previous, current) {
			delta := current[memberID] - previous[memberID]
			if err := membersSvc.AddExpenditure(ctx, memberID, delta); err != nil {
				return err
			}
		}

		aggregates = make([]MemberAggregate, 0, len(current))
		for memberID, total := range current {
			aggregates = append(aggregates, MemberAggregate{MemberID: memberID, TotalCents: total})
		}
		sort.Slice(aggregates, func(i, j int) bool {
			return aggregates[i].MemberID.String() < aggregates[j].MemberID.String()
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return aggregates, nil
}

func (s *service) loadReceipt(ctx context.Context, repo Repository, receiptID uuid.UUID) (*models.Receipt, error) {
	receipt, err := repo.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt")
	}
	if receipt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
	}
	return receipt, nil
}

// checkMembers verifies every assignment target belongs to the receipt's
// household. Authorization of the acting user happens upstream.
func (s *service) checkMembers(ctx context.Context, membersSvc members.Service, householdID uuid.UUID, items []ItemAssignments) error {
	seen := make(map[uuid.UUID]bool)
	for _, ia := range items {
		for _, a := range ia.Assignments {
			if seen[a.MemberID] {
				continue
			}
			seen[a.MemberID] = true

			member, err := membersSvc.Get(ctx, a.MemberID)
			if err != nil {
				return err
			}
			if member.HouseholdID != householdID {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("member %s does not belong to the receipt's household", a.MemberID))
			}
		}
	}
	return nil
}

func unionKeys(a, b map[uuid.UUID]int64) []uuid.UUID {
	set := make(map[uuid.UUID]bool, len(a)+len(b))
	for k := range a {
		set[k] = true
	}
	for k := range b {
		set[k] = true
	}
	keys := make([]uuid.UUID, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
