package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hearthapp/hearthledger-backend/internal/receipts"
	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// Transport shapes for the GORM models. Models carry column mappings only, so
// every payload that leaves the API goes through one of these.

type householdDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Currency    string    `json:"currency"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func householdFromModel(h *models.Household) householdDTO {
	return householdDTO{
		ID:          h.ID,
		Name:        h.Name,
		Currency:    h.Currency,
		OwnerUserID: h.OwnerUserID,
		CreatedAt:   h.CreatedAt,
	}
}

func householdsFromModels(rows []models.Household) []householdDTO {
	out := make([]householdDTO, 0, len(rows))
	for i := range rows {
		out = append(out, householdFromModel(&rows[i]))
	}
	return out
}

type memberDTO struct {
	ID          uuid.UUID        `json:"id"`
	HouseholdID uuid.UUID        `json:"household_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Role        enums.MemberRole `json:"role"`

	MonthlyExpenditureCents  int64 `json:"monthly_expenditure_cents"`
	LifetimeExpenditureCents int64 `json:"lifetime_expenditure_cents"`
	XP                       int   `json:"xp"`
	Streak                   int   `json:"streak"`
	QuestsCompleted          int   `json:"quests_completed"`
}

func memberFromModel(m *models.HouseholdMember) memberDTO {
	return memberDTO{
		ID:                       m.ID,
		HouseholdID:              m.HouseholdID,
		UserID:                   m.UserID,
		Role:                     m.Role,
		MonthlyExpenditureCents:  m.MonthlyExpenditureCents,
		LifetimeExpenditureCents: m.LifetimeExpenditureCents,
		XP:                       m.XP,
		Streak:                   m.Streak,
		QuestsCompleted:          m.QuestsCompleted,
	}
}

func membersFromModels(rows []models.HouseholdMember) []memberDTO {
	out := make([]memberDTO, 0, len(rows))
	for i := range rows {
		out = append(out, memberFromModel(&rows[i]))
	}
	return out
}

type expenseDTO struct {
	ID          uuid.UUID             `json:"id"`
	HouseholdID uuid.UUID             `json:"household_id"`
	MemberID    uuid.UUID             `json:"member_id"`
	Category    enums.ExpenseCategory `json:"category"`
	AmountCents int64                 `json:"amount_cents"`
	Note        *string               `json:"note,omitempty"`
	OccurredAt  time.Time             `json:"occurred_at"`
}

func expenseFromModel(e *models.Expense) expenseDTO {
	return expenseDTO{
		ID:          e.ID,
		HouseholdID: e.HouseholdID,
		MemberID:    e.MemberID,
		Category:    e.Category,
		AmountCents: e.AmountCents,
		Note:        e.Note,
		OccurredAt:  e.OccurredAt,
	}
}

func expensesFromModels(rows []models.Expense) []expenseDTO {
	out := make([]expenseDTO, 0, len(rows))
	for i := range rows {
		out = append(out, expenseFromModel(&rows[i]))
	}
	return out
}

type receiptDTO struct {
	ID          uuid.UUID           `json:"id"`
	HouseholdID uuid.UUID           `json:"household_id"`
	UploadedBy  uuid.UUID           `json:"uploaded_by_user_id"`
	Merchant    *string             `json:"merchant,omitempty"`
	Status      enums.ReceiptStatus `json:"status"`
	TotalCents  int64               `json:"total_cents"`
	PurchasedAt *time.Time          `json:"purchased_at,omitempty"`
	ConfirmedAt *time.Time          `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

func receiptFromModel(r *models.Receipt) receiptDTO {
	return receiptDTO{
		ID:          r.ID,
		HouseholdID: r.HouseholdID,
		UploadedBy:  r.UploadedByUserID,
		Merchant:    r.Merchant,
		Status:      r.Status,
		TotalCents:  r.TotalCents,
		PurchasedAt: r.PurchasedAt,
		ConfirmedAt: r.ConfirmedAt,
		CreatedAt:   r.CreatedAt,
	}
}

func receiptsFromModels(rows []models.Receipt) []receiptDTO {
	out := make([]receiptDTO, 0, len(rows))
	for i := range rows {
		out = append(out, receiptFromModel(&rows[i]))
	}
	return out
}

type receiptItemDTO struct {
	ID             uuid.UUID        `json:"id"`
	ReceiptID      uuid.UUID        `json:"receipt_id"`
	Name           string           `json:"name"`
	Quantity       int              `json:"quantity"`
	UnitPriceCents *int64           `json:"unit_price_cents,omitempty"`
	TotalCents     int64            `json:"total_cents"`
	LineNumber     int              `json:"line_number"`
	Source         enums.ItemSource `json:"source"`
	OCRConfidence  *float64         `json:"ocr_confidence,omitempty"`
}

func receiptItemFromModel(i *models.ReceiptItem) receiptItemDTO {
	return receiptItemDTO{
		ID:             i.ID,
		ReceiptID:      i.ReceiptID,
		Name:           i.Name,
		Quantity:       i.Quantity,
		UnitPriceCents: i.UnitPriceCents,
		TotalCents:     i.TotalCents,
		LineNumber:     i.LineNumber,
		Source:         i.Source,
		OCRConfidence:  i.OCRConfidence,
	}
}

type allocationDTO struct {
	ID                 uuid.UUID       `json:"id"`
	ReceiptItemID      uuid.UUID       `json:"receipt_item_id"`
	MemberID           uuid.UUID       `json:"member_id"`
	AssignedQty        decimal.Decimal `json:"assigned_qty"`
	BaseCents          int64           `json:"base_cents"`
	ServiceChargeCents int64           `json:"service_charge_cents"`
	TaxCents           int64           `json:"tax_cents"`
	TotalCents         int64           `json:"total_cents"`
}

type receiptViewDTO struct {
	Receipt     receiptDTO       `json:"receipt"`
	Items       []receiptItemDTO `json:"items"`
	Allocations []allocationDTO  `json:"allocations"`
}

func receiptViewFromService(view *receipts.View) receiptViewDTO {
	items := make([]receiptItemDTO, 0, len(view.Items))
	for i := range view.Items {
		items = append(items, receiptItemFromModel(&view.Items[i]))
	}
	allocations := make([]allocationDTO, 0, len(view.Assignments))
	for _, row := range view.Assignments {
		allocations = append(allocations, allocationDTO{
			ID:                 row.ID,
			ReceiptItemID:      row.ReceiptItemID,
			MemberID:           row.MemberID,
			AssignedQty:        row.AssignedQty,
			BaseCents:          row.BaseCents,
			ServiceChargeCents: row.ServiceChargeCents,
			TaxCents:           row.TaxCents,
			TotalCents:         row.TotalCents,
		})
	}
	return receiptViewDTO{
		Receipt:     receiptFromModel(&view.Receipt),
		Items:       items,
		Allocations: allocations,
	}
}

type questDTO struct {
	ID               uuid.UUID              `json:"id"`
	Type             enums.QuestType        `json:"type"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	XPReward         int                    `json:"xp_reward"`
	Target           int                    `json:"target"`
	Difficulty       enums.QuestDifficulty  `json:"difficulty"`
	Category         *enums.ExpenseCategory `json:"category,omitempty"`
	TimeLimitSeconds *int                   `json:"time_limit_seconds,omitempty"`
	Repeatable       bool                   `json:"repeatable"`
}

func questFromModel(q *models.Quest) questDTO {
	return questDTO{
		ID:               q.ID,
		Type:             q.Type,
		Title:            q.Title,
		Description:      q.Description,
		XPReward:         q.XPReward,
		Target:           q.Target,
		Difficulty:       q.Difficulty,
		Category:         q.Category,
		TimeLimitSeconds: q.TimeLimitSeconds,
		Repeatable:       q.Repeatable,
	}
}

func questsFromModels(rows []models.Quest) []questDTO {
	out := make([]questDTO, 0, len(rows))
	for i := range rows {
		out = append(out, questFromModel(&rows[i]))
	}
	return out
}

type memberQuestDTO struct {
	ID          uuid.UUID         `json:"id"`
	MemberID    uuid.UUID         `json:"member_id"`
	QuestID     uuid.UUID         `json:"quest_id"`
	Status      enums.QuestStatus `json:"status"`
	Progress    int               `json:"progress"`
	AssignedAt  time.Time         `json:"assigned_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	ClaimedAt   *time.Time        `json:"claimed_at,omitempty"`
}

func memberQuestFromModel(mq *models.MemberQuest) memberQuestDTO {
	return memberQuestDTO{
		ID:          mq.ID,
		MemberID:    mq.MemberID,
		QuestID:     mq.QuestID,
		Status:      mq.Status,
		Progress:    mq.Progress,
		AssignedAt:  mq.AssignedAt,
		StartedAt:   mq.StartedAt,
		CompletedAt: mq.CompletedAt,
		ClaimedAt:   mq.ClaimedAt,
	}
}

func memberQuestsFromModels(rows []models.MemberQuest) []memberQuestDTO {
	out := make([]memberQuestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, memberQuestFromModel(&rows[i]))
	}
	return out
}

type badgeDTO struct {
	Badge    enums.Badge `json:"badge"`
	EarnedAt time.Time   `json:"earned_at"`
}

func badgesFromModels(rows []models.MemberBadge) []badgeDTO {
	out := make([]badgeDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, badgeDTO{Badge: row.Badge, EarnedAt: row.EarnedAt})
	}
	return out
}

type budgetDTO struct {
	ID          uuid.UUID             `json:"id"`
	HouseholdID uuid.UUID             `json:"household_id"`
	Category    enums.ExpenseCategory `json:"category"`
	Month       string                `json:"month"`
	LimitCents  int64                 `json:"limit_cents"`
	SpentCents  int64                 `json:"spent_cents"`
}
