package controllers

import (
	"net/http"
	"time"

	"github.com/hearthapp/hearthledger-backend/api/responses"
	"github.com/hearthapp/hearthledger-backend/api/validators"
	"github.com/hearthapp/hearthledger-backend/internal/expenses"
	"github.com/hearthapp/hearthledger-backend/internal/households"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
	"github.com/hearthapp/hearthledger-backend/pkg/logger"
	"github.com/hearthapp/hearthledger-backend/pkg/pagination"
)

type createExpenseRequest struct {
	Category    string  `json:"category" validate:"required"`
	AmountCents int64   `json:"amount_cents" validate:"required,gt=0"`
	Note        *string `json:"note" validate:"omitempty,max=500"`
	OccurredAt  *string `json:"occurred_at" validate:"omitempty"`
}

type expenseListResponse struct {
	Expenses   []expenseDTO `json:"expenses"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ExpenseCreate logs a direct expense against the caller's own membership.
func ExpenseCreate(svc expenses.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		householdID, err := validators.ParseUUIDParam(r, "householdId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := requireMembership(r.Context(), hhSvc, userID, householdID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createExpenseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var occurredAt time.Time
		if body.OccurredAt != nil {
			occurredAt, err = time.Parse(time.RFC3339, *body.OccurredAt)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "occurred_at must be RFC3339"))
				return
			}
		}

		expense, err := svc.Create(r.Context(), expenses.CreateInput{
			HouseholdID: householdID,
			MemberID:    member.ID,
			Category:    enums.ExpenseCategory(body.Category),
			AmountCents: body.AmountCents,
			Note:        body.Note,
			OccurredAt:  occurredAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, expenseFromModel(expense))
	}
}

// ExpenseList pages through a household's expenses, newest first.
func ExpenseList(svc expenses.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, householdID, err := householdScope(r, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListByHousehold(r.Context(), householdID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expenseListResponse{
			Expenses:   expensesFromModels(rows),
			NextCursor: next,
		})
	}
}
