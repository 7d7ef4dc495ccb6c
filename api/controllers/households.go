package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/api/responses"
	"github.com/hearthapp/hearthledger-backend/api/validators"
	"github.com/hearthapp/hearthledger-backend/internal/households"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
	"github.com/hearthapp/hearthledger-backend/pkg/logger"
)

type createHouseholdRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

type addMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required"`
}

type setBudgetRequest struct {
	Category   string `json:"category" validate:"required"`
	Month      string `json:"month" validate:"required"`
	LimitCents int64  `json:"limit_cents" validate:"gte=0"`
}

// HouseholdCreate starts a household owned by the caller.
func HouseholdCreate(svc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createHouseholdRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		household, err := svc.Create(r.Context(), households.CreateInput{
			Name:        body.Name,
			Currency:    body.Currency,
			OwnerUserID: userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, householdFromModel(household))
	}
}

// HouseholdList returns the households the caller belongs to.
func HouseholdList(svc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMine(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, householdsFromModels(rows))
	}
}

// HouseholdGet returns one household the caller is a member of.
func HouseholdGet(svc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, householdID, err := householdScope(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		household, err := svc.Get(r.Context(), householdID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, householdFromModel(household))
	}
}

// HouseholdMembers lists the household roster with expenditure and progression counters.
func HouseholdMembers(svc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, householdID, err := householdScope(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMembers(r.Context(), householdID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, membersFromModels(rows))
	}
}

// HouseholdAddMember enrolls another user. Parent role required.
func HouseholdAddMember(svc households.Service, logg *logger.Logger) http.HandlerFunc {
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
		if _, err := requireParent(r.Context(), svc, userID, householdID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addMemberRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		newUserID, err := uuid.Parse(body.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user_id must be a uuid"))
			return
		}
		role, err := enums.ParseMemberRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		member, err := svc.AddMember(r.Context(), householdID, newUserID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, memberFromModel(member))
	}
}

// BudgetSet creates or replaces the cap for one category and month. Parent role required.
func BudgetSet(svc households.Service, logg *logger.Logger) http.HandlerFunc {
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
		if _, err := requireParent(r.Context(), svc, userID, householdID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setBudgetRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		budget, err := svc.SetBudget(r.Context(), households.SetBudgetInput{
			HouseholdID: householdID,
			Category:    enums.ExpenseCategory(body.Category),
			Month:       body.Month,
			LimitCents:  body.LimitCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, budgetDTO{
			ID:          budget.ID,
			HouseholdID: budget.HouseholdID,
			Category:    budget.Category,
			Month:       budget.Month,
			LimitCents:  budget.LimitCents,
		})
	}
}

// BudgetList returns budgets, optionally filtered by ?month=YYYY-MM, with the
// spend for each derived from logged expenses.
func BudgetList(svc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, householdID, err := householdScope(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		month := r.URL.Query().Get("month")
		views, err := svc.ListBudgets(r.Context(), householdID, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]budgetDTO, 0, len(views))
		for _, v := range views {
			out = append(out, budgetDTO{
				ID:          v.ID,
				HouseholdID: v.HouseholdID,
				Category:    v.Category,
				Month:       v.Month,
				LimitCents:  v.LimitCents,
				SpentCents:  v.SpentCents,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// householdScope parses the household route param and checks the caller's
// membership in one step.
func householdScope(r *http.Request, svc households.Service) (uuid.UUID, uuid.UUID, error) {
	userID, err := callerUserID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	householdID, err := validators.ParseUUIDParam(r, "householdId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if _, err := requireMembership(r.Context(), svc, userID, householdID); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, householdID, nil
}
