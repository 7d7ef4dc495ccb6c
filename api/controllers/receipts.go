package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hearthapp/hearthledger-backend/api/responses"
	"github.com/hearthapp/hearthledger-backend/api/validators"
	"github.com/hearthapp/hearthledger-backend/internal/apportion"
	"github.com/hearthapp/hearthledger-backend/internal/households"
	"github.com/hearthapp/hearthledger-backend/internal/receipts"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
	"github.com/hearthapp/hearthledger-backend/pkg/logger"
)

type createReceiptRequest struct {
	Merchant    *string `json:"merchant" validate:"omitempty,max=200"`
	PurchasedAt *string `json:"purchased_at" validate:"omitempty"`
}

type addReceiptItemRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=200"`
	Quantity       int      `json:"quantity" validate:"required,gte=1"`
	UnitPriceCents *int64   `json:"unit_price_cents" validate:"omitempty,gte=0"`
	TotalCents     int64    `json:"total_cents" validate:"gte=0"`
	Source         string   `json:"source" validate:"omitempty,oneof=ocr manual"`
	OCRConfidence  *float64 `json:"ocr_confidence" validate:"omitempty,gte=0,lte=1"`
}

type itemAssignmentsRequest struct {
	ItemID      string `json:"item_id" validate:"required,uuid"`
	Assignments []struct {
		MemberID string          `json:"member_id" validate:"required,uuid"`
		Qty      decimal.Decimal `json:"qty" validate:"required"`
	} `json:"assignments" validate:"required,min=1,dive"`
}

type assignReceiptRequest struct {
	ServiceChargeRate decimal.Decimal          `json:"service_charge_rate"`
	TaxRate           decimal.Decimal          `json:"tax_rate"`
	Items             []itemAssignmentsRequest `json:"items" validate:"required,min=1,dive"`
}

// ReceiptCreate starts a draft receipt in the household.
func ReceiptCreate(svc receipts.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, householdID, err := householdScope(r, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createReceiptRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var purchasedAt *time.Time
		if body.PurchasedAt != nil {
			parsed, err := time.Parse(time.RFC3339, *body.PurchasedAt)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "purchased_at must be RFC3339"))
				return
			}
			purchasedAt = &parsed
		}

		receipt, err := svc.Create(r.Context(), receipts.CreateReceiptInput{
			HouseholdID:      householdID,
			UploadedByUserID: userID,
			Merchant:         body.Merchant,
			PurchasedAt:      purchasedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receiptFromModel(receipt))
	}
}

// ReceiptList returns the household's receipts.
func ReceiptList(svc receipts.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, householdID, err := householdScope(r, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByHousehold(r.Context(), householdID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receiptsFromModels(rows))
	}
}

// ReceiptGet returns a receipt with its items and current allocations.
func ReceiptGet(svc receipts.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := receiptForCaller(r, svc, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receiptViewFromService(view))
	}
}

// ReceiptAddItem appends one line to a draft receipt.
func ReceiptAddItem(svc receipts.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := receiptForCaller(r, svc, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addReceiptItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), view.Receipt.ID, receipts.AddItemInput{
			Name:           body.Name,
			Quantity:       body.Quantity,
			UnitPriceCents: body.UnitPriceCents,
			TotalCents:     body.TotalCents,
			Source:         enums.ItemSource(body.Source),
			OCRConfidence:  body.OCRConfidence,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receiptItemFromModel(item))
	}
}

// ReceiptConfirm freezes the draft and publishes the scan event.
func ReceiptConfirm(svc receipts.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := receiptForCaller(r, svc, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmed, err := svc.Confirm(r.Context(), view.Receipt.ID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receiptFromModel(confirmed))
	}
}

// ReceiptAssign replaces the allocations for the referenced items and returns
// the per-member aggregates for the whole receipt.
func ReceiptAssign(svc receipts.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := receiptForCaller(r, svc, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignReceiptRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]receipts.ItemAssignments, 0, len(body.Items))
		for _, ia := range body.Items {
			itemID, err := uuid.Parse(ia.ItemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item_id must be a uuid"))
				return
			}
			assignments := make([]apportion.Assignment, 0, len(ia.Assignments))
			for _, a := range ia.Assignments {
				memberID, err := uuid.Parse(a.MemberID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "member_id must be a uuid"))
					return
				}
				assignments = append(assignments, apportion.Assignment{MemberID: memberID, Qty: a.Qty})
			}
			items = append(items, receipts.ItemAssignments{ItemID: itemID, Assignments: assignments})
		}

		aggregates, err := svc.AssignItemsToMembers(r.Context(), receipts.AssignInput{
			ReceiptID:         view.Receipt.ID,
			Items:             items,
			ServiceChargeRate: body.ServiceChargeRate,
			TaxRate:           body.TaxRate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"member_totals": aggregates})
	}
}

// receiptForCaller loads the receipt and verifies the caller belongs to its
// household.
func receiptForCaller(r *http.Request, svc receipts.Service, hhSvc households.Service) (*receipts.View, error) {
	userID, err := callerUserID(r)
	if err != nil {
		return nil, err
	}
	receiptID, err := validators.ParseUUIDParam(r, "receiptId")
	if err != nil {
		return nil, err
	}
	view, err := svc.Get(r.Context(), receiptID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMembership(r.Context(), hhSvc, userID, view.Receipt.HouseholdID); err != nil {
		return nil, err
	}
	return view, nil
}
