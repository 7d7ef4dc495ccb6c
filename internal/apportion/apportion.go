// Package apportion splits a receipt item's price across household members with
// service charge and tax applied, banker's rounding per share, and a residual
// correction so the shares always sum to the item's reconciled grand total.
package apportion

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
)

// quantityEpsilon tolerates fractional-quantity rounding when comparing the
// assigned sum against the item quantity.
var quantityEpsilon = decimal.New(1, -6)

// Item is the minimal receipt line view the engine needs.
type Item struct {
	ID         uuid.UUID
	Quantity   int
	TotalCents int64
}

// Assignment pairs a member with the share of the item quantity they take.
type Assignment struct {
	MemberID uuid.UUID
	Qty      decimal.Decimal
}

// Allocation is one member's computed share of an item. All amounts are in
// minimal currency units.
type Allocation struct {
	MemberID           uuid.UUID
	AssignedQty        decimal.Decimal
	BaseCents          int64
	ServiceChargeCents int64
	TaxCents           int64
	TotalCents         int64
}

// Apportion computes per-member allocations for a single item. Tax is applied on
// top of the service charge (tax-on-surcharge policy). The function is pure: it
// never raises on input that passes validation, and it has no side effects.
func Apportion(item Item, assignments []Assignment, serviceChargeRate, taxRate decimal.Decimal) ([]Allocation, error) {
	if len(assignments) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one assignment is required")
	}
	if item.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
	}
	if item.TotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item total must be non-negative")
	}
	if serviceChargeRate.IsNegative() || taxRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rates must be non-negative")
	}

	qtySum := decimal.Zero
	for _, a := range assignments {
		if !a.Qty.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("assigned quantity for member %s must be positive", a.MemberID))
		}
		qtySum = qtySum.Add(a.Qty)
	}

	itemQty := decimal.NewFromInt(int64(item.Quantity))
	if qtySum.Sub(itemQty).GreaterThan(quantityEpsilon) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assigned quantities exceed item quantity").
			WithDetails(map[string]any{
				"item_id":      item.ID,
				"item_qty":     item.Quantity,
				"assigned_qty": qtySum.String(),
			})
	}

	perUnit := decimal.New(item.TotalCents, -2).Div(itemQty)

	allocations := make([]Allocation, 0, len(assignments))
	var allocatedCents int64
	for _, a := range assignments {
		base := perUnit.Mul(a.Qty).RoundBank(2)
		serviceCharge := base.Mul(serviceChargeRate).RoundBank(2)
		tax := base.Add(serviceCharge).Mul(taxRate).RoundBank(2)

		alloc := Allocation{
			MemberID:           a.MemberID,
			AssignedQty:        a.Qty,
			BaseCents:          toCents(base),
			ServiceChargeCents: toCents(serviceCharge),
			TaxCents:           toCents(tax),
		}
		alloc.TotalCents = alloc.BaseCents + alloc.ServiceChargeCents + alloc.TaxCents
		allocatedCents += alloc.TotalCents
		allocations = append(allocations, alloc)
	}

	// Each share was rounded independently, so the sum can drift a cent or two
	// from the reconciled grand total. The residual lands on the largest share,
	// first in input order on ties.
	grand := perUnit.Mul(qtySum).
		Mul(decimal.New(1, 0).Add(serviceChargeRate)).
		Mul(decimal.New(1, 0).Add(taxRate)).
		RoundBank(2)
	if residual := toCents(grand) - allocatedCents; residual != 0 {
		idx := 0
		for i := 1; i < len(allocations); i++ {
			if allocations[i].AssignedQty.GreaterThan(allocations[idx].AssignedQty) {
				idx = i
			}
		}
		allocations[idx].TotalCents += residual
	}

	return allocations, nil
}

// GrandTotalCents returns the reconciled total the allocations of an item sum to.
func GrandTotalCents(item Item, qtySum, serviceChargeRate, taxRate decimal.Decimal) int64 {
	perUnit := decimal.New(item.TotalCents, -2).Div(decimal.NewFromInt(int64(item.Quantity)))
	return toCents(perUnit.Mul(qtySum).
		Mul(decimal.New(1, 0).Add(serviceChargeRate)).
		Mul(decimal.New(1, 0).Add(taxRate)).
		RoundBank(2))
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}
