package apportion

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
)

func qty(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sumTotals(allocs []Allocation) int64 {
	var sum int64
	for _, a := range allocs {
		sum += a.TotalCents
	}
	return sum
}

func TestApportion_EvenSplitWithCharges(t *testing.T) {
	// Worked example: 2 units at 20.00 total, 10% service charge, 8% tax.
	item := Item{ID: uuid.New(), Quantity: 2, TotalCents: 2000}
	a, b := uuid.New(), uuid.New()

	allocs, err := Apportion(item,
		[]Assignment{{MemberID: a, Qty: qty("1")}, {MemberID: b, Qty: qty("1")}},
		qty("0.10"), qty("0.08"))
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	for _, alloc := range allocs {
		assert.Equal(t, int64(1000), alloc.BaseCents)
		assert.Equal(t, int64(100), alloc.ServiceChargeCents)
		assert.Equal(t, int64(88), alloc.TaxCents)
		assert.Equal(t, int64(1188), alloc.TotalCents)
	}
	// 20.00 x 1.10 x 1.08 = 23.76, no residual needed.
	assert.Equal(t, int64(2376), sumTotals(allocs))
}

func TestApportion_ResidualGoesToLargestShare(t *testing.T) {
	// 3 units at 10.00, equal thirds, no charges: each share rounds to 3.33,
	// the missing cent lands on the first (tie-break on input order).
	item := Item{ID: uuid.New(), Quantity: 3, TotalCents: 1000}
	members := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	allocs, err := Apportion(item, []Assignment{
		{MemberID: members[0], Qty: qty("1")},
		{MemberID: members[1], Qty: qty("1")},
		{MemberID: members[2], Qty: qty("1")},
	}, decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, int64(334), allocs[0].TotalCents)
	assert.Equal(t, int64(333), allocs[1].TotalCents)
	assert.Equal(t, int64(333), allocs[2].TotalCents)
	assert.Equal(t, int64(1000), sumTotals(allocs))
}

func TestApportion_ResidualPrefersLargerQuantity(t *testing.T) {
	item := Item{ID: uuid.New(), Quantity: 3, TotalCents: 1000}
	small, large := uuid.New(), uuid.New()

	allocs, err := Apportion(item, []Assignment{
		{MemberID: small, Qty: qty("1")},
		{MemberID: large, Qty: qty("2")},
	}, decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	// 3.3333 -> 3.33 and 6.6667 -> 6.67 already sum to 10.00; whenever a
	// residual does arise it must land on the larger share.
	assert.Equal(t, int64(1000), sumTotals(allocs))

	withTax, err := Apportion(item, []Assignment{
		{MemberID: small, Qty: qty("1")},
		{MemberID: large, Qty: qty("2")},
	}, decimal.Zero, qty("0.07"))
	require.NoError(t, err)

	want := GrandTotalCents(item, qty("3"), decimal.Zero, qty("0.07"))
	assert.Equal(t, want, sumTotals(withTax))
	if diff := withTax[0].BaseCents + withTax[0].TaxCents - withTax[0].TotalCents; diff != 0 {
		assert.Equal(t, large, withTax[1].MemberID, "residual must stay off the smaller share")
	}
}

func TestApportion_SumInvariantAcrossInputs(t *testing.T) {
	cases := []struct {
		name     string
		item     Item
		qtys     []string
		svc, tax string
	}{
		{"uneven thirds", Item{Quantity: 3, TotalCents: 1999}, []string{"1", "1", "1"}, "0.10", "0.09"},
		{"fractional halves", Item{Quantity: 1, TotalCents: 555}, []string{"0.5", "0.5"}, "0.05", "0.07"},
		{"sevenths", Item{Quantity: 7, TotalCents: 10000}, []string{"1", "2", "4"}, "0", "0.08"},
		{"partial assignment", Item{Quantity: 4, TotalCents: 1200}, []string{"1", "1"}, "0.10", "0.08"},
		{"single member", Item{Quantity: 5, TotalCents: 12345}, []string{"5"}, "0.10", "0.08"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assignments := make([]Assignment, 0, len(tc.qtys))
			qtySum := decimal.Zero
			for _, q := range tc.qtys {
				assignments = append(assignments, Assignment{MemberID: uuid.New(), Qty: qty(q)})
				qtySum = qtySum.Add(qty(q))
			}

			allocs, err := Apportion(tc.item, assignments, qty(tc.svc), qty(tc.tax))
			require.NoError(t, err)

			want := GrandTotalCents(tc.item, qtySum, qty(tc.svc), qty(tc.tax))
			assert.Equal(t, want, sumTotals(allocs))
			for _, a := range allocs {
				assert.GreaterOrEqual(t, a.BaseCents, int64(0))
				assert.GreaterOrEqual(t, a.ServiceChargeCents, int64(0))
				assert.GreaterOrEqual(t, a.TaxCents, int64(0))
				assert.GreaterOrEqual(t, a.TotalCents, int64(0))
			}
		})
	}
}

func TestApportion_RejectsOverAssignment(t *testing.T) {
	item := Item{ID: uuid.New(), Quantity: 2, TotalCents: 2000}

	_, err := Apportion(item, []Assignment{
		{MemberID: uuid.New(), Qty: qty("1.5")},
		{MemberID: uuid.New(), Qty: qty("1.5")},
	}, decimal.Zero, decimal.Zero)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// Exactly the item quantity is allowed.
	_, err = Apportion(item, []Assignment{
		{MemberID: uuid.New(), Qty: qty("1")},
		{MemberID: uuid.New(), Qty: qty("1")},
	}, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
}

func TestApportion_ToleratesFractionalEpsilon(t *testing.T) {
	item := Item{ID: uuid.New(), Quantity: 1, TotalCents: 900}

	// Three thirds expressed with limited precision overshoot 1 by under 1e-6.
	third := qty("0.3333334")
	_, err := Apportion(item, []Assignment{
		{MemberID: uuid.New(), Qty: third},
		{MemberID: uuid.New(), Qty: third},
		{MemberID: uuid.New(), Qty: third},
	}, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
}

func TestApportion_RejectsEmptyAndInvalidInput(t *testing.T) {
	item := Item{ID: uuid.New(), Quantity: 1, TotalCents: 100}

	_, err := Apportion(item, nil, decimal.Zero, decimal.Zero)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = Apportion(item, []Assignment{{MemberID: uuid.New(), Qty: decimal.Zero}}, decimal.Zero, decimal.Zero)
	require.Error(t, err)

	_, err = Apportion(item, []Assignment{{MemberID: uuid.New(), Qty: qty("1")}}, qty("-0.1"), decimal.Zero)
	require.Error(t, err)

	_, err = Apportion(Item{Quantity: 0, TotalCents: 100}, []Assignment{{MemberID: uuid.New(), Qty: qty("1")}}, decimal.Zero, decimal.Zero)
	require.Error(t, err)
}
