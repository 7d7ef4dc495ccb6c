// Package events provides the in-process dispatch mechanism connecting domain
// writes (expense logged, receipt confirmed) to progression side effects.
// Handlers run synchronously after the triggering write commits; a handler
// failure is logged and counted but never propagated to the writer.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// Kind discriminates event payload types.
type Kind string

const (
	KindExpenseLogged  Kind = "expense.logged"
	KindReceiptScanned Kind = "receipt.scanned"
)

// Event is the common surface of all dispatched payloads.
type Event interface {
	Kind() Kind
	OccurredAt() time.Time
}

// ExpenseLogged fires after a direct expense write commits.
type ExpenseLogged struct {
	UserID      uuid.UUID
	HouseholdID uuid.UUID
	Category    enums.ExpenseCategory
	AmountCents int64
	At          time.Time
}

func (e ExpenseLogged) Kind() Kind            { return KindExpenseLogged }
func (e ExpenseLogged) OccurredAt() time.Time { return e.At }

// ReceiptScanned fires after a receipt is confirmed.
type ReceiptScanned struct {
	UserID      uuid.UUID
	HouseholdID uuid.UUID
	ReceiptID   uuid.UUID
	At          time.Time
}

func (e ReceiptScanned) Kind() Kind            { return KindReceiptScanned }
func (e ReceiptScanned) OccurredAt() time.Time { return e.At }
