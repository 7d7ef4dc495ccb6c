package receipts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/internal/apportion"
	"github.com/hearthapp/hearthledger-backend/internal/events"
	"github.com/hearthapp/hearthledger-backend/internal/members"
	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, evt events.Event) {
	p.published = append(p.published, evt)
}

func setupReceiptsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS household_members (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL,
  monthly_expenditure_cents INTEGER NOT NULL DEFAULT 0,
  lifetime_expenditure_cents INTEGER NOT NULL DEFAULT 0,
  last_expenditure_update DATETIME,
  xp INTEGER NOT NULL DEFAULT 0,
  streak INTEGER NOT NULL DEFAULT 0,
  last_streak_date DATETIME,
  quests_completed INTEGER NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS receipts (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  uploaded_by_user_id TEXT NOT NULL,
  merchant TEXT,
  status TEXT NOT NULL DEFAULT 'draft',
  total_cents INTEGER NOT NULL DEFAULT 0,
  purchased_at DATETIME,
  confirmed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS receipt_items (
  id TEXT PRIMARY KEY,
  receipt_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  unit_price_cents INTEGER,
  total_cents INTEGER NOT NULL,
  line_number INTEGER NOT NULL,
  source TEXT NOT NULL DEFAULT 'manual',
  ocr_confidence REAL,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS receipt_item_assignments (
  id TEXT PRIMARY KEY,
  receipt_item_id TEXT NOT NULL,
  member_id TEXT NOT NULL,
  assigned_qty TEXT NOT NULL DEFAULT '1',
  base_cents INTEGER NOT NULL,
  service_charge_cents INTEGER NOT NULL DEFAULT 0,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type receiptsFixture struct {
	db        *gorm.DB
	svc       Service
	repo      Repository
	members   members.Service
	publisher *recordingPublisher
}

func newReceiptsFixture(t *testing.T) *receiptsFixture {
	t.Helper()

	db := setupReceiptsTestDB(t)
	repo := NewRepository(db)
	memberSvc, err := members.NewService(members.NewRepository(db))
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	svc, err := NewService(repo, memberSvc, gormTxRunner{db: db}, publisher, nil)
	require.NoError(t, err)

	return &receiptsFixture{db: db, svc: svc, repo: repo, members: memberSvc, publisher: publisher}
}

func (f *receiptsFixture) addMember(t *testing.T, householdID uuid.UUID) *models.HouseholdMember {
	t.Helper()
	member := &models.HouseholdMember{
		ID:          uuid.New(),
		HouseholdID: householdID,
		UserID:      uuid.New(),
		Role:        enums.MemberRoleMember,
	}
	require.NoError(t, f.db.Create(member).Error)
	return member
}

func (f *receiptsFixture) addReceipt(t *testing.T, householdID uuid.UUID) *models.Receipt {
	t.Helper()
	receipt, err := f.svc.Create(context.Background(), CreateReceiptInput{
		HouseholdID:      householdID,
		UploadedByUserID: uuid.New(),
	})
	require.NoError(t, err)
	return receipt
}

func (f *receiptsFixture) addItem(t *testing.T, receiptID uuid.UUID, qty int, totalCents int64) *models.ReceiptItem {
	t.Helper()
	item, err := f.svc.AddItem(context.Background(), receiptID, AddItemInput{
		Name:       "line",
		Quantity:   qty,
		TotalCents: totalCents,
	})
	require.NoError(t, err)
	return item
}

func (f *receiptsFixture) memberTotals(t *testing.T, memberID uuid.UUID) (int64, int64) {
	t.Helper()
	member, err := f.members.Get(context.Background(), memberID)
	require.NoError(t, err)
	return member.MonthlyExpenditureCents, member.LifetimeExpenditureCents
}

func TestAssignItemsToMembers_WorkedExample(t *testing.T) {
	f := newReceiptsFixture(t)
	householdID := uuid.New()
	memberA := f.addMember(t, householdID)
	memberB := f.addMember(t, householdID)
	receipt := f.addReceipt(t, householdID)
	item := f.addItem(t, receipt.ID, 2, 2000)

	aggregates, err := f.svc.AssignItemsToMembers(context.Background(), AssignInput{
		ReceiptID: receipt.ID,
		Items: []ItemAssignments{{
			ItemID: item.ID,
			Assignments: []apportion.Assignment{
				{MemberID: memberA.ID, Qty: decimal.NewFromInt(1)},
				{MemberID: memberB.ID, Qty: decimal.NewFromInt(1)},
			},
		}},
		ServiceChargeRate: decimal.RequireFromString("0.10"),
		TaxRate:           decimal.RequireFromString("0.08"),
	})
	require.NoError(t, err)
	require.Len(t, aggregates, 2)

	var sum int64
	for _, agg := range aggregates {
		assert.Equal(t, int64(1188), agg.TotalCents)
		sum += agg.TotalCents
	}
	assert.Equal(t, int64(2376), sum)

	monthly, lifetime := f.memberTotals(t, memberA.ID)
	assert.Equal(t, int64(1188), monthly)
	assert.Equal(t, int64(1188), lifetime)
}

func TestAssignItemsToMembers_IdempotentReassignment(t *testing.T) {
	f := newReceiptsFixture(t)
	householdID := uuid.New()
	memberA := f.addMember(t, householdID)
	memberB := f.addMember(t, householdID)
	receipt := f.addReceipt(t, householdID)
	item := f.addItem(t, receipt.ID, 2, 2000)

	input := AssignInput{
		ReceiptID: receipt.ID,
		Items: []ItemAssignments{{
			ItemID: item.ID,
			Assignments: []apportion.Assignment{
				{MemberID: memberA.ID, Qty: decimal.NewFromInt(1)},
				{MemberID: memberB.ID, Qty: decimal.NewFromInt(1)},
			},
		}},
		ServiceChargeRate: decimal.RequireFromString("0.10"),
		TaxRate:           decimal.RequireFromString("0.08"),
	}

	_, err := f.svc.AssignItemsToMembers(context.Background(), input)
	require.NoError(t, err)
	_, err = f.svc.AssignItemsToMembers(context.Background(), input)
	require.NoError(t, err)

	monthlyA, lifetimeA := f.memberTotals(t, memberA.ID)
	assert.Equal(t, int64(1188), monthlyA, "second identical call must not double-count")
	assert.Equal(t, int64(1188), lifetimeA)

	var rowCount int64
	require.NoError(t, f.db.Model(&models.ReceiptItemAssignment{}).Count(&rowCount).Error)
	assert.Equal(t, int64(2), rowCount, "allocation rows are replaced, not accumulated")
}

func TestAssignItemsToMembers_ReassignmentMovesDeltas(t *testing.T) {
	f := newReceiptsFixture(t)
	householdID := uuid.New()
	memberA := f.addMember(t, householdID)
	memberB := f.addMember(t, householdID)
	receipt := f.addReceipt(t, householdID)
	item := f.addItem(t, receipt.ID, 2, 2000)

	split := func(assignments []apportion.Assignment) AssignInput {
		return AssignInput{
			ReceiptID:         receipt.ID,
			Items:             []ItemAssignments{{ItemID: item.ID, Assignments: assignments}},
			ServiceChargeRate: decimal.RequireFromString("0.10"),
			TaxRate:           decimal.RequireFromString("0.08"),
		}
	}

	_, err := f.svc.AssignItemsToMembers(context.Background(), split([]apportion.Assignment{
		{MemberID: memberA.ID, Qty: decimal.NewFromInt(1)},
		{MemberID: memberB.ID, Qty: decimal.NewFromInt(1)},
	}))
	require.NoError(t, err)

	// Re-assign the whole item to A. B's share must be clawed back.
	_, err = f.svc.AssignItemsToMembers(context.Background(), split([]apportion.Assignment{
		{MemberID: memberA.ID, Qty: decimal.NewFromInt(2)},
	}))
	require.NoError(t, err)

	monthlyA, _ := f.memberTotals(t, memberA.ID)
	monthlyB, _ := f.memberTotals(t, memberB.ID)
	assert.Equal(t, int64(2376), monthlyA)
	assert.Equal(t, int64(0), monthlyB)
}

func TestAssignItemsToMembers_UntouchedItemsCarryForward(t *testing.T) {
	f := newReceiptsFixture(t)
	householdID := uuid.New()
	member := f.addMember(t, householdID)
	receipt := f.addReceipt(t, householdID)
	itemOne := f.addItem(t, receipt.ID, 1, 1000)
	itemTwo := f.addItem(t, receipt.ID, 1, 500)

	assignOne := func(itemID uuid.UUID) AssignInput {
		return AssignInput{
			ReceiptID: receipt.ID,
			Items: []ItemAssignments{{
				ItemID:      itemID,
				Assignments: []apportion.Assignment{{MemberID: member.ID, Qty: decimal.NewFromInt(1)}},
			}},
		}
	}

	_, err := f.svc.AssignItemsToMembers(context.Background(), assignOne(itemOne.ID))
	require.NoError(t, err)

	aggregates, err := f.svc.AssignItemsToMembers(context.Background(), assignOne(itemTwo.ID))
	require.NoError(t, err)
	require.Len(t, aggregates, 1)
	assert.Equal(t, int64(1500), aggregates[0].TotalCents)

	monthly, _ := f.memberTotals(t, member.ID)
	assert.Equal(t, int64(1500), monthly)
}

func TestAssignItemsToMembers_Failures(t *testing.T) {
	f := newReceiptsFixture(t)
	householdID := uuid.New()
	member := f.addMember(t, householdID)
	outsider := f.addMember(t, uuid.New())
	receipt := f.addReceipt(t, householdID)
	item := f.addItem(t, receipt.ID, 1, 1000)

	t.Run("unknown receipt", func(t *testing.T) {
		_, err := f.svc.AssignItemsToMembers(context.Background(), AssignInput{
			ReceiptID: uuid.New(),
			Items: []ItemAssignments{{
				ItemID:      item.ID,
				Assignments: []apportion.Assignment{{MemberID: member.ID, Qty: decimal.NewFromInt(1)}},
			}},
		})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	})

	t.Run("item from another receipt", func(t *testing.T) {
		_, err := f.svc.AssignItemsToMembers(context.Background(), AssignInput{
			ReceiptID: receipt.ID,
			Items: []ItemAssignments{{
				ItemID:      uuid.New(),
				Assignments: []apportion.Assignment{{MemberID: member.ID, Qty: decimal.NewFromInt(1)}},
			}},
		})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	})

	t.Run("member outside household", func(t *testing.T) {
		_, err := f.svc.AssignItemsToMembers(context.Background(), AssignInput{
			ReceiptID: receipt.ID,
			Items: []ItemAssignments{{
				ItemID:      item.ID,
				Assignments: []apportion.Assignment{{MemberID: outsider.ID, Qty: decimal.NewFromInt(1)}},
			}},
		})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	})

	t.Run("over-assignment leaves no rows behind", func(t *testing.T) {
		_, err := f.svc.AssignItemsToMembers(context.Background(), AssignInput{
			ReceiptID: receipt.ID,
			Items: []ItemAssignments{{
				ItemID:      item.ID,
				Assignments: []apportion.Assignment{{MemberID: member.ID, Qty: decimal.NewFromInt(5)}},
			}},
		})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

		var rowCount int64
		require.NoError(t, f.db.Model(&models.ReceiptItemAssignment{}).Count(&rowCount).Error)
		assert.Equal(t, int64(0), rowCount)

		monthly, _ := f.memberTotals(t, member.ID)
		assert.Equal(t, int64(0), monthly)
	})
}

func TestConfirm_StampsTotalAndPublishes(t *testing.T) {
	f := newReceiptsFixture(t)
	householdID := uuid.New()
	receipt := f.addReceipt(t, householdID)
	f.addItem(t, receipt.ID, 2, 2000)
	f.addItem(t, receipt.ID, 1, 550)
	actingUser := uuid.New()

	confirmed, err := f.svc.Confirm(context.Background(), receipt.ID, actingUser)
	require.NoError(t, err)
	assert.Equal(t, enums.ReceiptStatusConfirmed, confirmed.Status)
	assert.Equal(t, int64(2550), confirmed.TotalCents)
	assert.NotNil(t, confirmed.ConfirmedAt)

	require.Len(t, f.publisher.published, 1)
	evt, ok := f.publisher.published[0].(events.ReceiptScanned)
	require.True(t, ok)
	assert.Equal(t, receipt.ID, evt.ReceiptID)
	assert.Equal(t, householdID, evt.HouseholdID)
	assert.Equal(t, actingUser, evt.UserID)

	// Confirming again is a state conflict and publishes nothing further.
	_, err = f.svc.Confirm(context.Background(), receipt.ID, actingUser)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Len(t, f.publisher.published, 1)
}

func TestConfirm_RejectsEmptyReceipt(t *testing.T) {
	f := newReceiptsFixture(t)
	receipt := f.addReceipt(t, uuid.New())

	_, err := f.svc.Confirm(context.Background(), receipt.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAddItem_LineNumbersAndDraftGuard(t *testing.T) {
	f := newReceiptsFixture(t)
	receipt := f.addReceipt(t, uuid.New())

	first := f.addItem(t, receipt.ID, 1, 100)
	second := f.addItem(t, receipt.ID, 1, 200)
	assert.Equal(t, 1, first.LineNumber)
	assert.Equal(t, 2, second.LineNumber)

	_, err := f.svc.Confirm(context.Background(), receipt.ID, uuid.New())
	require.NoError(t, err)

	_, err = f.svc.AddItem(context.Background(), receipt.ID, AddItemInput{Name: "late", Quantity: 1, TotalCents: 100})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}
