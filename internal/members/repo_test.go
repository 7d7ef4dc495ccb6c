package members

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

func setupMembersTestDB(t *testing.T) *gorm.DB {
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
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newMember(t *testing.T, db *gorm.DB) *models.HouseholdMember {
	t.Helper()
	member := &models.HouseholdMember{
		ID:          uuid.New(),
		HouseholdID: uuid.New(),
		UserID:      uuid.New(),
		Role:        enums.MemberRoleMember,
	}
	require.NoError(t, db.Create(member).Error)
	return member
}

func TestRepository_UpdateCountersAppliesDeltas(t *testing.T) {
	db := setupMembersTestDB(t)
	repo := NewRepository(db)
	member := newMember(t, db)

	ok, err := repo.UpdateCounters(context.Background(), member.ID, 0, CounterUpdate{
		MonthlyExpenditureDeltaCents:  1188,
		LifetimeExpenditureDeltaCents: 1188,
		XPDelta:                       50,
		QuestsCompletedDelta:          1,
		TouchExpenditureUpdate:        true,
		Now:                           time.Now().UTC(),
	})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1188), got.MonthlyExpenditureCents)
	assert.Equal(t, int64(1188), got.LifetimeExpenditureCents)
	assert.Equal(t, 50, got.XP)
	assert.Equal(t, 1, got.QuestsCompleted)
	assert.Equal(t, 1, got.Version)
	assert.NotNil(t, got.LastExpenditureUpdate)
}

func TestRepository_UpdateCountersRejectsStaleVersion(t *testing.T) {
	db := setupMembersTestDB(t)
	repo := NewRepository(db)
	member := newMember(t, db)

	ok, err := repo.UpdateCounters(context.Background(), member.ID, 0, CounterUpdate{XPDelta: 10})
	require.NoError(t, err)
	require.True(t, ok)

	// Same expected version again: a concurrent writer already bumped it.
	ok, err = repo.UpdateCounters(context.Background(), member.ID, 0, CounterUpdate{XPDelta: 10})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.XP, "stale update must not double-apply")
}

func TestRepository_GetByUserAndHousehold(t *testing.T) {
	db := setupMembersTestDB(t)
	repo := NewRepository(db)
	member := newMember(t, db)

	got, err := repo.GetByUserAndHousehold(context.Background(), member.UserID, member.HouseholdID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, member.ID, got.ID)

	missing, err := repo.GetByUserAndHousehold(context.Background(), uuid.New(), member.HouseholdID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
