package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// HouseholdMember links a user with a household and carries the member's
// expenditure counters and progression state. Monetary and progression fields
// are mutated only by the receipt assignment and quest services; Version guards
// those updates with optimistic concurrency.
type HouseholdMember struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID uuid.UUID        `gorm:"column:household_id;type:uuid;not null;uniqueIndex:household_members_household_user_key,priority:1"`
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:household_members_household_user_key,priority:2"`
	Role        enums.MemberRole `gorm:"column:role;type:member_role;not null"`

	MonthlyExpenditureCents  int64      `gorm:"column:monthly_expenditure_cents;not null;default:0"`
	LifetimeExpenditureCents int64      `gorm:"column:lifetime_expenditure_cents;not null;default:0"`
	LastExpenditureUpdate    *time.Time `gorm:"column:last_expenditure_update"`

	XP              int        `gorm:"column:xp;not null;default:0"`
	Streak          int        `gorm:"column:streak;not null;default:0"`
	LastStreakDate  *time.Time `gorm:"column:last_streak_date"`
	QuestsCompleted int        `gorm:"column:quests_completed;not null;default:0"`

	Version   int       `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
