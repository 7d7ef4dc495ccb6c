package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// Quest is immutable catalog data seeded by migration. Category is nil for
// category-agnostic quests that advance on any matching event.
type Quest struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type             enums.QuestType        `gorm:"column:type;type:quest_type;not null"`
	Title            string                 `gorm:"column:title;not null"`
	Description      string                 `gorm:"column:description;not null"`
	XPReward         int                    `gorm:"column:xp_reward;not null"`
	Target           int                    `gorm:"column:target;not null"`
	Difficulty       enums.QuestDifficulty  `gorm:"column:difficulty;type:quest_difficulty;not null"`
	Category         *enums.ExpenseCategory `gorm:"column:category;type:expense_category"`
	TimeLimitSeconds *int                   `gorm:"column:time_limit_seconds"`
	Repeatable       bool                   `gorm:"column:repeatable;not null;default:false"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
}
