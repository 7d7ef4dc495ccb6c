package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// MemberQuest is the per-member progress record for a catalog quest. At most one
// unclaimed instance may exist per (member, quest); repeatable quests get a new
// row after the previous one is claimed.
type MemberQuest struct {
	ID       uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID uuid.UUID         `gorm:"column:member_id;type:uuid;not null;index:member_quests_member_quest_idx,priority:1"`
	QuestID  uuid.UUID         `gorm:"column:quest_id;type:uuid;not null;index:member_quests_member_quest_idx,priority:2"`
	Status   enums.QuestStatus `gorm:"column:status;type:quest_status;not null;default:'in_progress'"`
	Progress int               `gorm:"column:progress;not null;default:0"`

	AssignedAt  time.Time  `gorm:"column:assigned_at;not null"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	ClaimedAt   *time.Time `gorm:"column:claimed_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
