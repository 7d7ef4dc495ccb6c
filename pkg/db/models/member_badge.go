package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/pkg/enums"
)

// MemberBadge records a milestone award. Created once, never mutated; the unique
// index makes repeated grants idempotent.
type MemberBadge struct {
	ID       uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID uuid.UUID   `gorm:"column:member_id;type:uuid;not null;uniqueIndex:member_badges_member_badge_key,priority:1"`
	Badge    enums.Badge `gorm:"column:badge;type:badge;not null;uniqueIndex:member_badges_member_badge_key,priority:2"`
	EarnedAt time.Time   `gorm:"column:earned_at;not null"`
}
