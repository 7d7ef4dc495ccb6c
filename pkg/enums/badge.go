package enums

// Badge identifies a milestone award. Grants are idempotent; a member holds each
// badge at most once.
type Badge string

const (
	BadgeFirstQuest    Badge = "first_quest"
	BadgeQuestNovice   Badge = "quest_novice"
	BadgeQuestVeteran  Badge = "quest_veteran"
	BadgeQuestMaster   Badge = "quest_master"
	BadgeStreakWeek    Badge = "streak_week"
	BadgeStreakMonth   Badge = "streak_month"
	BadgeStreakCentury Badge = "streak_century"
)

var validBadges = []Badge{
	BadgeFirstQuest,
	BadgeQuestNovice,
	BadgeQuestVeteran,
	BadgeQuestMaster,
	BadgeStreakWeek,
	BadgeStreakMonth,
	BadgeStreakCentury,
}

// String implements fmt.Stringer.
func (b Badge) String() string {
	return string(b)
}

// IsValid reports whether the value is a known Badge.
func (b Badge) IsValid() bool {
	for _, candidate := range validBadges {
		if candidate == b {
			return true
		}
	}
	return false
}
