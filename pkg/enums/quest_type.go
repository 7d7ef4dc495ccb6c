package enums

import "fmt"

// QuestType classifies how a quest's progression window behaves.
type QuestType string

const (
	QuestTypeDaily  QuestType = "daily"
	QuestTypeWeekly QuestType = "weekly"
	QuestTypeTimed  QuestType = "timed"
)

var validQuestTypes = []QuestType{
	QuestTypeDaily,
	QuestTypeWeekly,
	QuestTypeTimed,
}

// String implements fmt.Stringer.
func (q QuestType) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuestType.
func (q QuestType) IsValid() bool {
	for _, candidate := range validQuestTypes {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuestType converts raw input into a QuestType.
func ParseQuestType(value string) (QuestType, error) {
	for _, candidate := range validQuestTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quest type %q", value)
}
