package enums

import "fmt"

// QuestStatus tracks a member quest through its lifecycle. Transitions only move
// forward: in_progress -> completed -> claimed.
type QuestStatus string

const (
	QuestStatusInProgress QuestStatus = "in_progress"
	QuestStatusCompleted  QuestStatus = "completed"
	QuestStatusClaimed    QuestStatus = "claimed"
)

var validQuestStatuses = []QuestStatus{
	QuestStatusInProgress,
	QuestStatusCompleted,
	QuestStatusClaimed,
}

// String implements fmt.Stringer.
func (q QuestStatus) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuestStatus.
func (q QuestStatus) IsValid() bool {
	for _, candidate := range validQuestStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the forward-only lifecycle permits the move.
func (q QuestStatus) CanTransitionTo(next QuestStatus) bool {
	switch q {
	case QuestStatusInProgress:
		return next == QuestStatusCompleted
	case QuestStatusCompleted:
		return next == QuestStatusClaimed
	default:
		return false
	}
}

// ParseQuestStatus converts raw input into a QuestStatus.
func ParseQuestStatus(value string) (QuestStatus, error) {
	for _, candidate := range validQuestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quest status %q", value)
}
