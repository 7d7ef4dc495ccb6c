package enums

import "fmt"

// QuestDifficulty grades catalog quests for display and XP scaling.
type QuestDifficulty string

const (
	QuestDifficultyEasy   QuestDifficulty = "easy"
	QuestDifficultyMedium QuestDifficulty = "medium"
	QuestDifficultyHard   QuestDifficulty = "hard"
)

var validQuestDifficulties = []QuestDifficulty{
	QuestDifficultyEasy,
	QuestDifficultyMedium,
	QuestDifficultyHard,
}

// String implements fmt.Stringer.
func (q QuestDifficulty) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuestDifficulty.
func (q QuestDifficulty) IsValid() bool {
	for _, candidate := range validQuestDifficulties {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuestDifficulty converts raw input into a QuestDifficulty.
func ParseQuestDifficulty(value string) (QuestDifficulty, error) {
	for _, candidate := range validQuestDifficulties {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quest difficulty %q", value)
}
