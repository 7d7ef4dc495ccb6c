package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hearthapp/hearthledger-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestMembersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_households.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS household_members",
		"FOREIGN KEY (household_id) REFERENCES households(id) ON DELETE CASCADE",
		"version INTEGER NOT NULL DEFAULT 0",
		"household_members_household_user_key",
		"DROP TABLE IF EXISTS household_members",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestBudgetsMigrationEnforcesUniqueness(t *testing.T) {
	content := readMigration(t, "*_create_budgets.sql")

	checks := []string{
		"budgets_household_category_month_key",
		"ON budgets (household_id, category, month)",
		"CHECK (limit_cents >= 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReceiptsMigrationCascades(t *testing.T) {
	content := readMigration(t, "*_create_receipts.sql")

	checks := []string{
		"FOREIGN KEY (receipt_id) REFERENCES receipts(id) ON DELETE CASCADE",
		"FOREIGN KEY (receipt_item_id) REFERENCES receipt_items(id) ON DELETE CASCADE",
		"assigned_qty NUMERIC(12,4) NOT NULL DEFAULT 1",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestQuestsMigrationGuardsIdempotency(t *testing.T) {
	content := readMigration(t, "*_create_quests.sql")

	checks := []string{
		"member_badges_member_badge_key",
		"member_quests_single_open_key",
		"WHERE status <> 'claimed'",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestQuestSeedCoversEveryType(t *testing.T) {
	content := readMigration(t, "*_seed_quest_catalog.sql")

	for _, questType := range []string{"'daily'", "'weekly'", "'timed'"} {
		if !strings.Contains(content, questType) {
			t.Errorf("seed is missing quest type %s", questType)
		}
	}
}
