package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retoro-app/retoro-backend/pkg/migrate"
)

func TestReturnItemsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_return_items.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no return items migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS return_items",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		"FOREIGN KEY (retailer_id) REFERENCES retailer_policies(id)",
		"CHECK (NOT (is_returned AND is_kept))",
		"CREATE INDEX IF NOT EXISTS idx_return_items_return_deadline",
		"DROP TABLE IF EXISTS return_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migration dir invalid: %v", err)
	}
}
