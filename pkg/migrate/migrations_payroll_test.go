package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davronbekov/taxipark-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestSalaryMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_driver_salaries.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no driver salaries migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS driver_salaries",
		"CHECK (amount > 0)",
		"FOREIGN KEY (driver_id) REFERENCES drivers(id)",
		"FOREIGN KEY (transaction_id) REFERENCES transactions(id)",
		"DROP TABLE IF EXISTS driver_salaries",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestTransactionMigrationKeepsCompensatingLink(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_transactions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no transactions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "original_transaction_id uuid") {
		t.Error("missing original_transaction_id column")
	}
	if !strings.Contains(content, "FOREIGN KEY (original_transaction_id) REFERENCES transactions(id)") {
		t.Error("missing self-referencing compensating entry constraint")
	}
}
