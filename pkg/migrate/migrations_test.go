package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestTransaccionesMigrationCreatesCounters(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_transacciones.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one transacciones migration, got %d", len(matches))
	}

	b, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	txt := string(b)

	for _, want := range []string{
		"CREATE TABLE transaction_counters",
		"CREATE TABLE transacciones",
		"CREATE UNIQUE INDEX idx_transacciones_numero",
		"CHECK (monto > 0)",
	} {
		if !strings.Contains(txt, want) {
			t.Fatalf("migration missing %q", want)
		}
	}
}

func TestPersonasMigrationEnforcesGlobalDocumentUniqueness(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_personas.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one personas migration, got %d", len(matches))
	}

	b, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	txt := string(b)

	if !strings.Contains(txt, "CREATE UNIQUE INDEX idx_personas_numero_documento ON personas (numero_documento)") {
		t.Fatal("numero_documento must be globally unique")
	}
	if strings.Contains(txt, "(user_id, numero_documento)") {
		t.Fatal("document uniqueness must not be scoped by owner")
	}
}
