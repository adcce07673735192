package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tellsiddh/collections/internal/collection"
	"github.com/tellsiddh/collections/internal/domain"
)

const sampleExport = `[
  {"id":"b","url":"https://reddit.com/r/golang","title":"Reddit Post","notes":"","dateAdded":"2025-03-14T09:26:53.589Z","hostname":"reddit.com"},
  {"id":"a","url":"https://example.com","title":"example.com","notes":"first","dateAdded":"2025-03-13T08:00:00.000Z","hostname":"example.com"}
]`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("COLLECTIONS_STORAGE_BACKEND", "badger")
	t.Setenv("COLLECTIONS_BADGER_DIR", filepath.Join(dir, "data"))
	t.Setenv("COLLECTIONS_LOG_LEVEL", "error")
	t.Setenv("COLLECTIONS_PRETTY_LOG", "false")
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	// Flags are package globals and survive between runs.
	exportOut, importFile = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestImportThenExport(t *testing.T) {
	dir := setupEnv(t)
	in := writeFile(t, dir, "in.json", sampleExport)

	out, err := execute(t, "", "import", "--file", in)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "Imported 2 items") {
		t.Errorf("import output = %q", out)
	}

	out, err = execute(t, "", "export")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var items []domain.Item
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("export is not JSON: %v\n%s", err, out)
	}
	if len(items) != 2 || items[0].ID != "b" || items[1].Notes != "first" {
		t.Errorf("exported items = %+v", items)
	}
}

func TestExportToFile(t *testing.T) {
	dir := setupEnv(t)
	if _, err := execute(t, sampleExport, "import", "--file", "-"); err != nil {
		t.Fatalf("import from stdin failed: %v", err)
	}

	path := filepath.Join(dir, "out.json")
	if _, err := execute(t, "", "export", "--out", path); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export file missing: %v", err)
	}
	var items []domain.Item
	if err := json.Unmarshal(data, &items); err != nil || len(items) != 2 {
		t.Errorf("export file = %s (%v)", data, err)
	}
}

func TestImportRejectsNonArray(t *testing.T) {
	dir := setupEnv(t)
	if _, err := execute(t, sampleExport, "import", "--file", "-"); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	bad := writeFile(t, dir, "bad.json", `{"id":"x"}`)
	_, err := execute(t, "", "import", "--file", bad)
	if !errors.Is(err, collection.ErrInvalidImport) {
		t.Fatalf("import error = %v, want ErrInvalidImport", err)
	}

	out, err := execute(t, "", "export")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var items []domain.Item
	if err := json.Unmarshal([]byte(out), &items); err != nil || len(items) != 2 {
		t.Errorf("collection changed after rejected import: %s", out)
	}
}

func TestImportMissingFile(t *testing.T) {
	dir := setupEnv(t)
	_, err := execute(t, "", "import", "--file", filepath.Join(dir, "nope.json"))
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error = %v, want read failure", err)
	}
}

func TestEmptyExport(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "", "export")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("export of empty collection = %q, want []", out)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "", "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(out, "commit=") {
		t.Errorf("version output = %q", out)
	}
}
