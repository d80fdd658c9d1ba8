package jsonsrc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReaderReadsNamedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	body := `[{"name":"alice","age":30},{"name":"bob","age":40}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New()
	info, err := r.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if info.Format != "json" || len(info.Sheets) != 1 {
		t.Fatalf("unexpected info: %+v", info)
	}

	it, err := r.Sheet(info.Sheets[0].Name)
	if err != nil {
		t.Fatalf("Sheet: %v", err)
	}
	defer it.Close()

	var names []string
	for {
		row, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		name, _ := row.Named["name"].(string)
		names = append(names, name)
	}
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Fatalf("names = %+v", names)
	}
}

func TestReaderRejectsNonArrayTopLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	if err := os.WriteFile(path, []byte(`{"name":"alice"}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r := New()
	if _, err := r.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.Sheet(sheetName); err == nil {
		t.Fatalf("expected an error for a non-array top-level JSON value")
	}
}
