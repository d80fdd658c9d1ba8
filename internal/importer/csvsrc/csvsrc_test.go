package csvsrc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReaderReadsRowsPositionally(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("name,age\nalice,30\nbob,40\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New()
	info, err := r.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if info.Format != "csv" {
		t.Fatalf("Format = %q, want csv", info.Format)
	}
	if len(info.Sheets) != 1 || info.Sheets[0].Rows != -1 {
		t.Fatalf("unexpected sheets: %+v", info.Sheets)
	}

	it, err := r.Sheet(info.Sheets[0].Name)
	if err != nil {
		t.Fatalf("Sheet: %v", err)
	}
	defer it.Close()

	var rows [][]any
	for {
		row, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		rows = append(rows, row.Values)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3 (header + 2 data rows, header filtering is the caller's job)", len(rows))
	}
	if rows[1][0] != "alice" || rows[1][1] != "30" {
		t.Fatalf("unexpected row 1: %+v", rows[1])
	}
}

func TestSheetRejectsUnknownName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("a\n1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r := New()
	if _, err := r.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.Sheet("nope"); err == nil {
		t.Fatalf("expected an error for an unknown sheet name")
	}
}
