package importer

import (
	"context"
	"testing"

	"sqlshelf/internal/config"
	"sqlshelf/internal/importer/source"
	"sqlshelf/internal/sqlitedb"
)

// fakeReader feeds an in-memory row list for one named sheet, standing in
// for a real source.Reader so these tests exercise Run's protocol without
// touching the filesystem.
type fakeReader struct {
	sheet string
	rows  []source.Row
}

func (f *fakeReader) Open(path string) (source.Info, error) {
	return source.Info{Sheets: []source.SheetInfo{{Name: f.sheet, Rows: int64(len(f.rows))}}}, nil
}

func (f *fakeReader) Sheet(name string) (source.RowIterator, error) {
	if name != f.sheet {
		return nil, &source.NotFoundError{Sheet: name}
	}
	return &fakeIterator{rows: f.rows}, nil
}

type fakeIterator struct {
	rows []source.Row
	pos  int
}

func (it *fakeIterator) Next() (source.Row, bool, error) {
	if it.pos >= len(it.rows) {
		return source.Row{}, false, nil
	}
	r := it.rows[it.pos]
	it.pos++
	return r, true, nil
}

func (it *fakeIterator) Close() error { return nil }

func openTestDB(t *testing.T) *sqlitedb.DB {
	t.Helper()
	db, err := sqlitedb.Open(context.Background(), sqlitedb.Options{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunIgnoreErrorsContinuesAndReleasesSavepoint(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if _, err := db.Execute(ctx, `CREATE TABLE t (id INTEGER PRIMARY KEY, n INTEGER NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	reader := &fakeReader{
		sheet: "sheet1",
		rows: []source.Row{
			{Named: map[string]any{"n": int64(1)}},
			{Named: map[string]any{"n": nil}}, // violates NOT NULL
			{Named: map[string]any{"n": int64(3)}},
		},
	}
	mapping := SheetMapping{
		SheetName:   "sheet1",
		TargetTable: "t",
		Columns:     []ColumnMapping{{SourceName: "n", TargetColumn: "n"}},
	}

	calls := 0
	progress := func(p Progress) Decision {
		calls++
		return DecisionContinue
	}

	result, err := Run(ctx, db, config.DefaultImport(), reader, "rows.json", []SheetMapping{mapping}, progress)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.CountPerTable["t"] != 2 {
		t.Fatalf("count = %d, want 2", result.CountPerTable["t"])
	}
	if result.ErrorsPerTable["t"] != 1 {
		t.Fatalf("errorcount = %d, want 1", result.ErrorsPerTable["t"])
	}
	if calls != 4 {
		t.Fatalf("progress called %d times, want 4 (two inserted rows, one error, one done)", calls)
	}

	var count int
	row := db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM t")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 2 {
		t.Fatalf("rows in table = %d, want 2 (one row skipped on error)", count)
	}
}

func TestRunRollbackUndoesEverything(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if _, err := db.Execute(ctx, `CREATE TABLE t (id INTEGER PRIMARY KEY, n INTEGER NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	reader := &fakeReader{
		sheet: "sheet1",
		rows: []source.Row{
			{Named: map[string]any{"n": nil}}, // first row already errors
		},
	}
	mapping := SheetMapping{
		SheetName:   "sheet1",
		TargetTable: "t",
		Columns:     []ColumnMapping{{SourceName: "n", TargetColumn: "n"}},
	}

	result, err := Run(ctx, db, config.DefaultImport(), reader, "rows.json", []SheetMapping{mapping}, func(Progress) Decision {
		return DecisionRollback
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.CountPerTable["t"] != 0 {
		t.Fatalf("count = %d, want 0", result.CountPerTable["t"])
	}
	if result.ErrorsPerTable["t"] != 1 {
		t.Fatalf("errorcount = %d, want 1", result.ErrorsPerTable["t"])
	}

	var count int
	row := db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM t")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 0 {
		t.Fatalf("rows in table = %d, want 0 after rollback", count)
	}
}

func TestRunCreatesTableWithUniquifiedColumns(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	reader := &fakeReader{
		sheet: "sheet1",
		rows: []source.Row{
			{Values: []any{"alice"}},
		},
	}
	mapping := SheetMapping{
		SheetName:            "sheet1",
		TargetTable:          "people",
		CreateTable:          true,
		AutoIncrementColumn:  "id",
		NewColumns:           []NewColumn{{Name: "name", Type: "TEXT"}, {Name: "id", Type: "TEXT"}},
		Columns:              []ColumnMapping{{SourceIndex: 0, TargetColumn: "name"}},
	}

	result, err := Run(ctx, db, config.DefaultImport(), reader, "people.csv", []SheetMapping{mapping}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.CountPerTable["people"] != 1 {
		t.Fatalf("count = %d, want 1", result.CountPerTable["people"])
	}

	var colCount int
	row := db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM pragma_table_info('people')")
	if err := row.Scan(&colCount); err != nil {
		t.Fatalf("scan: %v", err)
	}
	// id (autoincrement pk), name, and id_2 (the uniquified second "id" column)
	if colCount != 3 {
		t.Fatalf("column count = %d, want 3", colCount)
	}
}

func TestHeaderRowSkipsFirstRowAndSingleRowSheetImportsNothing(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if _, err := db.Execute(ctx, `CREATE TABLE t (n TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	reader := &fakeReader{
		sheet: "sheet1",
		rows:  []source.Row{{Values: []any{"n"}}}, // only the header row
	}
	mapping := SheetMapping{
		SheetName:   "sheet1",
		TargetTable: "t",
		HeaderRow:   true,
		Columns:     []ColumnMapping{{SourceIndex: 0, TargetColumn: "n"}},
	}

	doneSeen := false
	result, err := Run(ctx, db, config.DefaultImport(), reader, "t.csv", []SheetMapping{mapping}, func(p Progress) Decision {
		if p.Done {
			doneSeen = true
		}
		return DecisionContinue
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.CountPerTable["t"] != 0 {
		t.Fatalf("count = %d, want 0", result.CountPerTable["t"])
	}
	if !doneSeen {
		t.Fatalf("expected a done=true progress callback")
	}
}

func TestDetectFormatRejectsUnknownExtension(t *testing.T) {
	_, err := DetectFormat("data.xyz")
	if err == nil {
		t.Fatalf("expected an error for an unrecognized extension")
	}
}

func TestDetectFormatRecognizesEachSupportedExtension(t *testing.T) {
	for _, ext := range []string{".csv", ".json", ".yaml", ".yml", ".xlsx"} {
		if _, err := DetectFormat("data" + ext); err != nil {
			t.Errorf("DetectFormat(%q): %v", ext, err)
		}
	}
}
