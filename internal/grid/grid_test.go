package grid

import (
	"context"
	"testing"

	"sqlshelf/internal/catalogue"
	"sqlshelf/internal/config"
	"sqlshelf/internal/core"
	"sqlshelf/internal/sqlitedb"
)

func setupTable(t *testing.T, ddl string, seed []string) (*sqlitedb.DB, *core.Table) {
	t.Helper()
	ctx := context.Background()
	db, err := sqlitedb.Open(ctx, sqlitedb.Options{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Execute(ctx, ddl); err != nil {
		t.Fatalf("Execute DDL: %v", err)
	}
	for _, s := range seed {
		if _, err := db.Execute(ctx, s); err != nil {
			t.Fatalf("Execute seed: %v", err)
		}
	}
	cat := catalogue.New(db)
	if _, err := cat.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	tbl, ok := cat.Current().Get(core.CategoryTable, "widgets")
	if !ok {
		t.Fatalf("widgets table not found")
	}
	return db, tbl.(*core.Table)
}

func smallCfg() config.Grid {
	return config.Grid{SeekChunk: 10, MaxRows: 1000, ScrollTriggerFraction: 0.8}
}

func TestConstructMaterializesSeededRows(t *testing.T) {
	ctx := context.Background()
	db, tbl := setupTable(t, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT, qty REAL)`, []string{
		`INSERT INTO widgets (name, qty) VALUES ('bolt', 1.5)`,
		`INSERT INTO widgets (name, qty) VALUES ('nut', 2.0)`,
	})
	g, err := Construct(ctx, db, tbl, smallCfg())
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if !g.Complete() {
		t.Fatalf("expected grid to be complete after materializing all seed rows")
	}
	if g.RowCount() != 2 {
		t.Fatalf("RowCount = %d, want 2", g.RowCount())
	}
	v, err := g.ValueAt(0, "name")
	if err != nil || v != "bolt" {
		t.Fatalf("ValueAt(0,name) = %v, %v", v, err)
	}
}

func TestSetValueAndCommitPersists(t *testing.T) {
	ctx := context.Background()
	db, tbl := setupTable(t, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)`, []string{
		`INSERT INTO widgets (name) VALUES ('bolt')`,
	})
	g, err := Construct(ctx, db, tbl, smallCfg())
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if err := g.SetValue(0, "name", "bolt-renamed"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := g.Commit(ctx, "GRIDTEST"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var name string
	row := db.Conn().QueryRowContext(ctx, `SELECT name FROM widgets WHERE id = 1`)
	if err := row.Scan(&name); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if name != "bolt-renamed" {
		t.Fatalf("persisted name = %q, want bolt-renamed", name)
	}
}

func TestInsertRowThenRollbackDiscardsIt(t *testing.T) {
	ctx := context.Background()
	db, tbl := setupTable(t, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)`, nil)
	g, err := Construct(ctx, db, tbl, smallCfg())
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	g.InsertRow(map[string]any{"name": "temp"})
	if g.RowCount() != 1 {
		t.Fatalf("RowCount after insert = %d, want 1", g.RowCount())
	}
	g.Rollback()
	if g.RowCount() != 0 {
		t.Fatalf("RowCount after rollback = %d, want 0", g.RowCount())
	}
}

func TestInsertRowThenCommitAssignsRowID(t *testing.T) {
	ctx := context.Background()
	db, tbl := setupTable(t, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)`, nil)
	g, err := Construct(ctx, db, tbl, smallCfg())
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	g.InsertRow(map[string]any{"name": "fresh"})
	if err := g.Commit(ctx, "GRIDTEST"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	v, err := g.ValueAt(0, "id")
	if err != nil {
		t.Fatalf("ValueAt: %v", err)
	}
	if v == nil {
		t.Fatalf("expected id to be populated from last_insert_rowid after commit")
	}
}

func TestInsertRowOmitsUntouchedColumnSoDefaultApplies(t *testing.T) {
	ctx := context.Background()
	db, tbl := setupTable(t, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT, status TEXT DEFAULT 'pending')`, nil)
	g, err := Construct(ctx, db, tbl, smallCfg())
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	g.InsertRow(map[string]any{"name": "fresh"})
	if err := g.Commit(ctx, "GRIDTEST"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var status string
	row := db.Conn().QueryRowContext(ctx, `SELECT status FROM widgets WHERE name = 'fresh'`)
	if err := row.Scan(&status); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if status != "pending" {
		t.Fatalf("persisted status = %q, want the column DEFAULT %q", status, "pending")
	}

	v, err := g.ValueAt(0, "status")
	if err != nil {
		t.Fatalf("ValueAt: %v", err)
	}
	if v != "pending" {
		t.Fatalf("ValueAt(status) after commit = %v, want the re-selected DEFAULT %q", v, "pending")
	}
}

func TestDeleteRowOnNewRowDropsItImmediately(t *testing.T) {
	ctx := context.Background()
	db, tbl := setupTable(t, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)`, nil)
	g, err := Construct(ctx, db, tbl, smallCfg())
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	g.InsertRow(map[string]any{"name": "temp"})
	if err := g.DeleteRow(0); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if g.RowCount() != 0 {
		t.Fatalf("RowCount = %d, want 0", g.RowCount())
	}
	cs := g.GetChanges()
	if len(cs.NewIDs) != 0 || len(cs.DeletedIDs) != 0 {
		t.Fatalf("a never-committed row should leave no change-set trace: %+v", cs)
	}
}

func TestFilterAndSort(t *testing.T) {
	ctx := context.Background()
	db, tbl := setupTable(t, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT, qty REAL)`, []string{
		`INSERT INTO widgets (name, qty) VALUES ('bolt', 3)`,
		`INSERT INTO widgets (name, qty) VALUES ('anchor', 1)`,
		`INSERT INTO widgets (name, qty) VALUES ('nut', 2)`,
	})
	g, err := Construct(ctx, db, tbl, smallCfg())
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	g.Sort("qty")
	v, _ := g.ValueAt(0, "name")
	if v != "anchor" {
		t.Fatalf("ascending sort first row = %v, want anchor", v)
	}

	g.Sort("qty") // descending
	v, _ = g.ValueAt(0, "name")
	if v != "bolt" {
		t.Fatalf("descending sort first row = %v, want bolt", v)
	}

	g.Sort("qty") // third click clears sort, restores natural order
	v, _ = g.ValueAt(0, "name")
	if v != "bolt" {
		t.Fatalf("natural order first row = %v, want bolt", v)
	}

	g.Filter("an")
	if g.RowCount() != 1 {
		t.Fatalf("filtered RowCount = %d, want 1", g.RowCount())
	}
	v, _ = g.ValueAt(0, "name")
	if v != "anchor" {
		t.Fatalf("filtered row = %v, want anchor", v)
	}

	g.ClearFilter()
	if g.RowCount() != 3 {
		t.Fatalf("RowCount after ClearFilter = %d, want 3", g.RowCount())
	}
}

func TestSortOnTextColumnIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	db, tbl := setupTable(t, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)`, []string{
		`INSERT INTO widgets (name) VALUES ('banana')`,
		`INSERT INTO widgets (name) VALUES ('Apple')`,
		`INSERT INTO widgets (name) VALUES ('cherry')`,
	})
	g, err := Construct(ctx, db, tbl, smallCfg())
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	g.Sort("name")
	v, _ := g.ValueAt(0, "name")
	if v != "Apple" {
		t.Fatalf("ascending case-insensitive sort first row = %v, want Apple", v)
	}
}

func TestPasteExtendsGridWithNewRows(t *testing.T) {
	ctx := context.Background()
	db, tbl := setupTable(t, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)`, []string{
		`INSERT INTO widgets (name) VALUES ('bolt')`,
	})
	g, err := Construct(ctx, db, tbl, smallCfg())
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	err = g.Paste(0, []string{"name"}, [][]any{
		{"bolt-updated"},
		{"brand-new"},
	})
	if err != nil {
		t.Fatalf("Paste: %v", err)
	}
	if g.RowCount() != 2 {
		t.Fatalf("RowCount after paste = %d, want 2", g.RowCount())
	}
	v, _ := g.ValueAt(0, "name")
	if v != "bolt-updated" {
		t.Fatalf("ValueAt(0) = %v, want bolt-updated", v)
	}
	v, _ = g.ValueAt(1, "name")
	if v != "brand-new" {
		t.Fatalf("ValueAt(1) = %v, want brand-new", v)
	}
}
