package sqlitedb

import (
	"context"
	"testing"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Options{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMasterRowsReflectsCreatedTable(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	if _, err := db.Execute(ctx, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	rows, err := db.MasterRows(ctx)
	if err != nil {
		t.Fatalf("MasterRows: %v", err)
	}
	found := false
	for _, r := range rows {
		if r.Type == "table" && r.Name == "widgets" {
			found = true
		}
	}
	if !found {
		t.Fatalf("widgets table not found in %+v", rows)
	}
}

func TestExecuteScriptRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	if _, err := db.Execute(ctx, `CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	err := db.ExecuteScript(ctx, "TEST", []string{
		`INSERT INTO t (id) VALUES (1)`,
		`INSERT INTO not_a_table (id) VALUES (1)`,
	})
	if err == nil {
		t.Fatalf("expected ExecuteScript to fail on the second statement")
	}

	var count int
	row := db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM t`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0 (rollback should have undone the first insert)", count)
	}
}

func TestLockConflictsAcrossOwners(t *testing.T) {
	db := openMemory(t)

	if err := db.Lock("table", "widgets", "owner-a"); err != nil {
		t.Fatalf("Lock(owner-a): %v", err)
	}
	if err := db.Lock("table", "widgets", "owner-a"); err != nil {
		t.Fatalf("re-Lock by same owner should not conflict: %v", err)
	}
	if err := db.Lock("table", "widgets", "owner-b"); err == nil {
		t.Fatalf("expected Lock by a different owner to conflict")
	}

	db.Unlock("table", "widgets", "owner-a")
	if err := db.Lock("table", "widgets", "owner-b"); err != nil {
		t.Fatalf("Lock after Unlock: %v", err)
	}
}
