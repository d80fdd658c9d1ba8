package grammar

import (
	"strings"
	"testing"

	"sqlshelf/internal/core"
)

func TestParseTableBasicColumns(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE people (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.Category != core.CategoryTable {
		t.Fatalf("Category = %v, want table", stmt.Category)
	}
	tbl := stmt.Table
	if tbl.Name != "people" {
		t.Fatalf("Name = %q", tbl.Name)
	}
	if len(tbl.Columns) != 4 {
		t.Fatalf("len(Columns) = %d, want 4", len(tbl.Columns))
	}
	if !tbl.Columns[0].Flags.PrimaryKey || !tbl.Columns[0].Flags.AutoIncrement {
		t.Fatalf("id column flags = %+v", tbl.Columns[0].Flags)
	}
	if !tbl.Columns[1].Flags.NotNull {
		t.Fatalf("name column should be NOT NULL")
	}
	if !tbl.Columns[2].Flags.Unique {
		t.Fatalf("email column should be UNIQUE")
	}
	if tbl.Columns[3].Default != "CURRENT_TIMESTAMP" {
		t.Fatalf("created_at default = %q", tbl.Columns[3].Default)
	}
}

func TestParseTableWithoutRowIDAndCompositeKey(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE pair (
		a INTEGER,
		b INTEGER,
		PRIMARY KEY (a, b)
	) WITHOUT ROWID`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tbl := stmt.Table
	if !tbl.WithoutRowID {
		t.Fatalf("expected WithoutRowID")
	}
	if len(tbl.Constraints) != 1 || tbl.Constraints[0].Kind != core.ConstraintPrimaryKey {
		t.Fatalf("constraints = %+v", tbl.Constraints)
	}
	if len(tbl.Constraints[0].Columns) != 2 {
		t.Fatalf("pk columns = %+v", tbl.Constraints[0].Columns)
	}
}

func TestParseTableForeignKey(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		customer_id INTEGER REFERENCES customers(id) ON DELETE CASCADE
	)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fk := stmt.Table.Columns[1].Flags.ForeignKey
	if fk == nil || fk.Table != "customers" || fk.Column != "id" || fk.OnDelete != "CASCADE" {
		t.Fatalf("foreign key = %+v", fk)
	}
}

func TestParseIndex(t *testing.T) {
	stmt, err := Parse(`CREATE UNIQUE INDEX idx_people_email ON people (email DESC) WHERE email IS NOT NULL`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	idx := stmt.Index
	if !idx.Unique || idx.Table != "people" {
		t.Fatalf("index = %+v", idx)
	}
	if len(idx.Columns) != 1 || idx.Columns[0].Name != "email" || !idx.Columns[0].Descending {
		t.Fatalf("index columns = %+v", idx.Columns)
	}
	if !strings.Contains(idx.Partial, "email IS NOT NULL") {
		t.Fatalf("partial = %q", idx.Partial)
	}
}

func TestParseView(t *testing.T) {
	stmt, err := Parse(`CREATE VIEW active_people AS SELECT * FROM people WHERE active = 1`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(stmt.View.Select, "SELECT * FROM people") {
		t.Fatalf("select = %q", stmt.View.Select)
	}
}

func TestParseTrigger(t *testing.T) {
	stmt, err := Parse(`CREATE TRIGGER trg_people_audit AFTER UPDATE ON people
	FOR EACH ROW
	BEGIN
		INSERT INTO audit(table_name) VALUES ('people');
	END`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	trg := stmt.Trigger
	if trg.Upon != "AFTER" || trg.Action != "UPDATE" || trg.Table != "people" {
		t.Fatalf("trigger = %+v", trg)
	}
	if !strings.Contains(trg.Body, "INSERT INTO audit") {
		t.Fatalf("body = %q", trg.Body)
	}
}

func TestGenerateTableRoundTrip(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sql, err := Generate(stmt)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	reparsed, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse(generated): %v\nsql:\n%s", err, sql)
	}
	if len(reparsed.Table.Columns) != 2 {
		t.Fatalf("round-tripped columns = %d, want 2", len(reparsed.Table.Columns))
	}
	if !reparsed.Table.Columns[0].Flags.PrimaryKey {
		t.Fatalf("round-tripped id column lost PRIMARY KEY")
	}
	if !reparsed.Table.Columns[1].Flags.NotNull {
		t.Fatalf("round-tripped name column lost NOT NULL")
	}
}

func TestTransformRenamesTableAndColumn(t *testing.T) {
	original := `CREATE VIEW v AS SELECT old_col FROM old_table WHERE old_col > 0 -- keep this comment`
	renames := map[string]string{
		core.FoldName("old_table"): "new_table",
		core.FoldName("old_col"):   "new_col",
	}
	out, err := Transform(original, renames)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := `CREATE VIEW v AS SELECT new_col FROM new_table WHERE new_col > 0 -- keep this comment`
	if out != want {
		t.Fatalf("Transform =\n%q\nwant\n%q", out, want)
	}
}

func TestTransformPreservesQuotingStyle(t *testing.T) {
	original := `CREATE INDEX idx ON "old_table" ("old_col")`
	renames := map[string]string{
		core.FoldName("old_table"): "new_table",
		core.FoldName("old_col"):   "new_col",
	}
	out, err := Transform(original, renames)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := `CREATE INDEX idx ON "new_table" ("new_col")`
	if out != want {
		t.Fatalf("Transform =\n%q\nwant\n%q", out, want)
	}
}

func TestTransformLeavesUnrelatedIdentifiersAlone(t *testing.T) {
	original := `SELECT a, b FROM t WHERE a = 1`
	out, err := Transform(original, map[string]string{core.FoldName("t"): "renamed_t"})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if out != `SELECT a, b FROM renamed_t WHERE a = 1` {
		t.Fatalf("Transform = %q", out)
	}
}
