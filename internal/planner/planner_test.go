package planner

import (
	"strings"
	"testing"

	"sqlshelf/internal/core"
)

func widgetsTable() *core.Table {
	idCol := &core.Column{ColumnID: "id", Name: "id", Type: "INTEGER", Flags: core.ColumnFlags{PrimaryKey: true}}
	nameCol := &core.Column{ColumnID: "name", Name: "name", Type: "TEXT"}
	qtyCol := &core.Column{ColumnID: "qty", Name: "qty", Type: "REAL"}
	t := &core.Table{
		Entity:  core.Entity{EntityID: "e1", Category: core.CategoryTable, Name: "widgets"},
		Columns: []*core.Column{idCol, nameCol, qtyCol},
	}
	t.DeriveKeys()
	return t
}

func TestDecideTableRenameAloneIsSimple(t *testing.T) {
	edit := &TableEdit{Table: widgetsTable(), NewTableName: "gadgets"}
	d := Decide(edit)
	if !d.Simple {
		t.Fatalf("expected simple, got reasons: %v", d.Reasons)
	}
}

func TestDecideColumnTypeChangeForcesComplex(t *testing.T) {
	tbl := widgetsTable()
	edit := &TableEdit{Table: tbl, NewColumnTypes: map[core.ColumnID]string{"qty": "TEXT"}}
	d := Decide(edit)
	if d.Simple {
		t.Fatalf("expected complex for a column type change")
	}
}

func TestDecideDropOfPrimaryKeyColumnForcesComplex(t *testing.T) {
	tbl := widgetsTable()
	edit := &TableEdit{Table: tbl, DroppedColumnIDs: []core.ColumnID{"id"}}
	d := Decide(edit)
	if d.Simple {
		t.Fatalf("expected complex when dropping a primary key column")
	}
}

func TestDecideMixedKindsForcesComplex(t *testing.T) {
	tbl := widgetsTable()
	edit := &TableEdit{
		Table:            tbl,
		NewTableName:     "gadgets",
		DroppedColumnIDs: []core.ColumnID{"qty"},
	}
	d := Decide(edit)
	if d.Simple {
		t.Fatalf("expected complex when mixing a table rename with a column drop")
	}
}

func TestDecideAddedNotNullColumnWithoutDefaultForcesComplex(t *testing.T) {
	tbl := widgetsTable()
	edit := &TableEdit{
		Table: tbl,
		AddedColumns: []ColumnAdd{
			{Column: &core.Column{ColumnID: "sku", Name: "sku", Type: "TEXT", Flags: core.ColumnFlags{NotNull: true}}},
		},
	}
	d := Decide(edit)
	if d.Simple {
		t.Fatalf("expected complex for NOT NULL column with no default")
	}
}

func TestDecideAddedColumnWithConstantDefaultIsSimple(t *testing.T) {
	tbl := widgetsTable()
	edit := &TableEdit{
		Table: tbl,
		AddedColumns: []ColumnAdd{
			{Column: &core.Column{ColumnID: "sku", Name: "sku", Type: "TEXT", Default: "'none'", HasDefault: true}},
		},
	}
	d := Decide(edit)
	if !d.Simple {
		t.Fatalf("expected simple, got reasons: %v", d.Reasons)
	}
}

func TestBuildSimpleRenameTable(t *testing.T) {
	tbl := widgetsTable()
	script, err := buildSimple(&TableEdit{Table: tbl, NewTableName: "gadgets"})
	if err != nil {
		t.Fatalf("buildSimple: %v", err)
	}
	if len(script.Statements) != 1 || !strings.Contains(script.Statements[0], `RENAME TO "gadgets"`) {
		t.Fatalf("unexpected statements: %v", script.Statements)
	}
}

func TestBuildComplexRebuildsAndDropsColumn(t *testing.T) {
	tbl := widgetsTable()
	cat := core.NewCatalogue()
	cat.Put(tbl)

	edit := &TableEdit{
		Table:            tbl,
		DroppedColumnIDs: []core.ColumnID{"qty"},
	}
	script, err := buildComplex(cat, edit)
	if err != nil {
		t.Fatalf("buildComplex: %v", err)
	}
	joined := strings.Join(script.Statements, "\n")
	if !strings.Contains(joined, "CREATE TABLE") {
		t.Fatalf("expected a CREATE TABLE step, got: %s", joined)
	}
	if !strings.Contains(joined, "INSERT INTO") {
		t.Fatalf("expected an INSERT INTO copy step, got: %s", joined)
	}
	if strings.Contains(joined, `"qty"`) {
		t.Fatalf("dropped column qty should not appear in the rebuild script: %s", joined)
	}
	if !strings.Contains(joined, `DROP TABLE "widgets"`) {
		t.Fatalf("expected the original table to be dropped: %s", joined)
	}
	if !strings.Contains(joined, `RENAME TO "widgets"`) {
		t.Fatalf("expected the rebuilt table to be renamed back into place: %s", joined)
	}
}

func TestBuildComplexWrapsForeignKeysPragma(t *testing.T) {
	tbl := widgetsTable()
	cat := core.NewCatalogue()
	cat.Put(tbl)

	edit := &TableEdit{Table: tbl, DroppedColumnIDs: []core.ColumnID{"qty"}}
	script, err := buildComplex(cat, edit)
	if err != nil {
		t.Fatalf("buildComplex: %v", err)
	}
	if len(script.Statements) == 0 || script.Statements[0] != "PRAGMA foreign_keys = OFF" {
		t.Fatalf("expected the script to open with PRAGMA foreign_keys = OFF, got: %v", script.Statements)
	}
	last := script.Statements[len(script.Statements)-1]
	if last != "PRAGMA foreign_keys = ON" {
		t.Fatalf("expected the script to close by restoring PRAGMA foreign_keys = ON, got: %v", script.Statements)
	}
}

func TestBuildComplexDropsAndRecreatesViewTriggers(t *testing.T) {
	tbl := widgetsTable()
	cat := core.NewCatalogue()
	cat.Put(tbl)
	cat.Put(&core.View{
		Entity: core.Entity{Category: core.CategoryView, Name: "widgets_view",
			SQL: `CREATE VIEW "widgets_view" AS SELECT * FROM widgets`},
		Select: `SELECT * FROM widgets`,
	})
	cat.Put(&core.Trigger{
		Entity: core.Entity{Category: core.CategoryTrigger, Name: "widgets_view_insert",
			SQL: `CREATE TRIGGER "widgets_view_insert" INSTEAD OF INSERT ON "widgets_view" BEGIN INSERT INTO widgets (name) VALUES (NEW.name); END`},
		Table:  "widgets_view",
		Upon:   "INSTEAD OF",
		Action: "INSERT",
		Body:   "INSERT INTO widgets (name) VALUES (NEW.name);",
	})

	edit := &TableEdit{Table: tbl, DroppedColumnIDs: []core.ColumnID{"qty"}}
	script, err := buildComplex(cat, edit)
	if err != nil {
		t.Fatalf("buildComplex: %v", err)
	}

	dropTrigger := indexOfStatement(script.Statements, `DROP TRIGGER "widgets_view_insert"`)
	dropView := indexOfStatement(script.Statements, `DROP VIEW "widgets_view"`)
	createView := indexOfStatement(script.Statements, `CREATE VIEW "widgets_view"`)
	createTrigger := indexOfStatement(script.Statements, `CREATE TRIGGER "widgets_view_insert"`)

	if dropTrigger < 0 || dropView < 0 || createView < 0 || createTrigger < 0 {
		t.Fatalf("expected the view-trigger to be dropped and recreated alongside its view, got: %v", script.Statements)
	}
	if dropTrigger > dropView {
		t.Fatalf("view-trigger must be dropped before its view: %v", script.Statements)
	}
	if createView > createTrigger {
		t.Fatalf("view must be recreated before its trigger: %v", script.Statements)
	}
}

func indexOfStatement(statements []string, prefix string) int {
	for i, s := range statements {
		if strings.HasPrefix(s, prefix) {
			return i
		}
	}
	return -1
}

func TestValidateRejectsNameCollision(t *testing.T) {
	tbl := widgetsTable()
	cat := core.NewCatalogue()
	cat.Put(tbl)
	cat.Put(&core.Table{Entity: core.Entity{Category: core.CategoryTable, Name: "gadgets"}})

	err := Validate(cat, &TableEdit{Table: tbl, NewTableName: "gadgets"})
	if err == nil {
		t.Fatalf("expected a validation error for a colliding name")
	}
}

func TestValidateRejectsDroppingColumnStillIndexed(t *testing.T) {
	tbl := widgetsTable()
	cat := core.NewCatalogue()
	cat.Put(tbl)
	cat.Put(&core.Index{
		Entity:  core.Entity{Category: core.CategoryIndex, Name: "idx_name"},
		Table:   "widgets",
		Columns: []core.IndexColumn{{Name: "name"}},
	})

	err := Validate(cat, &TableEdit{Table: tbl, DroppedColumnIDs: []core.ColumnID{"name"}})
	if err == nil {
		t.Fatalf("expected a validation error for dropping an indexed column")
	}
}

func TestPlanSimpleColumnRenameLeavesDependentIndexToSQLite(t *testing.T) {
	tbl := widgetsTable()
	cat := core.NewCatalogue()
	cat.Put(tbl)
	cat.Put(&core.Index{
		Entity: core.Entity{Category: core.CategoryIndex, Name: "idx_qty",
			SQL: `CREATE INDEX "idx_qty" ON "widgets" ("qty")`},
		Table:   "widgets",
		Columns: []core.IndexColumn{{Name: "qty"}},
	})

	// A bare ALTER TABLE RENAME COLUMN is left as SIMPLE: SQLite itself
	// keeps dependent index definitions in sync, so no rebuild is needed
	// unless the column also participates in a table-level constraint.
	edit := &TableEdit{Table: tbl, RenamedColumns: map[core.ColumnID]string{"qty": "quantity"}}
	script, decision, err := Plan(cat, edit)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !decision.Simple {
		t.Fatalf("expected simple, got reasons: %v", decision.Reasons)
	}
	joined := strings.Join(script.Statements, "\n")
	if !strings.Contains(joined, `RENAME COLUMN "qty" TO "quantity"`) {
		t.Fatalf("unexpected statements: %s", joined)
	}
}

func TestPlanComplexRecreatesDependentIndexWithRenamedColumn(t *testing.T) {
	tbl := widgetsTable()
	tbl.Constraints = []*core.Constraint{
		{Kind: core.ConstraintUnique, Columns: []core.ColumnID{"qty"}},
	}
	cat := core.NewCatalogue()
	cat.Put(tbl)
	cat.Put(&core.Index{
		Entity: core.Entity{Category: core.CategoryIndex, Name: "idx_qty",
			SQL: `CREATE INDEX "idx_qty" ON "widgets" ("qty")`},
		Table:   "widgets",
		Columns: []core.IndexColumn{{Name: "qty"}},
	})

	// qty also participates in a table-level UNIQUE constraint, so
	// renaming it forces the rebuild path (rule 8), and the dependent
	// index must be recreated with the renamed reference applied.
	edit := &TableEdit{Table: tbl, RenamedColumns: map[core.ColumnID]string{"qty": "quantity"}}
	script, decision, err := Plan(cat, edit)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if decision.Simple {
		t.Fatalf("expected complex because qty participates in a table-level constraint")
	}
	joined := strings.Join(script.Statements, "\n")
	if !strings.Contains(joined, `"quantity"`) {
		t.Fatalf("expected the recreated index to reference the renamed column: %s", joined)
	}
}
