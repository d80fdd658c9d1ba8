// Package planner is component E, the Schema Change Planner. Given a
// table's current parsed schema and the edit the user wants applied, it
// decides whether SQLite's native ALTER TABLE can express the change
// directly (the SIMPLE path) or whether the table must be rebuilt under a
// new name and swapped in (the COMPLEX path, spec.md §4.2.2), and in
// either case emits the exact statement script plus the companion
// statements needed to keep dependent indexes/views/triggers in sync.
//
// It follows the teacher's internal/diff + internal/migration split:
// internal/diff.Diff decides *what* changed and how risky it is,
// internal/migration.Migration accumulates the *statements* that apply
// it. Decide plays the first role here, Script the second.
package planner

import (
	"fmt"
	"strings"

	"sqlshelf/internal/core"
	"sqlshelf/internal/grammar"
	"sqlshelf/internal/sqlerr"
)

// ColumnAdd describes one column being added to a table.
type ColumnAdd struct {
	Column *core.Column
}

// TableEdit is the full set of changes a caller wants applied to one
// table in a single planning pass.
type TableEdit struct {
	Table *core.Table // current, catalogued table (with Meta populated)

	NewTableName string // "" means no table rename

	// RenamedColumns maps an existing ColumnID to its new name. A column
	// not present here keeps its current name.
	RenamedColumns map[core.ColumnID]string

	AddedColumns []ColumnAdd

	// DroppedColumnIDs lists columns to remove entirely.
	DroppedColumnIDs []core.ColumnID

	// NewConstraints, when non-nil, replaces the table's constraint list
	// outright (any difference from the current list, including pure
	// reordering, is treated as a constraint change).
	NewConstraints []*core.Constraint

	// NewWithoutRowID, when non-nil, changes the WITHOUT ROWID flag.
	NewWithoutRowID *bool

	// NewColumnTypes maps a ColumnID to a changed declared type. SQLite's
	// ALTER TABLE cannot change a column's type, so any entry here forces
	// the COMPLEX path.
	NewColumnTypes map[core.ColumnID]string
}

// Decision is the SIMPLE-vs-COMPLEX call plus the reasons that drove it,
// each reason corresponding to one of the nine conditions spec.md §4.2.1
// names.
type Decision struct {
	Simple  bool
	Reasons []string // populated only when Simple is false
}

// Decide implements the nine-condition ALTER-path decision tree. Any one
// matching condition forces the COMPLEX path; if none match, SIMPLE
// ALTER TABLE statements suffice.
func Decide(edit *TableEdit) Decision {
	var reasons []string
	add := func(format string, args ...any) { reasons = append(reasons, fmt.Sprintf(format, args...)) }

	kindsPresent := 0
	if edit.NewTableName != "" {
		kindsPresent++
	}
	if len(edit.RenamedColumns) > 0 {
		kindsPresent++
	}
	if len(edit.AddedColumns) > 0 {
		kindsPresent++
	}
	if len(edit.DroppedColumnIDs) > 0 {
		kindsPresent++
	}

	// Rule 1: more than one kind of structural change at once.
	if kindsPresent > 1 {
		add("more than one kind of change requested in a single edit (rename/add/drop combined)")
	}
	// Rule 2: the constraint list changed at all (add, remove, or reorder).
	if edit.NewConstraints != nil && constraintsChanged(edit.Table.Constraints, edit.NewConstraints) {
		add("table-level constraint list changed")
	}
	// Rule 3: WITHOUT ROWID storage mode changed.
	if edit.NewWithoutRowID != nil && *edit.NewWithoutRowID != edit.Table.WithoutRowID {
		add("WITHOUT ROWID storage mode changed")
	}
	// Rule 4: an existing column's declared type changed.
	if len(edit.NewColumnTypes) > 0 {
		add("an existing column's declared type changed")
	}
	// Rule 5: more than one column added or dropped in the same edit.
	if len(edit.AddedColumns) > 1 {
		add("more than one column added in a single edit")
	}
	if len(edit.DroppedColumnIDs) > 1 {
		add("more than one column dropped in a single edit")
	}
	// Rule 6: an added column is NOT NULL without a usable constant default.
	for _, a := range edit.AddedColumns {
		if a.Column.Flags.NotNull && !a.Column.HasDefault {
			add("added column %q is NOT NULL with no default", a.Column.Name)
		}
	}
	// Rule 7: an added column's default is CURRENT_TIME-like or a
	// parenthesized expression — SQLite's ADD COLUMN forbids both.
	for _, a := range edit.AddedColumns {
		if a.Column.HasDefault && a.Column.DefaultIsCurrentTimeLike() {
			add("added column %q has a non-constant default", a.Column.Name)
		}
	}
	// Rule 8: a dropped or renamed column participates in a table-level
	// constraint (PRIMARY KEY, UNIQUE, CHECK, FOREIGN KEY) — rewriting
	// that constraint's column list is only done on the rebuild path.
	for _, ct := range edit.Table.Constraints {
		for _, colID := range ct.Columns {
			if _, dropped := dropSet(edit.DroppedColumnIDs)[colID]; dropped {
				add("column participates in table-level constraint %q and is being dropped", ct.Name)
			}
			if _, renamed := edit.RenamedColumns[colID]; renamed {
				add("column participates in table-level constraint %q and is being renamed", ct.Name)
			}
		}
	}
	// Rule 9: a dropped column is part of the table's derived primary key.
	for _, id := range edit.DroppedColumnIDs {
		for _, pk := range edit.Table.Keys.PrimaryKeys {
			if pk == id {
				add("dropped column is part of the primary key")
			}
		}
	}

	return Decision{Simple: len(reasons) == 0, Reasons: reasons}
}

func dropSet(ids []core.ColumnID) map[core.ColumnID]bool {
	m := make(map[core.ColumnID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func constraintsChanged(before, after []*core.Constraint) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if !before[i].Equal(after[i]) {
			return true
		}
	}
	return false
}

// Script is the ordered list of statements planner emits for one edit,
// plus the rename map applied to dependent objects (so a caller can show
// it to the user before running it).
type Script struct {
	Statements     []string
	RenamedTable   string            // "" if the table wasn't renamed
	RenamedColumns map[string]string // old name -> new name, for display
}

// Plan validates edit against cat, then builds either the SIMPLE or the
// COMPLEX script.
func Plan(cat *core.Catalogue, edit *TableEdit) (*Script, Decision, error) {
	if err := Validate(cat, edit); err != nil {
		return nil, Decision{}, err
	}
	decision := Decide(edit)
	if decision.Simple {
		script, err := buildSimple(edit)
		return script, decision, err
	}
	script, err := buildComplex(cat, edit)
	return script, decision, err
}

// Validate runs the pre-emission checks spec.md §4.2.4 names: the new
// table/column names don't collide with an existing object
// (case-insensitive), and no column is being dropped while a dependent
// index/view/trigger still references it.
func Validate(cat *core.Catalogue, edit *TableEdit) error {
	var offenders []string

	if edit.NewTableName != "" && core.FoldName(edit.NewTableName) != edit.Table.NameKey() && cat.NameExists(edit.NewTableName) {
		offenders = append(offenders, fmt.Sprintf("an object named %q already exists", edit.NewTableName))
	}
	for _, newName := range edit.RenamedColumns {
		if col := edit.Table.FindColumn(newName); col != nil {
			offenders = append(offenders, fmt.Sprintf("column %q already exists on this table", newName))
		}
	}
	for _, a := range edit.AddedColumns {
		if col := edit.Table.FindColumn(a.Column.Name); col != nil {
			offenders = append(offenders, fmt.Sprintf("column %q already exists on this table", a.Column.Name))
		}
	}

	var droppedNames []string
	for _, id := range edit.DroppedColumnIDs {
		if col := edit.Table.ColumnByID(id); col != nil {
			droppedNames = append(droppedNames, col.Name)
		}
	}
	if deps := cat.ColumnDependents(edit.Table.Name, droppedNames); len(deps) > 0 {
		for col, names := range deps {
			offenders = append(offenders, fmt.Sprintf("column %q is still referenced by %s", col, strings.Join(names, ", ")))
		}
	}

	if len(offenders) > 0 {
		return &sqlerr.ValidationError{Entity: string(core.CategoryTable), Name: edit.Table.Name, Offenders: offenders}
	}
	return nil
}

func buildSimple(edit *TableEdit) (*Script, error) {
	script := &Script{RenamedColumns: make(map[string]string)}
	t := edit.Table

	switch {
	case edit.NewTableName != "":
		script.Statements = append(script.Statements,
			fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, quoteIdent(t.Name), quoteIdent(edit.NewTableName)))
		script.RenamedTable = edit.NewTableName

	case len(edit.RenamedColumns) > 0:
		for colID, newName := range edit.RenamedColumns {
			col := t.ColumnByID(colID)
			if col == nil {
				continue
			}
			script.Statements = append(script.Statements,
				fmt.Sprintf(`ALTER TABLE %s RENAME COLUMN %s TO %s`, quoteIdent(t.Name), quoteIdent(col.Name), quoteIdent(newName)))
			script.RenamedColumns[col.Name] = newName
		}

	case len(edit.AddedColumns) > 0:
		for _, a := range edit.AddedColumns {
			script.Statements = append(script.Statements,
				fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s`, quoteIdent(t.Name), columnDefSQL(a.Column)))
		}

	case len(edit.DroppedColumnIDs) > 0:
		for _, id := range edit.DroppedColumnIDs {
			col := t.ColumnByID(id)
			if col == nil {
				continue
			}
			script.Statements = append(script.Statements,
				fmt.Sprintf(`ALTER TABLE %s DROP COLUMN %s`, quoteIdent(t.Name), quoteIdent(col.Name)))
		}
	}

	return script, nil
}

// buildComplex emits the nine-step rebuild-and-rename script spec.md
// §4.2.2 describes: build the new table under a temporary name, copy
// rows across with an explicit column mapping, drop the original, rename
// the temporary table into place, then recreate every dependent index,
// view, and trigger with its definition rewritten under the same
// table/column rename map.
func buildComplex(cat *core.Catalogue, edit *TableEdit) (*Script, error) {
	t := edit.Table
	tmpName := "__sqlshelf_rebuild_" + t.Name

	newMeta, colNameMap, err := buildNewMeta(t, edit)
	if err != nil {
		return nil, err
	}
	newMeta.Name = tmpName

	finalName := t.Name
	if edit.NewTableName != "" {
		finalName = edit.NewTableName
	}

	var insertCols, selectCols []string
	for _, col := range t.Columns {
		if _, ok := colNameMap[col.ColumnID]; !ok {
			continue // dropped
		}
		insertCols = append(insertCols, quoteIdent(colNameMap[col.ColumnID]))
		selectCols = append(selectCols, quoteIdent(col.Name))
	}

	script := &Script{RenamedColumns: make(map[string]string)}
	if edit.NewTableName != "" {
		script.RenamedTable = edit.NewTableName
	}
	for id, newName := range edit.RenamedColumns {
		if col := t.ColumnByID(id); col != nil {
			script.RenamedColumns[col.Name] = newName
		}
	}

	// 1. disable foreign-key enforcement for the duration of the rebuild.
	// sqlitedb.Open turns this pragma ON for every connection this module
	// opens, so that is always the value being "remembered" here for step 8
	// to restore — there is no live connection to query it from at plan
	// time, since Plan is a pure function of a Catalogue and an edit.
	script.Statements = append(script.Statements, `PRAGMA foreign_keys = OFF`)
	// 2. create the rebuilt table under a temporary name
	script.Statements = append(script.Statements, grammar.GenerateTable(newMeta))
	// 3. copy surviving rows across with an explicit column mapping
	script.Statements = append(script.Statements, fmt.Sprintf(
		`INSERT INTO %s (%s) SELECT %s FROM %s`,
		quoteIdent(tmpName), strings.Join(insertCols, ", "), strings.Join(selectCols, ", "), quoteIdent(t.Name)))
	// 4. drop every dependent index and trigger on the original table —
	// including triggers defined on a dependent view (INSTEAD OF triggers),
	// which must go before the view itself is dropped — then the
	// dependent views (whose SELECT may reference renamed columns).
	deps := struct {
		indexes  []*core.Index
		views    []*core.View
		triggers []*core.Trigger
	}{
		indexes:  cat.IndexesOn(t.Name),
		views:    core.ViewsReferencing(cat, t.Name),
		triggers: cat.TriggersOn(t.Name),
	}
	for _, v := range deps.views {
		deps.triggers = append(deps.triggers, cat.TriggersOn(v.Name)...)
	}
	for _, idx := range deps.indexes {
		script.Statements = append(script.Statements, fmt.Sprintf(`DROP INDEX %s`, quoteIdent(idx.Name)))
	}
	for _, tr := range deps.triggers {
		script.Statements = append(script.Statements, fmt.Sprintf(`DROP TRIGGER %s`, quoteIdent(tr.Name)))
	}
	for _, v := range deps.views {
		script.Statements = append(script.Statements, fmt.Sprintf(`DROP VIEW %s`, quoteIdent(v.Name)))
	}
	// 5. drop the original table
	script.Statements = append(script.Statements, fmt.Sprintf(`DROP TABLE %s`, quoteIdent(t.Name)))
	// 6. rename the rebuilt table into its final place
	script.Statements = append(script.Statements, fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, quoteIdent(tmpName), quoteIdent(finalName)))

	renameMap := renameMapFor(t, edit, finalName)
	// 7. recreate indexes with renamed references applied
	for _, idx := range deps.indexes {
		rewritten, err := grammar.Transform(idx.SQL, renameMap)
		if err != nil {
			return nil, err
		}
		script.Statements = append(script.Statements, rewritten)
	}
	// 7b. recreate views with renamed references applied — before the
	// triggers that follow, since a view-trigger needs its view to exist.
	for _, v := range deps.views {
		rewritten, err := grammar.Transform(v.SQL, renameMap)
		if err != nil {
			return nil, err
		}
		script.Statements = append(script.Statements, rewritten)
	}
	// 7c. recreate triggers (both table triggers and view-triggers) with
	// renamed references applied
	for _, tr := range deps.triggers {
		rewritten, err := grammar.Transform(tr.SQL, renameMap)
		if err != nil {
			return nil, err
		}
		script.Statements = append(script.Statements, rewritten)
	}
	// 8. restore foreign-key enforcement to the value every connection in
	// this module opens with (see step 1).
	script.Statements = append(script.Statements, `PRAGMA foreign_keys = ON`)
	// 9. the script itself carries no SAVEPOINT statement;
	// internal/sqlitedb.DB.ExecuteScript is the function that runs a
	// statement list inside one named savepoint, rolling every step back
	// together on failure.

	return script, nil
}

// buildNewMeta produces the post-edit TableMeta (still under the
// original name; buildComplex assigns the temporary name) and a
// ColumnID -> final-name map for every surviving column, used to build
// the INSERT ... SELECT column lists.
func buildNewMeta(t *core.Table, edit *TableEdit) (*core.TableMeta, map[core.ColumnID]string, error) {
	dropped := dropSet(edit.DroppedColumnIDs)
	colNameMap := make(map[core.ColumnID]string)

	var cols []*core.Column
	for _, col := range t.Columns {
		if dropped[col.ColumnID] {
			continue
		}
		next := *col
		if newName, ok := edit.RenamedColumns[col.ColumnID]; ok {
			next.Name = newName
		}
		if newType, ok := edit.NewColumnTypes[col.ColumnID]; ok {
			next.Type = newType
		}
		colNameMap[col.ColumnID] = next.Name
		cols = append(cols, &next)
	}
	for _, a := range edit.AddedColumns {
		cols = append(cols, a.Column)
	}

	constraints := t.Constraints
	if edit.NewConstraints != nil {
		constraints = edit.NewConstraints
	}
	// drop any constraint that still references a column being removed
	var keptConstraints []*core.Constraint
	for _, ct := range constraints {
		keep := true
		for _, colID := range ct.Columns {
			if dropped[colID] {
				keep = false
				break
			}
		}
		if keep {
			keptConstraints = append(keptConstraints, ct)
		}
	}

	withoutRowID := t.WithoutRowID
	if edit.NewWithoutRowID != nil {
		withoutRowID = *edit.NewWithoutRowID
	}

	return &core.TableMeta{
		Name:         t.Name,
		Columns:      cols,
		Constraints:  keptConstraints,
		WithoutRowID: withoutRowID,
	}, colNameMap, nil
}

// renameMapFor builds the flat old-name -> new-name map
// internal/grammar.Transform needs to rewrite a dependent object's raw
// SQL: the table's own rename (if any) plus every renamed column.
func renameMapFor(t *core.Table, edit *TableEdit, finalName string) map[string]string {
	m := make(map[string]string)
	if edit.NewTableName != "" {
		m[core.FoldName(t.Name)] = finalName
	}
	for id, newName := range edit.RenamedColumns {
		if col := t.ColumnByID(id); col != nil {
			m[core.FoldName(col.Name)] = newName
		}
	}
	return m
}

func columnDefSQL(col *core.Column) string {
	sql := grammar.GenerateTable(&core.TableMeta{Columns: []*core.Column{col}})
	// GenerateTable wraps a single column in "CREATE TABLE "" (\n  <def>\n)";
	// pull just the column definition back out.
	start := strings.Index(sql, "(\n  ")
	end := strings.LastIndex(sql, "\n)")
	if start < 0 || end < 0 || end <= start+4 {
		return quoteIdent(col.Name)
	}
	return sql[start+4 : end]
}

func quoteIdent(name string) string { return `"` + strings.ReplaceAll(name, `"`, `""`) + `"` }
