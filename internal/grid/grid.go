// Package grid is component D, the Grid Data Model: an incrementally
// streamed, filterable, sortable view over one table's rows with
// edit-tracking and commit/rollback, built on internal/cursor for
// materialisation and internal/rowrec for per-row state. It is new
// relative to the teacher (a migration CLI has no notion of a live,
// editable row grid) but follows the teacher's habit of a single struct
// owning its own mutex-free, single-goroutine-at-a-time state plus small
// helper methods, the same shape as internal/migration.Migration.
package grid

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"sqlshelf/internal/config"
	"sqlshelf/internal/core"
	"sqlshelf/internal/cursor"
	"sqlshelf/internal/rowrec"
	"sqlshelf/internal/sqlerr"
	"sqlshelf/internal/sqlitedb"
)

// hiddenRowID is the synthetic column name used to carry a table's SQLite
// rowid when the table declares no explicit primary key, so Commit still
// has something stable to target with UPDATE/DELETE.
const hiddenRowID = "__sqlshelf_rowid__"

// Grid is the live, editable, filtered/sorted view over one table.
type Grid struct {
	db    *sqlitedb.DB
	table *core.Table
	cfg   config.Grid

	cur      *cursor.Cursor
	complete bool

	rows    []*rowrec.RowRecord // natural load order
	view    []int               // indices into rows, after filter+sort
	nextUID int64

	filterText     string
	sortColumn     string
	sortDescending bool

	changedIDs map[int64]bool
	newIDs     map[int64]bool
	deletedIDs map[int64]bool

	usesHiddenRowID bool

	// triggers is the set of INSERT/UPDATE/DELETE triggers defined on this
	// table, supplied by the caller via SetTriggers (internal/grid has no
	// catalogue of its own to look them up from). Only INSERT/UPDATE
	// triggers affect needsReselect.
	triggers []*core.Trigger
}

// SetTriggers records the triggers defined on this grid's table, so Commit
// knows whether a committed row's columns may have been mutated by a
// trigger and needs to be re-selected (spec.md §4.1.1).
func (g *Grid) SetTriggers(triggers []*core.Trigger) { g.triggers = triggers }

// Construct opens a cursor over table and materialises the first chunk.
func Construct(ctx context.Context, db *sqlitedb.DB, table *core.Table, cfg config.Grid) (*Grid, error) {
	g := &Grid{
		db:              db,
		table:           table,
		cfg:             cfg,
		changedIDs:      make(map[int64]bool),
		newIDs:          make(map[int64]bool),
		deletedIDs:      make(map[int64]bool),
		usesHiddenRowID: !table.HasExplicitPrimaryKey() && !table.WithoutRowID,
	}

	query := g.selectQuery()
	cur, err := cursor.Open(ctx, db.Conn(), query)
	if err != nil {
		return nil, err
	}
	g.cur = cur

	if _, err := g.SeekAhead(ctx, cfg.SeekChunk); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grid) selectQuery() string {
	cols := make([]string, 0, len(g.table.Columns)+1)
	if g.usesHiddenRowID {
		cols = append(cols, `rowid AS "`+hiddenRowID+`"`)
	}
	for _, c := range g.table.Columns {
		cols = append(cols, `"`+c.Name+`"`)
	}
	return fmt.Sprintf(`SELECT %s FROM %q`, strings.Join(cols, ", "), g.table.Name)
}

// SeekAhead pulls up to n further rows (0 or negative means
// cfg.SeekChunk) from the cursor into the materialized set, respecting
// MaxRows, and returns how many were actually added.
func (g *Grid) SeekAhead(ctx context.Context, n int) (int, error) {
	if g.complete {
		return 0, nil
	}
	if n <= 0 {
		n = g.cfg.SeekChunk
	}
	if remaining := g.cfg.MaxRows - int64(len(g.rows)); remaining <= 0 {
		g.complete = true
		return 0, nil
	} else if int64(n) > remaining {
		n = int(remaining)
	}

	fetched, err := g.cur.Next(n)
	if err != nil {
		return 0, err
	}
	for _, row := range fetched {
		values := make(map[string]any, len(row))
		for k, v := range row {
			values[k] = v
		}
		rec := rowrec.NewPristine(g.nextUID, values)
		g.nextUID++
		g.rows = append(g.rows, rec)
		g.view = append(g.view, len(g.rows)-1)
	}
	if g.cur.Exhausted() || int64(len(g.rows)) >= g.cfg.MaxRows {
		g.complete = true
	}
	g.rebuildView()
	return len(fetched), nil
}

// Complete reports whether every row reachable under MaxRows has been
// materialized.
func (g *Grid) Complete() bool { return g.complete }

// RowCount returns the number of rows in the current filtered/sorted view.
func (g *Grid) RowCount() int { return len(g.view) }

func (g *Grid) recordAt(pos int) (*rowrec.RowRecord, error) {
	if pos < 0 || pos >= len(g.view) {
		return nil, fmt.Errorf("grid: row position %d out of range [0,%d)", pos, len(g.view))
	}
	return g.rows[g.view[pos]], nil
}

// ValueAt returns the current value of column colName at view position
// pos.
func (g *Grid) ValueAt(pos int, colName string) (any, error) {
	rec, err := g.recordAt(pos)
	if err != nil {
		return nil, err
	}
	v := rec.Values[colName]
	if col := g.table.FindColumn(colName); col != nil && col.Affinity() == core.AffinityBlob {
		if b, ok := v.([]byte); ok {
			return blobLiteral(b), nil
		}
	}
	return v, nil
}

// SetValue edits column colName at view position pos, coercing a raw
// string value per the target column's affinity first (spec.md §4.1.1).
func (g *Grid) SetValue(pos int, colName string, value any) error {
	rec, err := g.recordAt(pos)
	if err != nil {
		return err
	}
	rec.SetValue(colName, coerceRaw(g.table.FindColumn(colName), value))
	switch rec.State {
	case rowrec.Changed:
		g.changedIDs[rec.UID] = true
	case rowrec.New:
		g.newIDs[rec.UID] = true
	}
	return nil
}

// InsertRow appends a new, uncommitted row with the given initial values
// and returns its ROW_UID. A column absent from values is left absent from
// the row's Values map (rather than stored as an explicit nil) so that
// commitInsert can tell "never touched" apart from "explicitly set to
// NULL" and omit the former from the INSERT column list, letting the
// column's own DEFAULT apply (spec.md §4.1.1).
func (g *Grid) InsertRow(values map[string]any) int64 {
	full := make(map[string]any, len(values))
	for _, c := range g.table.Columns {
		if v, ok := values[c.Name]; ok {
			full[c.Name] = v
		}
	}
	rec := rowrec.NewInserted(g.nextUID, full)
	uid := g.nextUID
	g.nextUID++
	g.rows = append(g.rows, rec)
	g.newIDs[uid] = true
	g.rebuildView()
	return uid
}

// DeleteRow marks the row at view position pos for deletion. A row that
// was New and never committed is dropped outright rather than tracked as
// a deletion.
func (g *Grid) DeleteRow(pos int) error {
	rec, err := g.recordAt(pos)
	if err != nil {
		return err
	}
	if rec.State == rowrec.New {
		delete(g.newIDs, rec.UID)
		g.removeRow(rec.UID)
		g.rebuildView()
		return nil
	}
	rec.MarkDeleted()
	delete(g.changedIDs, rec.UID)
	g.deletedIDs[rec.UID] = true
	g.rebuildView()
	return nil
}

func (g *Grid) removeRow(uid int64) {
	for i, r := range g.rows {
		if r.UID == uid {
			g.rows = append(g.rows[:i], g.rows[i+1:]...)
			return
		}
	}
}

// Filter restricts the view to rows where any value's text form contains
// text as a case-insensitive substring, with numeric tokens compared
// after stripping insignificant trailing zeros (so "1.50" matches a
// filter of "1.5") — the normalization
// original_source/sqlitemate/lib/controls.py applies before a plain
// substring test.
func (g *Grid) Filter(text string) {
	g.filterText = text
	g.rebuildView()
}

// ClearFilter removes any active filter.
func (g *Grid) ClearFilter() { g.Filter("") }

// Sort cycles the given column through ascending -> descending -> no sort
// (natural/cursor order restored), matching the three-click behavior of
// original_source/sqlitemate/lib/controls.py's OnSort handler.
func (g *Grid) Sort(colName string) {
	switch {
	case g.sortColumn != colName:
		g.sortColumn = colName
		g.sortDescending = false
	case !g.sortDescending:
		g.sortDescending = true
	default:
		g.sortColumn = ""
		g.sortDescending = false
	}
	g.rebuildView()
}

func (g *Grid) rebuildView() {
	base := make([]int, 0, len(g.rows))
	for i, r := range g.rows {
		if r.State == rowrec.Deleted {
			continue
		}
		if g.filterText != "" && !rowMatchesFilter(r, g.filterText) {
			continue
		}
		base = append(base, i)
	}
	if g.sortColumn != "" {
		sort.SliceStable(base, func(a, b int) bool {
			va := g.rows[base[a]].Values[g.sortColumn]
			vb := g.rows[base[b]].Values[g.sortColumn]
			less := compareValues(va, vb)
			if g.sortDescending {
				return less > 0
			}
			return less < 0
		})
	}
	g.view = base
}

func rowMatchesFilter(r *rowrec.RowRecord, filter string) bool {
	needle := normalizeFilterToken(filter)
	for _, v := range r.Values {
		if strings.Contains(normalizeFilterToken(formatValue(v)), needle) {
			return true
		}
	}
	return false
}

// normalizeFilterToken lowercases text and, if it looks like a decimal
// number, trims trailing fractional zeros (and a trailing bare decimal
// point), so "1.50" and "1.5" compare equal as substrings of each other.
func normalizeFilterToken(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if _, err := strconv.ParseFloat(lower, 64); err != nil {
		return lower
	}
	if !strings.Contains(lower, ".") {
		return lower
	}
	lower = strings.TrimRight(lower, "0")
	lower = strings.TrimSuffix(lower, ".")
	return lower
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func compareValues(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(formatValue(a)), strings.ToLower(formatValue(b)))
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ChangeSet is a snapshot of every uncommitted edit, returned by
// GetChanges and accepted by SetChanges so a caller can save and restore
// in-progress edits (e.g. across a tab switch) within the same
// materialization session. ROW_UIDs are only meaningful against the Grid
// instance that produced them.
type ChangeSet struct {
	ChangedIDs []int64
	NewIDs     []int64
	DeletedIDs []int64
	Rows       map[int64]*rowrec.RowRecord
}

// GetChanges snapshots every dirty row.
func (g *Grid) GetChanges() *ChangeSet {
	cs := &ChangeSet{Rows: make(map[int64]*rowrec.RowRecord)}
	for uid := range g.changedIDs {
		cs.ChangedIDs = append(cs.ChangedIDs, uid)
	}
	for uid := range g.newIDs {
		cs.NewIDs = append(cs.NewIDs, uid)
	}
	for uid := range g.deletedIDs {
		cs.DeletedIDs = append(cs.DeletedIDs, uid)
	}
	for _, r := range g.rows {
		if r.Dirty() {
			cp := *r
			cp.Values = cloneMap(r.Values)
			cp.Original = cloneMap(r.Original)
			cs.Rows[r.UID] = &cp
		}
	}
	return cs
}

// SetChanges restores a previously captured ChangeSet into this Grid.
// Rows whose UID is no longer materialized are skipped.
func (g *Grid) SetChanges(cs *ChangeSet) {
	byUID := make(map[int64]*rowrec.RowRecord, len(g.rows))
	for _, r := range g.rows {
		byUID[r.UID] = r
	}
	for uid, snap := range cs.Rows {
		if r, ok := byUID[uid]; ok {
			r.State = snap.State
			r.Values = cloneMap(snap.Values)
			r.Original = cloneMap(snap.Original)
		}
	}
	g.changedIDs = toSet(cs.ChangedIDs)
	g.newIDs = toSet(cs.NewIDs)
	g.deletedIDs = toSet(cs.DeletedIDs)
	g.rebuildView()
}

func toSet(ids []int64) map[int64]bool {
	m := make(map[int64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Paste writes a rectangular block of values starting at view position
// startPos across colNames, extending the grid with new rows (via
// InsertRow) once startPos+i runs past the current RowCount.
func (g *Grid) Paste(startPos int, colNames []string, block [][]any) error {
	for i, rowVals := range block {
		pos := startPos + i
		if pos < g.RowCount() {
			for j, col := range colNames {
				if j >= len(rowVals) {
					break
				}
				if err := g.SetValue(pos, col, rowVals[j]); err != nil {
					return err
				}
			}
			continue
		}
		values := make(map[string]any, len(colNames))
		for j, col := range colNames {
			if j < len(rowVals) {
				values[col] = rowVals[j]
			}
		}
		g.InsertRow(values)
	}
	return nil
}

// Rollback discards every uncommitted edit, restoring pristine rows and
// removing never-committed new rows.
func (g *Grid) Rollback() {
	var kept []*rowrec.RowRecord
	for _, r := range g.rows {
		if r.State == rowrec.New {
			continue
		}
		r.Rollback()
		kept = append(kept, r)
	}
	g.rows = kept
	g.changedIDs = make(map[int64]bool)
	g.newIDs = make(map[int64]bool)
	g.deletedIDs = make(map[int64]bool)
	g.rebuildView()
}

// Commit writes every pending change (updates, inserts, deletes) to the
// database inside a named savepoint (spec.md §4.1.1). On success, every
// committed row returns to Pristine and a newly inserted single-integer-
// primary-key row has that key populated from last_insert_rowid().
func (g *Grid) Commit(ctx context.Context, savepointName string) error {
	if _, err := g.db.Execute(ctx, "SAVEPOINT "+quoteIdent(savepointName)); err != nil {
		return err
	}

	fail := func(err error) error {
		_, _ = g.db.Execute(ctx, "ROLLBACK TO "+quoteIdent(savepointName))
		_, _ = g.db.Execute(ctx, "RELEASE "+quoteIdent(savepointName))
		return err
	}

	for _, r := range g.rows {
		switch r.State {
		case rowrec.Changed:
			if err := g.commitUpdate(ctx, r); err != nil {
				return fail(err)
			}
			if err := g.reselectRow(ctx, r); err != nil {
				return fail(err)
			}
		case rowrec.New:
			if err := g.commitInsert(ctx, r); err != nil {
				return fail(err)
			}
			if err := g.reselectRow(ctx, r); err != nil {
				return fail(err)
			}
		case rowrec.Deleted:
			if err := g.commitDelete(ctx, r); err != nil {
				return fail(err)
			}
		}
	}

	if _, err := g.db.Execute(ctx, "RELEASE "+quoteIdent(savepointName)); err != nil {
		return err
	}

	var kept []*rowrec.RowRecord
	for _, r := range g.rows {
		if r.State == rowrec.Deleted {
			continue
		}
		r.State = rowrec.Pristine
		r.Original = nil
		kept = append(kept, r)
	}
	g.rows = kept
	g.changedIDs = make(map[int64]bool)
	g.newIDs = make(map[int64]bool)
	g.deletedIDs = make(map[int64]bool)
	g.rebuildView()
	return nil
}

func (g *Grid) identityClause(r *rowrec.RowRecord) (string, []any, error) {
	snapshot := r.Values
	if r.Original != nil {
		snapshot = r.Original
	}
	if g.usesHiddenRowID {
		return `rowid = ?`, []any{snapshot[hiddenRowID]}, nil
	}
	if !g.table.HasExplicitPrimaryKey() {
		return "", nil, &sqlerr.ConflictError{Category: "table", Name: g.table.Name, Owner: "no primary key and no rowid to target for edit"}
	}
	var parts []string
	var args []any
	for _, id := range g.table.Keys.PrimaryKeys {
		col := g.table.ColumnByID(id)
		if col == nil {
			continue
		}
		parts = append(parts, `"`+col.Name+`" = ?`)
		args = append(args, snapshot[col.Name])
	}
	return strings.Join(parts, " AND "), args, nil
}

func (g *Grid) commitUpdate(ctx context.Context, r *rowrec.RowRecord) error {
	where, whereArgs, err := g.identityClause(r)
	if err != nil {
		return err
	}
	var sets []string
	var args []any
	for _, c := range g.table.Columns {
		sets = append(sets, `"`+c.Name+`" = ?`)
		args = append(args, r.Values[c.Name])
	}
	args = append(args, whereArgs...)
	stmt := fmt.Sprintf(`UPDATE %q SET %s WHERE %s`, g.table.Name, strings.Join(sets, ", "), where)
	_, err = g.db.Execute(ctx, stmt, args...)
	return err
}

func (g *Grid) commitDelete(ctx context.Context, r *rowrec.RowRecord) error {
	where, whereArgs, err := g.identityClause(r)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(`DELETE FROM %q WHERE %s`, g.table.Name, where)
	_, err = g.db.Execute(ctx, stmt, whereArgs...)
	return err
}

// commitInsert builds the INSERT statement for a New row. Only columns the
// row's Values map actually carries a key for are listed — a column never
// assigned a value (InsertRow didn't receive one, and SetValue was never
// called for it) is omitted entirely so SQLite applies that column's own
// DEFAULT instead of an explicit NULL (spec.md §4.1.1).
func (g *Grid) commitInsert(ctx context.Context, r *rowrec.RowRecord) error {
	var cols []string
	var placeholders []string
	var args []any
	for _, c := range g.table.Columns {
		v, ok := r.Values[c.Name]
		if !ok {
			continue
		}
		cols = append(cols, `"`+c.Name+`"`)
		placeholders = append(placeholders, "?")
		args = append(args, v)
	}

	var stmt string
	if len(cols) == 0 {
		stmt = fmt.Sprintf(`INSERT INTO %q DEFAULT VALUES`, g.table.Name)
	} else {
		stmt = fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, g.table.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	}
	res, err := g.db.Execute(ctx, stmt, args...)
	if err != nil {
		return err
	}
	if col, ok := g.table.IsSingleIntegerPrimaryKey(); ok {
		id, err := sqlitedb.LastInsertRowID(res)
		if err != nil {
			return err
		}
		r.Values[col.Name] = id
	} else if g.usesHiddenRowID {
		id, err := sqlitedb.LastInsertRowID(res)
		if err != nil {
			return err
		}
		r.Values[hiddenRowID] = id
	}
	return nil
}

// needsReselect reports whether a just-committed row must be re-read from
// the database because its values may have changed underneath the edit:
// either a column has a DEFAULT SQLite applied, or an INSERT/UPDATE
// trigger may have mutated the row (spec.md §4.1.1 Commit).
func (g *Grid) needsReselect() bool {
	for _, c := range g.table.Columns {
		if c.HasDefault {
			return true
		}
	}
	for _, tr := range g.triggers {
		if strings.HasPrefix(strings.ToUpper(tr.Action), "INSERT") || strings.HasPrefix(strings.ToUpper(tr.Action), "UPDATE") {
			return true
		}
	}
	return false
}

// reselectRow re-reads r's row from the database and overwrites r.Values
// with what's actually stored, so DEFAULT-assigned and trigger-mutated
// columns become visible to the caller (spec.md §4.1.1). It is a no-op
// when the table has neither a DEFAULT column nor an INSERT/UPDATE
// trigger. It targets the row the same way commitUpdate/commitDelete do —
// by primary key or hidden rowid — which for a freshly inserted row is
// already populated in r.Values by commitInsert's writeback.
func (g *Grid) reselectRow(ctx context.Context, r *rowrec.RowRecord) error {
	if !g.needsReselect() {
		return nil
	}
	where, args, err := g.identityClause(r)
	if err != nil {
		return err
	}

	cols := make([]string, len(g.table.Columns))
	for i, c := range g.table.Columns {
		cols[i] = `"` + c.Name + `"`
	}
	query := fmt.Sprintf(`SELECT %s FROM %q WHERE %s`, strings.Join(cols, ", "), g.table.Name, where)

	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := g.db.Conn().QueryRowContext(ctx, query, args...).Scan(ptrs...); err != nil {
		return err
	}
	for i, c := range g.table.Columns {
		r.Values[c.Name] = dest[i]
	}
	return nil
}

func quoteIdent(name string) string { return `"` + strings.ReplaceAll(name, `"`, `""`) + `"` }
