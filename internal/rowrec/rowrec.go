// Package rowrec defines the grid's per-row bookkeeping type. The
// original implementation (original_source/sqlitemate/lib/controls.py)
// represents a row as a plain dict with magic string keys ("__uid__",
// "__state__", ...) mixed in alongside the real column values. That isn't
// an idiom this module follows: RowRecord makes the row's identity,
// change state, and rollback snapshot first-class fields instead,
// following the teacher's preference for small explicit structs
// (core.Column, core.Constraint) over map-shaped ad hoc records.
package rowrec

// State is one of the four row lifecycle states spec.md §4.1 names.
type State int

const (
	Pristine State = iota
	New
	Changed
	Deleted
)

func (s State) String() string {
	switch s {
	case Pristine:
		return "pristine"
	case New:
		return "new"
	case Changed:
		return "changed"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RowRecord is one row of the grid's materialized view: a stable ROW_UID,
// its current values keyed by column name, its lifecycle state, and — once
// it has been edited — a snapshot of the values it had before the first
// edit, so Rollback can restore them exactly.
type RowRecord struct {
	UID      int64
	State    State
	Values   map[string]any
	Original map[string]any // nil until the row is first edited
}

// NewPristine wraps a row freshly read from the cursor.
func NewPristine(uid int64, values map[string]any) *RowRecord {
	return &RowRecord{UID: uid, State: Pristine, Values: values}
}

// NewInserted creates a row added by InsertRow, not yet present in the
// database.
func NewInserted(uid int64, values map[string]any) *RowRecord {
	return &RowRecord{UID: uid, State: New, Values: values}
}

// SetValue records an edit to column name. The first edit to a pristine
// row snapshots its prior values into Original and promotes it to
// Changed; a row already New or Changed keeps its state (edits don't
// stack additional snapshots — Original always holds the value as of the
// last commit or load, per spec.md §4.1.1's "GetChanges returns the set
// needed to replay edits since the last commit").
func (r *RowRecord) SetValue(name string, value any) {
	if r.State == Pristine {
		r.Original = cloneValues(r.Values)
		r.State = Changed
	}
	r.Values[name] = value
}

// MarkDeleted records the row as pending deletion. A New row that is
// deleted before ever being committed simply vanishes from the working
// set (callers remove it rather than calling MarkDeleted); this method is
// for a Pristine or Changed row.
func (r *RowRecord) MarkDeleted() {
	if r.Original == nil {
		r.Original = cloneValues(r.Values)
	}
	r.State = Deleted
}

// Rollback restores a Changed or Deleted row to its Original snapshot and
// returns it to Pristine. It is a no-op on a row that is already
// Pristine.
func (r *RowRecord) Rollback() {
	if r.Original == nil {
		return
	}
	r.Values = cloneValues(r.Original)
	r.Original = nil
	r.State = Pristine
}

// Dirty reports whether the row carries any uncommitted change.
func (r *RowRecord) Dirty() bool { return r.State != Pristine }

func cloneValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
