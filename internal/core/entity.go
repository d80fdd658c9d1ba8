// Package core contains the single source of truth for a SQLite schema:
// the parsed, structured representation of every table, index, view, and
// trigger that internal/catalogue reflects from sqlite_master, and that
// internal/planner diffs and internal/grammar renders back to SQL.
package core

import "strings"

// Category identifies the kind of schema object an Entity represents.
type Category string

const (
	CategoryTable   Category = "table"
	CategoryIndex   Category = "index"
	CategoryView    Category = "view"
	CategoryTrigger Category = "trigger"
)

// FoldName normalizes an identifier for case-insensitive ASCII comparison.
// Every name lookup and collision check in this module goes through it, per
// the fixed rule in spec.md §9 ("case-insensitive ASCII... for every
// identifier lookup and collision check").
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// EntityID is a stable internal identifier for a schema object. It survives
// reloads for the same sqlite_master row identity; an object re-created
// after a reload that did not see it gets a fresh one (see
// internal/catalogue).
type EntityID string

// ColumnID is a stable internal identifier for a table column, assigned at
// parse time and preserved across edits. It is what makes diff-based ALTER
// tractable in internal/planner.
type ColumnID string

// Entity is the common shape every schema object exposes. Table, Index,
// View, and Trigger each embed Entity and add their own fields.
type Entity struct {
	EntityID EntityID `json:"entityId"`
	Category Category `json:"category"`
	Name     string   `json:"name"`

	// SQL is the raw CREATE statement exactly as stored in sqlite_master.
	SQL string `json:"sql"`
	// SQL0 is the canonical normalized form of SQL, used for diffing.
	// It is recomputed whenever Meta changes; see internal/grammar.Generate.
	SQL0 string `json:"sql0"`
}

// NameKey returns the case-folded lookup key for this entity's name.
func (e *Entity) NameKey() string { return FoldName(e.Name) }

// Table is the table entity described in spec.md §3.
type Table struct {
	Entity

	Columns     []*Column     `json:"columns"`
	Constraints []*Constraint `json:"constraints,omitempty"`
	WithoutRowID bool         `json:"withoutRowid"`

	Keys  Keys       `json:"keys"`
	Stats *TableStats `json:"stats,omitempty"`

	// Meta is present only when the raw SQL parsed successfully; see
	// internal/grammar.Parse.
	Meta *TableMeta `json:"-"`
}

// TableStats is the optional statistics block for a table (spec.md §3).
type TableStats struct {
	RowCount          int64 `json:"rowCount"`
	TotalBytes        int64 `json:"totalBytes"`
	IsCountEstimated  bool  `json:"isCountEstimated"`
}

// Index is the index entity described in spec.md §3.
type Index struct {
	Entity

	Table   string         `json:"table"`
	Columns []IndexColumn  `json:"columns"`
	Unique  bool           `json:"unique"`
	Partial string         `json:"partial,omitempty"` // raw WHERE clause text, if any
}

// IndexColumn is one column (or expression) participating in an index.
type IndexColumn struct {
	Name       string `json:"name"`
	Expression string `json:"expression,omitempty"`
	Collate    string `json:"collate,omitempty"`
	Descending bool   `json:"descending,omitempty"`
}

// View is the view entity described in spec.md §3.
type View struct {
	Entity

	Columns []string `json:"columns,omitempty"` // explicit column list, if the view declares one
	Select  string   `json:"select"`
}

// Trigger is the trigger entity described in spec.md §3.
type Trigger struct {
	Entity

	Table  string `json:"table"`
	Upon   string `json:"upon"`  // BEFORE | AFTER | INSTEAD OF
	Action string `json:"action"` // INSERT | UPDATE | DELETE
	When   string `json:"when,omitempty"`
	Body   string `json:"body"`
}

// Named is implemented by every entity kind, used for sorted output.
type Named interface{ GetName() string }

func (t *Table) GetName() string   { return t.Name }
func (i *Index) GetName() string   { return i.Name }
func (v *View) GetName() string    { return v.Name }
func (t *Trigger) GetName() string { return t.Name }
