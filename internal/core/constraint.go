package core

// ConstraintKind is one of the table-level constraint shapes spec.md §3
// names: primary_key, unique, foreign_key, check.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintCheck      ConstraintKind = "check"
)

// Constraint is a table-level constraint. Key-column lists are expressed
// as ColumnIDs so they survive a column rename.
type Constraint struct {
	Name    string         `json:"name,omitempty"`
	Kind    ConstraintKind `json:"kind"`
	Columns []ColumnID     `json:"columns,omitempty"`

	// Check holds the raw boolean expression for a CHECK constraint.
	Check string `json:"check,omitempty"`

	// ForeignKey holds the referenced table/columns and actions for a
	// table-level FOREIGN KEY constraint.
	ForeignKey *TableForeignKey `json:"foreignKey,omitempty"`
}

// TableForeignKey is a table-level FOREIGN KEY(...) REFERENCES clause.
type TableForeignKey struct {
	RefTable   string     `json:"refTable"`
	RefColumns []string   `json:"refColumns"`
	OnDelete   string     `json:"onDelete,omitempty"`
	OnUpdate   string     `json:"onUpdate,omitempty"`
}

// Equal reports whether two constraints are structurally identical. Used
// by internal/planner to decide whether the constraint list changed
// (spec.md §4.2.1 rule 2).
func (c *Constraint) Equal(o *Constraint) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.Kind != o.Kind || len(c.Columns) != len(o.Columns) {
		return false
	}
	for i := range c.Columns {
		if c.Columns[i] != o.Columns[i] {
			return false
		}
	}
	if c.Check != o.Check {
		return false
	}
	switch {
	case c.ForeignKey == nil && o.ForeignKey == nil:
		return true
	case c.ForeignKey == nil || o.ForeignKey == nil:
		return false
	default:
		return c.ForeignKey.RefTable == o.ForeignKey.RefTable &&
			c.ForeignKey.OnDelete == o.ForeignKey.OnDelete &&
			c.ForeignKey.OnUpdate == o.ForeignKey.OnUpdate &&
			equalStrings(c.ForeignKey.RefColumns, o.ForeignKey.RefColumns)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
