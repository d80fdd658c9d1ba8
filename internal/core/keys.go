package core

// Keys holds the primary and foreign keys derived from a table's columns
// and table-level constraints (spec.md §3: "Each table also carries
// keys = (primary_keys, foreign_keys) derived from column+table
// constraints").
type Keys struct {
	PrimaryKeys []ColumnID       `json:"primaryKeys,omitempty"`
	ForeignKeys []ForeignKeyInfo `json:"foreignKeys,omitempty"`
}

// ForeignKeyInfo is one resolved foreign key, whether it came from an
// inline column REFERENCES clause or a table-level FOREIGN KEY constraint.
type ForeignKeyInfo struct {
	Columns    []ColumnID `json:"columns"`
	RefTable   string     `json:"refTable"`
	RefColumns []string   `json:"refColumns"`
	OnDelete   string     `json:"onDelete,omitempty"`
	OnUpdate   string     `json:"onUpdate,omitempty"`
}

// DeriveKeys (re)computes Table.Keys from the current Columns and
// Constraints. Call after any edit that could change key membership
// (column flag flip, constraint add/remove).
func (t *Table) DeriveKeys() {
	var pk []ColumnID
	var fks []ForeignKeyInfo

	for _, c := range t.Columns {
		if c.Flags.PrimaryKey {
			pk = append(pk, c.ColumnID)
		}
		if fk := c.Flags.ForeignKey; fk != nil {
			fks = append(fks, ForeignKeyInfo{
				Columns:    []ColumnID{c.ColumnID},
				RefTable:   fk.Table,
				RefColumns: []string{fk.Column},
				OnDelete:   fk.OnDelete,
				OnUpdate:   fk.OnUpdate,
			})
		}
	}

	for _, con := range t.Constraints {
		switch con.Kind {
		case ConstraintPrimaryKey:
			if len(pk) == 0 {
				pk = append(pk, con.Columns...)
			}
		case ConstraintForeignKey:
			if con.ForeignKey == nil {
				continue
			}
			fks = append(fks, ForeignKeyInfo{
				Columns:    con.Columns,
				RefTable:   con.ForeignKey.RefTable,
				RefColumns: con.ForeignKey.RefColumns,
				OnDelete:   con.ForeignKey.OnDelete,
				OnUpdate:   con.ForeignKey.OnUpdate,
			})
		}
	}

	t.Keys = Keys{PrimaryKeys: pk, ForeignKeys: fks}
}

// HasExplicitPrimaryKey reports whether the table declares any primary key
// at all (column-level or table-level). Used by internal/grid to decide
// whether it must fall back to the hidden rowid for UPDATE/DELETE
// targeting (spec.md §3 "Row record").
func (t *Table) HasExplicitPrimaryKey() bool {
	return len(t.Keys.PrimaryKeys) > 0
}

// IsSingleIntegerPrimaryKey reports whether the table has exactly one
// PRIMARY KEY column whose affinity is INTEGER — the SQLite rowid-alias
// case relevant to internal/grid.Commit's last-insert-rowid writeback.
func (t *Table) IsSingleIntegerPrimaryKey() (*Column, bool) {
	if len(t.Keys.PrimaryKeys) != 1 {
		return nil, false
	}
	col := t.ColumnByID(t.Keys.PrimaryKeys[0])
	if col == nil || col.Affinity() != AffinityInteger {
		return nil, false
	}
	return col, true
}
