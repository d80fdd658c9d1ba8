package core

// TableMeta, IndexMeta, ViewMeta, and TriggerMeta are the tagged-variant
// "parsed tree" forms spec.md §3 calls meta: the structured result of
// internal/grammar.Parse for each category. Table/Index/View/Trigger embed
// a pointer to the matching *Meta (nil if parsing failed) so the rest of
// the system can work from either the flattened entity fields or the full
// parse tree.
//
// Unlike Table/Index/View/Trigger (which are internal/catalogue's working
// copies, mutated by editors), the Meta types are treated as immutable
// snapshots produced by Parse and consumed by Generate/Transform.

// TableMeta is the parsed form of a CREATE TABLE statement.
type TableMeta struct {
	Name         string
	Columns      []*Column
	Constraints  []*Constraint
	WithoutRowID bool
}

// IndexMeta is the parsed form of a CREATE INDEX statement.
type IndexMeta struct {
	Name    string
	Table   string
	Columns []IndexColumn
	Unique  bool
	Partial string
}

// ViewMeta is the parsed form of a CREATE VIEW statement.
type ViewMeta struct {
	Name    string
	Columns []string
	Select  string
}

// TriggerMeta is the parsed form of a CREATE TRIGGER statement.
type TriggerMeta struct {
	Name   string
	Table  string
	Upon   string
	Action string
	When   string
	Body   string
}

// ToTable builds a working Table from a parsed TableMeta, deriving Keys.
func (m *TableMeta) ToTable(id EntityID, rawSQL, sql0 string) *Table {
	t := &Table{
		Entity: Entity{
			EntityID: id,
			Category: CategoryTable,
			Name:     m.Name,
			SQL:      rawSQL,
			SQL0:     sql0,
		},
		Columns:      m.Columns,
		Constraints:  m.Constraints,
		WithoutRowID: m.WithoutRowID,
		Meta:         m,
	}
	t.DeriveKeys()
	return t
}

// ToIndex builds a working Index from a parsed IndexMeta.
func (m *IndexMeta) ToIndex(id EntityID, rawSQL, sql0 string) *Index {
	return &Index{
		Entity: Entity{
			EntityID: id,
			Category: CategoryIndex,
			Name:     m.Name,
			SQL:      rawSQL,
			SQL0:     sql0,
		},
		Table:   m.Table,
		Columns: m.Columns,
		Unique:  m.Unique,
		Partial: m.Partial,
	}
}

// ToView builds a working View from a parsed ViewMeta.
func (m *ViewMeta) ToView(id EntityID, rawSQL, sql0 string) *View {
	return &View{
		Entity: Entity{
			EntityID: id,
			Category: CategoryView,
			Name:     m.Name,
			SQL:      rawSQL,
			SQL0:     sql0,
		},
		Columns: m.Columns,
		Select:  m.Select,
	}
}

// ToTrigger builds a working Trigger from a parsed TriggerMeta.
func (m *TriggerMeta) ToTrigger(id EntityID, rawSQL, sql0 string) *Trigger {
	return &Trigger{
		Entity: Entity{
			EntityID: id,
			Category: CategoryTrigger,
			Name:     m.Name,
			SQL:      rawSQL,
			SQL0:     sql0,
		},
		Table:  m.Table,
		Upon:   m.Upon,
		Action: m.Action,
		When:   m.When,
		Body:   m.Body,
	}
}
