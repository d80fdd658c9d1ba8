package grammar

import (
	"strings"

	"sqlshelf/internal/core"
)

// Generate renders a Statement back into canonical DDL text. The output is
// used both as an entity's SQL0 (the normalized form internal/planner diffs
// against) and as the body of a complex-ALTER rebuild script, so its
// formatting is fixed and does not attempt to mirror whatever whitespace or
// clause order the original CREATE statement happened to use.
func Generate(stmt *Statement) (string, error) {
	switch stmt.Category {
	case core.CategoryTable:
		return GenerateTable(stmt.Table), nil
	case core.CategoryIndex:
		return GenerateIndex(stmt.Index), nil
	case core.CategoryView:
		return GenerateView(stmt.View), nil
	case core.CategoryTrigger:
		return GenerateTrigger(stmt.Trigger), nil
	default:
		return "", nil
	}
}

// GenerateTable renders a canonical CREATE TABLE statement.
func GenerateTable(m *core.TableMeta) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quoteIdent(m.Name))
	b.WriteString(" (\n")

	names := make(map[core.ColumnID]string, len(m.Columns))
	for _, col := range m.Columns {
		names[col.ColumnID] = col.Name
	}

	parts := make([]string, 0, len(m.Columns)+len(m.Constraints))
	for _, col := range m.Columns {
		parts = append(parts, "  "+formatColumn(col))
	}
	for _, ct := range m.Constraints {
		parts = append(parts, "  "+formatTableConstraint(ct, names))
	}
	b.WriteString(strings.Join(parts, ",\n"))
	b.WriteString("\n)")
	if m.WithoutRowID {
		b.WriteString(" WITHOUT ROWID")
	}
	return b.String()
}

func formatColumn(col *core.Column) string {
	var b strings.Builder
	b.WriteString(quoteIdent(col.Name))
	if col.Type != "" {
		b.WriteString(" ")
		b.WriteString(col.Type)
	}
	if col.Flags.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if col.Flags.AutoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if col.Flags.NotNull {
		b.WriteString(" NOT NULL")
	}
	if col.Flags.Unique {
		b.WriteString(" UNIQUE")
	}
	if col.HasDefault {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.Default)
	}
	if col.Flags.Collate != "" {
		b.WriteString(" COLLATE ")
		b.WriteString(col.Flags.Collate)
	}
	if col.Flags.Check != "" {
		b.WriteString(" CHECK (")
		b.WriteString(col.Flags.Check)
		b.WriteString(")")
	}
	if col.Flags.ForeignKey != nil {
		b.WriteString(" ")
		b.WriteString(formatForeignKeyRef(col.Flags.ForeignKey))
	}
	return b.String()
}

func formatForeignKeyRef(ref *core.ForeignKeyRef) string {
	var b strings.Builder
	b.WriteString("REFERENCES ")
	b.WriteString(quoteIdent(ref.Table))
	if ref.Column != "" {
		b.WriteString(" (")
		b.WriteString(quoteIdent(ref.Column))
		b.WriteString(")")
	}
	if ref.OnDelete != "" {
		b.WriteString(" ON DELETE ")
		b.WriteString(ref.OnDelete)
	}
	if ref.OnUpdate != "" {
		b.WriteString(" ON UPDATE ")
		b.WriteString(ref.OnUpdate)
	}
	return b.String()
}

func formatTableConstraint(ct *core.Constraint, names map[core.ColumnID]string) string {
	var b strings.Builder
	if ct.Name != "" {
		b.WriteString("CONSTRAINT ")
		b.WriteString(quoteIdent(ct.Name))
		b.WriteString(" ")
	}
	switch ct.Kind {
	case core.ConstraintPrimaryKey:
		b.WriteString("PRIMARY KEY (")
		b.WriteString(quoteIdentList(ct.Columns, names))
		b.WriteString(")")
	case core.ConstraintUnique:
		b.WriteString("UNIQUE (")
		b.WriteString(quoteIdentList(ct.Columns, names))
		b.WriteString(")")
	case core.ConstraintCheck:
		b.WriteString("CHECK (")
		b.WriteString(ct.Check)
		b.WriteString(")")
	case core.ConstraintForeignKey:
		b.WriteString("FOREIGN KEY (")
		b.WriteString(quoteIdentList(ct.Columns, names))
		b.WriteString(") REFERENCES ")
		b.WriteString(quoteIdent(ct.ForeignKey.RefTable))
		if len(ct.ForeignKey.RefColumns) > 0 {
			b.WriteString(" (")
			b.WriteString(strings.Join(quoteIdents(ct.ForeignKey.RefColumns), ", "))
			b.WriteString(")")
		}
		if ct.ForeignKey.OnDelete != "" {
			b.WriteString(" ON DELETE ")
			b.WriteString(ct.ForeignKey.OnDelete)
		}
		if ct.ForeignKey.OnUpdate != "" {
			b.WriteString(" ON UPDATE ")
			b.WriteString(ct.ForeignKey.OnUpdate)
		}
	}
	return b.String()
}

// GenerateIndex renders a canonical CREATE INDEX statement.
func GenerateIndex(m *core.IndexMeta) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if m.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(quoteIdent(m.Name))
	b.WriteString(" ON ")
	b.WriteString(quoteIdent(m.Table))
	b.WriteString(" (")
	parts := make([]string, 0, len(m.Columns))
	for _, col := range m.Columns {
		p := col.Expression
		if p == "" {
			p = quoteIdent(col.Name)
		}
		if col.Collate != "" {
			p += " COLLATE " + col.Collate
		}
		if col.Descending {
			p += " DESC"
		}
		parts = append(parts, p)
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(")")
	if m.Partial != "" {
		b.WriteString(" WHERE ")
		b.WriteString(m.Partial)
	}
	return b.String()
}

// GenerateView renders a canonical CREATE VIEW statement.
func GenerateView(m *core.ViewMeta) string {
	var b strings.Builder
	b.WriteString("CREATE VIEW ")
	b.WriteString(quoteIdent(m.Name))
	if len(m.Columns) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(quoteIdents(m.Columns), ", "))
		b.WriteString(")")
	}
	b.WriteString(" AS ")
	b.WriteString(m.Select)
	return b.String()
}

// GenerateTrigger renders a canonical CREATE TRIGGER statement.
func GenerateTrigger(m *core.TriggerMeta) string {
	var b strings.Builder
	b.WriteString("CREATE TRIGGER ")
	b.WriteString(quoteIdent(m.Name))
	if m.Upon != "" {
		b.WriteString(" ")
		b.WriteString(m.Upon)
	}
	b.WriteString(" ")
	b.WriteString(m.Action)
	b.WriteString(" ON ")
	b.WriteString(quoteIdent(m.Table))
	b.WriteString(" FOR EACH ROW")
	if m.When != "" {
		b.WriteString(" WHEN ")
		b.WriteString(m.When)
	}
	b.WriteString("\nBEGIN\n")
	b.WriteString(m.Body)
	b.WriteString("\nEND")
	return b.String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}

func quoteIdentList(ids []core.ColumnID, names map[core.ColumnID]string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		if name, ok := names[id]; ok {
			parts[i] = quoteIdent(name)
		} else {
			parts[i] = quoteIdent(string(id))
		}
	}
	return strings.Join(parts, ", ")
}
