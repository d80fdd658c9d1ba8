package core

import "fmt"

// ValidationError represents a structural violation caught before any
// statement is generated or executed — spec.md §7's ValidationError
// taxonomy entry. It carries a human-readable list of offenders rather
// than a single message, mirroring internal/apply.PreflightResult's
// Warnings/Errors split in the teacher pack.
type ValidationError struct {
	Entity    string
	Name      string
	Offenders []string
}

func (e *ValidationError) Error() string {
	if len(e.Offenders) == 0 {
		return fmt.Sprintf("validation error in %s %q", e.Entity, e.Name)
	}
	msg := fmt.Sprintf("validation error in %s %q:", e.Entity, e.Name)
	for _, o := range e.Offenders {
		msg += "\n  - " + o
	}
	return msg
}

// ValidateTable checks the structural rules spec.md §4.2.4(i) requires
// before a planner script can be emitted for a table: non-empty name and
// at least one column.
func ValidateTable(t *TableMeta) error {
	var offenders []string
	if FoldName(t.Name) == "" {
		offenders = append(offenders, "table name must not be empty")
	}
	if len(t.Columns) == 0 {
		offenders = append(offenders, "table must have at least one column")
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		key := FoldName(c.Name)
		if key == "" {
			offenders = append(offenders, "column name must not be empty")
			continue
		}
		if seen[key] {
			offenders = append(offenders, fmt.Sprintf("duplicate column name %q", c.Name))
		}
		seen[key] = true
	}
	if len(offenders) > 0 {
		return &ValidationError{Entity: "table", Name: t.Name, Offenders: offenders}
	}
	return nil
}

// ValidateIndex checks that an index names a target table and at least
// one column or expression.
func ValidateIndex(m *IndexMeta) error {
	var offenders []string
	if FoldName(m.Name) == "" {
		offenders = append(offenders, "index name must not be empty")
	}
	if FoldName(m.Table) == "" {
		offenders = append(offenders, "index must name a target table")
	}
	if len(m.Columns) == 0 {
		offenders = append(offenders, "index must have at least one column")
	}
	if len(offenders) > 0 {
		return &ValidationError{Entity: "index", Name: m.Name, Offenders: offenders}
	}
	return nil
}

// ValidateTrigger checks that a trigger names its target table, action,
// and body.
func ValidateTrigger(m *TriggerMeta) error {
	var offenders []string
	if FoldName(m.Name) == "" {
		offenders = append(offenders, "trigger name must not be empty")
	}
	if FoldName(m.Table) == "" {
		offenders = append(offenders, "trigger must name a target table")
	}
	if FoldName(m.Action) == "" {
		offenders = append(offenders, "trigger must declare an action (INSERT/UPDATE/DELETE)")
	}
	if FoldName(m.Body) == "" {
		offenders = append(offenders, "trigger must have a body")
	}
	if len(offenders) > 0 {
		return &ValidationError{Entity: "trigger", Name: m.Name, Offenders: offenders}
	}
	return nil
}

// ValidateView checks that a view names itself and declares a SELECT.
func ValidateView(m *ViewMeta) error {
	var offenders []string
	if FoldName(m.Name) == "" {
		offenders = append(offenders, "view name must not be empty")
	}
	if FoldName(m.Select) == "" {
		offenders = append(offenders, "view must declare a select statement")
	}
	if len(offenders) > 0 {
		return &ValidationError{Entity: "view", Name: m.Name, Offenders: offenders}
	}
	return nil
}
