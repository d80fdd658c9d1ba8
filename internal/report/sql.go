package report

import "strings"

// sqlFormatter renders only the executable SQL side of each subject,
// matching the teacher's sqlFormatter's "just the statements, nothing
// else" output — useful for piping straight into another sqlite3 CLI
// invocation.
type sqlFormatter struct{}

func (sqlFormatter) FormatCatalogue(v CatalogueView) (string, error) {
	var stmts []string
	for _, e := range v.Tables {
		stmts = append(stmts, e.SQL)
	}
	for _, e := range v.Indexes {
		stmts = append(stmts, e.SQL)
	}
	for _, e := range v.Views {
		stmts = append(stmts, e.SQL)
	}
	for _, e := range v.Triggers {
		stmts = append(stmts, e.SQL)
	}
	return strings.Join(normalizeStatements(stmts), "\n"), nil
}

func (sqlFormatter) FormatPlan(v PlanView) (string, error) {
	return strings.Join(normalizeStatements(v.Statements), "\n"), nil
}

func (sqlFormatter) FormatImportResult(v ImportResultView) (string, error) {
	// An import result has no SQL representation — it's the outcome of
	// DML already executed, not a statement to run. Empty output matches
	// the teacher's own sqlFormatter.FormatDiff returning "" for a nil
	// diff: "nothing to show" is a valid SQL-format answer.
	return "", nil
}
