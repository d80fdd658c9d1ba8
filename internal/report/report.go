// Package report formats the three things cmd/sqlshelf prints for a
// human or a script to consume: a catalogue listing, a planner script,
// and an import run's result. It is the teacher's internal/output
// package repurposed wholesale: the same Format enum and
// NewFormatter(name) factory, the same sql/json/human/summary split,
// generalized from "a schema diff and a cross-dialect migration" to "a
// SQLite catalogue, a planner script, and an import result" — the three
// things this module's CLI actually produces.
package report

import (
	"fmt"
	"strings"
)

// Format selects which of the four renderings NewFormatter returns.
type Format string

const (
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatHuman   Format = "human"
	FormatSummary Format = "summary"
)

// Formatter renders the three report subjects cmd/sqlshelf produces.
type Formatter interface {
	FormatCatalogue(CatalogueView) (string, error)
	FormatPlan(PlanView) (string, error)
	FormatImportResult(ImportResultView) (string, error)
}

// NewFormatter returns the Formatter for name, defaulting to human when
// name is empty (the teacher's NewFormatter defaults to SQL; sqlshelf
// defaults to human because its primary audience is a terminal user
// inspecting a database, not a migration pipeline consuming SQL text).
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatHuman:
		return humanFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSQL:
		return sqlFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'human', 'json', 'sql', or 'summary'", name)
	}
}

func normalizeStatements(stmts []string) []string {
	out := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if !strings.HasSuffix(stmt, ";") {
			stmt += ";"
		}
		out = append(out, stmt)
	}
	return out
}
