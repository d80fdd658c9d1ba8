package grammar

import (
	"strings"

	"sqlshelf/internal/core"
)

// Transform rewrites every identifier reference in sqlText that matches a
// key of renames (case-insensitive) to that key's value, leaving every
// other byte — whitespace, comments, string literals, unrenamed
// identifiers, and the quoting style of renamed ones — untouched. It is
// how internal/planner keeps a dependent index, view, or trigger's DDL in
// sync with a column rename when the COMPLEX rebuild re-creates those
// objects, without re-deriving the statement from its meta and so
// losing the author's original formatting.
//
// renames is keyed by core.FoldName of the old identifier. It is
// intentionally flat: this function has no notion of which table a bare
// column name belongs to, so callers must only pass renames that are
// unambiguous across the whole statement (the normal case for a single
// table/column rename against one dependent object).
func Transform(sqlText string, renames map[string]string) (string, error) {
	toks, err := Lex(sqlText)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, t := range toks {
		switch t.Kind {
		case TokIdent:
			if newName, ok := renames[core.FoldName(t.Text)]; ok {
				b.WriteString(newName)
				continue
			}
			b.WriteString(t.Text)
		case TokQuotedIdent:
			if newName, ok := renames[core.FoldName(t.IdentText())]; ok {
				b.WriteString(requote(t.Text, newName))
				continue
			}
			b.WriteString(t.Text)
		default:
			b.WriteString(t.Text)
		}
	}
	return b.String(), nil
}

// requote re-quotes newName using the same delimiter style original used.
func requote(original, newName string) string {
	if original == "" {
		return newName
	}
	switch original[0] {
	case '"':
		return `"` + strings.ReplaceAll(newName, `"`, `""`) + `"`
	case '`':
		return "`" + strings.ReplaceAll(newName, "`", "``") + "`"
	case '[':
		return "[" + newName + "]"
	default:
		return newName
	}
}
