package grid

import (
	"encoding/hex"
	"strconv"
	"strings"

	"sqlshelf/internal/core"
)

// coerceRaw implements spec.md §4.1.1's SetValue coercion rule: a raw
// string typed by the user is converted per the target column's type
// affinity before it is stored — INTEGER/REAL attempt a numeric parse,
// BLOB unescapes the X'..' hex display form ValueAt produces for a blob,
// anything else passes through unchanged. A value that isn't a string to
// begin with (e.g. already-typed data arriving from internal/importer)
// passes through untouched; coercion is purely a raw-text-entry concern.
func coerceRaw(col *core.Column, value any) any {
	raw, isString := value.(string)
	if !isString || col == nil {
		return value
	}

	switch col.Affinity() {
	case core.AffinityInteger:
		if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			return n
		}
		return raw
	case core.AffinityReal:
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return f
		}
		return raw
	case core.AffinityBlob:
		if b, ok := unescapeBlobLiteral(raw); ok {
			return b
		}
		return raw
	default:
		return raw
	}
}

// blobLiteral encodes raw bytes as SQLite's X'..' blob literal display
// form, the inverse of unescapeBlobLiteral — spec.md §4.1.1's "BLOB
// affinity values are returned as their escape-encoded text for display".
func blobLiteral(b []byte) string {
	return "X'" + strings.ToUpper(hex.EncodeToString(b)) + "'"
}

// unescapeBlobLiteral decodes SQLite's X'..' blob literal display form
// (the text ValueAt returns for a BLOB column) back into raw bytes.
func unescapeBlobLiteral(text string) ([]byte, bool) {
	if len(text) < 3 || (text[0] != 'X' && text[0] != 'x') || text[1] != '\'' || text[len(text)-1] != '\'' {
		return nil, false
	}
	b, err := hex.DecodeString(text[2 : len(text)-1])
	if err != nil {
		return nil, false
	}
	return b, true
}
