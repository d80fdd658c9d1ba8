// Package source defines the shared contract every import-format reader
// (internal/importer/csvsrc, .../xlsx, .../jsonsrc, .../yamlsrc) implements,
// following spec.md §4.3.1/§6's "each file format exposes open(path) and a
// per-sheet iterator" contract. It is split out from internal/importer
// itself so the format readers depend only on these small types, not on
// the engine that drives them.
package source

import "sqlshelf/internal/sqlerr"

// Row is one source row. Spreadsheet and CSV readers populate Values
// (positional); JSON and YAML readers populate Named (keyed) — a sheet
// mapping may address either, per spec.md §4.3.1.
type Row struct {
	Values []any
	Named  map[string]any
}

// SheetInfo describes one sheet/section of a source file. Rows is -1 when
// the format can't report a count without a full read (JSON/YAML arrays
// of unknown length streamed lazily).
type SheetInfo struct {
	Name    string
	Rows    int64
	Columns []string
}

// Info is what Reader.Open reports about a source file before any row is
// read, matching spec.md §4.3.1's "{format, size, sheets[]}".
type Info struct {
	Format string
	Size   int64
	Sheets []SheetInfo
}

// RowIterator yields one sheet's rows in order. Next returns ok=false once
// the sheet is exhausted, with err nil on a clean end.
type RowIterator interface {
	Next() (row Row, ok bool, err error)
	Close() error
}

// Reader is implemented by each file-format package. Open must not mutate
// the database; it only inspects the source file.
type Reader interface {
	Open(path string) (Info, error)
	Sheet(name string) (RowIterator, error)
}

// NotFoundError reports that Sheet was asked for a sheet name Open never
// reported.
type NotFoundError struct {
	Path  string
	Sheet string
}

func (e *NotFoundError) Error() string {
	return "sheet " + e.Sheet + " not found in " + e.Path
}

// Wrap turns a reader-level failure into the *sqlerr.SourceError spec.md
// §7 names for unreadable/malformed import sources.
func Wrap(path string, err error) error {
	if err == nil {
		return nil
	}
	return &sqlerr.SourceError{Path: path, Cause: err}
}
