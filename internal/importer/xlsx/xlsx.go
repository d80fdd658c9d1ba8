// Package xlsx is the spreadsheet import-format reader (spec.md §4.3.1),
// built on github.com/tealeg/xlsx — an indirect dependency of
// steveyegge-beads in the example pack, wired here directly as the
// Import Engine's spreadsheet source.
package xlsx

import (
	"os"

	"github.com/tealeg/xlsx"

	"sqlshelf/internal/importer/source"
)

// Reader implements source.Reader over one .xlsx workbook. Unlike
// csvsrc/jsonsrc, tealeg/xlsx parses the whole workbook on Open — there is
// no streaming worksheet API in this library — so Open's cost is paid once
// per file, and Sheet only re-projects already-parsed rows.
type Reader struct {
	path string
	file *xlsx.File
}

// New returns an unopened Reader; call Open to populate it.
func New() *Reader { return &Reader{} }

// Open parses the workbook and reports each worksheet's name, row count,
// and a best-effort header guess (the first row's cell values).
func (r *Reader) Open(path string) (source.Info, error) {
	r.path = path
	fi, err := os.Stat(path)
	if err != nil {
		return source.Info{}, source.Wrap(path, err)
	}
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return source.Info{}, source.Wrap(path, err)
	}
	r.file = f

	sheets := make([]source.SheetInfo, 0, len(f.Sheets))
	for _, sh := range f.Sheets {
		info := source.SheetInfo{Name: sh.Name, Rows: int64(len(sh.Rows))}
		if len(sh.Rows) > 0 {
			info.Columns = cellValues(sh.Rows[0])
		}
		sheets = append(sheets, info)
	}
	return source.Info{Format: "xlsx", Size: fi.Size(), Sheets: sheets}, nil
}

// Sheet returns an iterator over one already-parsed worksheet's rows.
func (r *Reader) Sheet(name string) (source.RowIterator, error) {
	if name == "" && len(r.file.Sheets) == 1 {
		return &rowIterator{rows: r.file.Sheets[0].Rows}, nil
	}
	for _, sh := range r.file.Sheets {
		if sh.Name == name {
			return &rowIterator{rows: sh.Rows}, nil
		}
	}
	return nil, &source.NotFoundError{Path: r.path, Sheet: name}
}

func cellValues(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = c.Value
	}
	return out
}

type rowIterator struct {
	rows []*xlsx.Row
	pos  int
}

func (it *rowIterator) Next() (source.Row, bool, error) {
	if it.pos >= len(it.rows) {
		return source.Row{}, false, nil
	}
	row := it.rows[it.pos]
	it.pos++
	values := make([]any, len(row.Cells))
	for i, c := range row.Cells {
		values[i] = c.Value
	}
	return source.Row{Values: values}, true, nil
}

func (it *rowIterator) Close() error { return nil }
