// Package yamlsrc is the YAML import-format reader (spec.md §4.3.1): a
// single top-level YAML sequence of mappings is one sheet of named rows,
// read with gopkg.in/yaml.v3's stream decoder — the same dependency the
// teacher pack already carries directly (Pieczasz-smf's own go.mod) and
// that steveyegge-beads also uses, so no new YAML library is introduced.
package yamlsrc

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"sqlshelf/internal/importer/source"
)

const sheetName = "yaml"

// Reader implements source.Reader over one YAML file holding a top-level
// sequence of row mappings.
type Reader struct {
	path string
}

// New returns an unopened Reader; call Open to populate it.
func New() *Reader { return &Reader{} }

// Open reports the file's size. Counting rows would require decoding the
// whole document, so Rows is reported as -1, matching jsonsrc.
func (r *Reader) Open(path string) (source.Info, error) {
	r.path = path
	fi, err := os.Stat(path)
	if err != nil {
		return source.Info{}, source.Wrap(path, err)
	}
	return source.Info{
		Format: "yaml",
		Size:   fi.Size(),
		Sheets: []source.SheetInfo{{Name: sheetName, Rows: -1}},
	}, nil
}

// Sheet decodes the whole top-level sequence up front: yaml.v3's Decoder
// does not support resuming mid-sequence across calls, so unlike csvsrc/
// jsonsrc this reader buffers the parsed rows (but not the raw file) and
// serves them one at a time.
func (r *Reader) Sheet(name string) (source.RowIterator, error) {
	if name != sheetName && name != "" {
		return nil, &source.NotFoundError{Path: r.path, Sheet: name}
	}
	f, err := os.Open(r.path)
	if err != nil {
		return nil, source.Wrap(r.path, err)
	}
	defer f.Close()

	var rows []map[string]any
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&rows); err != nil && err != io.EOF {
		return nil, source.Wrap(r.path, err)
	}
	return &rowIterator{rows: rows}, nil
}

type rowIterator struct {
	rows []map[string]any
	pos  int
}

func (it *rowIterator) Next() (source.Row, bool, error) {
	if it.pos >= len(it.rows) {
		return source.Row{}, false, nil
	}
	row := it.rows[it.pos]
	it.pos++
	return source.Row{Named: row}, true, nil
}

func (it *rowIterator) Close() error { return nil }
