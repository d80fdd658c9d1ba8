// Package jsonsrc is the JSON import-format reader (spec.md §4.3.1): a
// single top-level JSON array of objects is treated as one sheet of named
// rows, decoded incrementally with encoding/json's streaming token reader
// so a source file larger than memory never needs to be held whole — the
// same "stream, don't load" requirement spec.md makes of every import
// source.
package jsonsrc

import (
	"encoding/json"
	"io"
	"os"

	"sqlshelf/internal/importer/source"
)

const sheetName = "json"

// Reader implements source.Reader over one JSON file holding a top-level
// array of row objects.
type Reader struct {
	path string
}

// New returns an unopened Reader; call Open to populate it.
func New() *Reader { return &Reader{} }

// Open reports the file's size. Row count is always -1: counting would
// require a full decode pass, defeating the point of streaming.
func (r *Reader) Open(path string) (source.Info, error) {
	r.path = path
	fi, err := os.Stat(path)
	if err != nil {
		return source.Info{}, source.Wrap(path, err)
	}
	return source.Info{
		Format: "json",
		Size:   fi.Size(),
		Sheets: []source.SheetInfo{{Name: sheetName, Rows: -1}},
	}, nil
}

// Sheet opens a fresh streaming decode of the array, positioned just past
// its opening '['.
func (r *Reader) Sheet(name string) (source.RowIterator, error) {
	if name != sheetName && name != "" {
		return nil, &source.NotFoundError{Path: r.path, Sheet: name}
	}
	f, err := os.Open(r.path)
	if err != nil {
		return nil, source.Wrap(r.path, err)
	}
	dec := json.NewDecoder(f)
	tok, err := dec.Token()
	if err != nil {
		_ = f.Close()
		return nil, source.Wrap(r.path, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		_ = f.Close()
		return nil, source.Wrap(r.path, errNotArray)
	}
	return &rowIterator{path: r.path, f: f, dec: dec}, nil
}

var errNotArray = jsonSourceError("top-level JSON value must be an array of row objects")

type jsonSourceError string

func (e jsonSourceError) Error() string { return string(e) }

type rowIterator struct {
	path string
	f    *os.File
	dec  *json.Decoder
}

func (it *rowIterator) Next() (source.Row, bool, error) {
	if !it.dec.More() {
		return source.Row{}, false, nil
	}
	var obj map[string]any
	if err := it.dec.Decode(&obj); err != nil {
		if err == io.EOF {
			return source.Row{}, false, nil
		}
		return source.Row{}, false, source.Wrap(it.path, err)
	}
	return source.Row{Named: obj}, true, nil
}

func (it *rowIterator) Close() error { return it.f.Close() }
