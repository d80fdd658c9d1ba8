// Package importer is component F, the Import Engine (spec.md §4.3): it
// streams rows from a source.Reader into one or more target tables,
// creating a table when asked, inserting under a caller-controlled error
// policy, and reporting progress synchronously so the caller (the CLI, or
// a future GUI layer) can drive a gauge or a prompt.
//
// It follows internal/apply.Applier's shape — a function that walks a
// statement-like stream against a *sqlitedb.DB inside one savepoint,
// reporting as it goes — generalized from "apply a fixed list of DDL
// statements" to "apply a dynamically-sized stream of per-row DML with a
// decision point after every failure".
package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"sqlshelf/internal/config"
	"sqlshelf/internal/core"
	"sqlshelf/internal/grammar"
	"sqlshelf/internal/importer/csvsrc"
	"sqlshelf/internal/importer/jsonsrc"
	"sqlshelf/internal/importer/source"
	"sqlshelf/internal/importer/xlsx"
	"sqlshelf/internal/importer/yamlsrc"
	"sqlshelf/internal/sqlerr"
	"sqlshelf/internal/sqlitedb"
)

// ColumnMapping binds one source column to one target column, addressed
// by position (spreadsheet/CSV) or by name (JSON/YAML), per spec.md
// §4.3.1.
type ColumnMapping struct {
	SourceIndex  int
	SourceName   string
	TargetColumn string
}

// NewColumn describes one column of a table the import engine creates for
// a sheet whose target does not already exist.
type NewColumn struct {
	Name string
	Type string
}

// SheetMapping is the per-sheet mapping the caller supplies, matching
// spec.md §4.3.1's "target table, column mapping, optional
// auto-increment primary key, header_row flag".
type SheetMapping struct {
	SheetName   string
	TargetTable string

	CreateTable bool
	NewColumns  []NewColumn
	// AutoIncrementColumn, when non-empty and CreateTable is set, adds an
	// `INTEGER PRIMARY KEY AUTOINCREMENT` column of this name ahead of
	// NewColumns.
	AutoIncrementColumn string

	HeaderRow bool
	Columns   []ColumnMapping
}

// Progress is what spec.md §4.3.3 calls the progress callback's payload:
// any subset of table/count/errorcount/error/index/done.
type Progress struct {
	Table      string
	Count      int
	ErrorCount int
	Error      error
	Index      int
	Done       bool
}

// Decision is the progress callback's return value, controlling
// continuation after a row error per spec.md §4.3.2/§4.3.3.
type Decision int

const (
	// DecisionContinue ("truthy") keeps importing subsequent rows.
	DecisionContinue Decision = iota
	// DecisionStop ("false") stops the run, importing no further rows or
	// sheets, but keeps rows already inserted.
	DecisionStop
	// DecisionRollback ("null/none") stops the whole run and rolls back
	// everything inserted so far.
	DecisionRollback
)

// ProgressFunc is the synchronous progress sink spec.md §4.3.3 describes.
// Run calls it after every inserted row, after each row-level error, and
// once per sheet with Done set; only the Decision returned for an error
// is acted on.
type ProgressFunc func(Progress) Decision

// Result is the run's final tally: rows inserted and rows that errored,
// per target table.
type Result struct {
	CountPerTable  map[string]int
	ErrorsPerTable map[string]int
}

// DetectFormat picks a source.Reader by file extension, the same
// extension-sniffing spec.md §4.3.1 asks for ("auto-detect by extension
// or content" — content-sniffing is not needed since every format this
// engine supports has an unambiguous extension).
func DetectFormat(path string) (source.Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return csvsrc.New(), nil
	case ".json":
		return jsonsrc.New(), nil
	case ".yaml", ".yml":
		return yamlsrc.New(), nil
	case ".xlsx":
		return xlsx.New(), nil
	default:
		return nil, &sqlerr.SourceError{Path: path, Cause: fmt.Errorf("unrecognized import file extension %q", filepath.Ext(path))}
	}
}

// Run executes the full import protocol of spec.md §4.3.2 against path
// using reader, applying mappings in order inside one named savepoint.
// ctx cancellation is checked between rows (spec.md §5's cooperative
// cancellation) and, if it fires, the run stops as though the progress
// callback had returned DecisionRollback.
func Run(ctx context.Context, db *sqlitedb.DB, cfg config.Import, reader source.Reader, path string, mappings []SheetMapping, progress ProgressFunc) (Result, error) {
	result := Result{CountPerTable: map[string]int{}, ErrorsPerTable: map[string]int{}}

	if _, err := reader.Open(path); err != nil {
		return Result{}, err
	}

	if _, err := db.Execute(ctx, "SAVEPOINT "+quoteSavepoint(cfg.SavepointName)); err != nil {
		return result, err
	}

	rollback := false
	for _, mapping := range mappings {
		if mapping.CreateTable {
			if err := createTable(ctx, db, mapping); err != nil {
				rollbackSavepoint(ctx, db, cfg.SavepointName)
				return result, err
			}
		}

		it, err := reader.Sheet(mapping.SheetName)
		if err != nil {
			rollbackSavepoint(ctx, db, cfg.SavepointName)
			return result, err
		}

		stop, sheetRollback := runSheet(ctx, db, mapping, it, progress, &result)
		it.Close()
		if progress != nil {
			progress(Progress{Table: mapping.TargetTable, Done: true})
		}
		if sheetRollback {
			rollback = true
			break
		}
		if stop {
			break
		}
	}

	if rollback {
		rollbackSavepoint(ctx, db, cfg.SavepointName)
	} else {
		_, _ = db.Execute(ctx, "RELEASE "+quoteSavepoint(cfg.SavepointName))
	}
	return result, nil
}

// runSheet iterates one sheet's rows, inserting each. It returns
// (stop, rollback): stop means the caller should move on without
// importing further sheets but keep what this sheet already inserted;
// rollback means the entire run (all sheets, including earlier ones)
// must be undone.
func runSheet(ctx context.Context, db *sqlitedb.DB, mapping SheetMapping, it source.RowIterator, progress ProgressFunc, result *Result) (stop, rollback bool) {
	ignoreAll := false
	index := 0

	for {
		if ctx.Err() != nil {
			return false, true
		}

		row, ok, err := it.Next()
		if err != nil {
			result.ErrorsPerTable[mapping.TargetTable]++
			if ignoreAll {
				continue
			}
			dec := callProgress(progress, Progress{
				Table:      mapping.TargetTable,
				ErrorCount: result.ErrorsPerTable[mapping.TargetTable],
				Error:      err,
				Index:      index,
			})
			switch dec {
			case DecisionContinue:
				ignoreAll = true
				continue
			case DecisionStop:
				return true, false
			default:
				return false, true
			}
		}
		if !ok {
			return false, false
		}
		index++

		if mapping.HeaderRow && index == 1 {
			continue
		}

		stmt, args := buildInsert(mapping, row)
		if stmt == "" {
			continue
		}
		if _, err := db.Execute(ctx, stmt, args...); err != nil {
			result.ErrorsPerTable[mapping.TargetTable]++
			if ignoreAll {
				continue
			}
			dec := callProgress(progress, Progress{
				Table:      mapping.TargetTable,
				ErrorCount: result.ErrorsPerTable[mapping.TargetTable],
				Error:      err,
				Index:      index,
			})
			switch dec {
			case DecisionContinue:
				ignoreAll = true
				continue
			case DecisionStop:
				return true, false
			default:
				return false, true
			}
		}

		result.CountPerTable[mapping.TargetTable]++
		callProgress(progress, Progress{
			Table: mapping.TargetTable,
			Count: result.CountPerTable[mapping.TargetTable],
			Index: index,
		})
	}
}

func callProgress(progress ProgressFunc, p Progress) Decision {
	if progress == nil {
		return DecisionRollback
	}
	return progress(p)
}

// buildInsert constructs an INSERT statement covering only the mapped
// columns (spec.md §4.3.2 step 3: "construct an INSERT mapping only
// mapped columns").
func buildInsert(mapping SheetMapping, row source.Row) (string, []any) {
	var cols []string
	var args []any
	for _, cm := range mapping.Columns {
		val, ok := resolveValue(cm, row)
		if !ok {
			continue
		}
		cols = append(cols, quoteIdent(cm.TargetColumn))
		args = append(args, val)
	}
	if len(cols) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(mapping.TargetTable), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return stmt, args
}

func resolveValue(cm ColumnMapping, row source.Row) (any, bool) {
	if row.Named != nil {
		v, ok := row.Named[cm.SourceName]
		return v, ok
	}
	if cm.SourceIndex < 0 || cm.SourceIndex >= len(row.Values) {
		return nil, false
	}
	return row.Values[cm.SourceIndex], true
}

// createTable builds and executes a CREATE TABLE statement for a new
// import target, uniquifying column names the way spec.md §4.3.2 step 1
// requires.
func createTable(ctx context.Context, db *sqlitedb.DB, mapping SheetMapping) error {
	meta := &core.TableMeta{Name: mapping.TargetTable}

	if mapping.AutoIncrementColumn != "" {
		meta.Columns = append(meta.Columns, &core.Column{
			ColumnID: core.NewColumnID(),
			Name:     uniquify(mapping.AutoIncrementColumn, meta.Columns),
			Type:     "INTEGER",
			Flags:    core.ColumnFlags{PrimaryKey: true, AutoIncrement: true},
			Order:    len(meta.Columns),
		})
	}
	for _, nc := range mapping.NewColumns {
		meta.Columns = append(meta.Columns, &core.Column{
			ColumnID: core.NewColumnID(),
			Name:     uniquify(nc.Name, meta.Columns),
			Type:     nc.Type,
			Order:    len(meta.Columns),
		})
	}
	if err := core.ValidateTable(meta); err != nil {
		return err
	}

	stmt := grammar.GenerateTable(meta)
	if _, err := db.Execute(ctx, stmt); err != nil {
		return err
	}
	return nil
}

// uniquify returns name, or name suffixed with an incrementing counter,
// such that it does not case-insensitively collide with any column
// already in cols — spec.md §4.3.2's "CREATE it with uniquified column
// names".
func uniquify(name string, cols []*core.Column) string {
	key := core.FoldName(name)
	taken := make(map[string]bool, len(cols))
	for _, c := range cols {
		taken[core.FoldName(c.Name)] = true
	}
	if !taken[key] {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !taken[core.FoldName(candidate)] {
			return candidate
		}
	}
}

func rollbackSavepoint(ctx context.Context, db *sqlitedb.DB, name string) {
	// a cancelled ctx must not keep the rollback itself from running
	ctx = context.WithoutCancel(ctx)
	_, _ = db.Execute(ctx, "ROLLBACK TO "+quoteSavepoint(name))
	_, _ = db.Execute(ctx, "RELEASE "+quoteSavepoint(name))
}

func quoteSavepoint(name string) string { return `"` + name + `"` }

func quoteIdent(name string) string { return `"` + strings.ReplaceAll(name, `"`, `""`) + `"` }
