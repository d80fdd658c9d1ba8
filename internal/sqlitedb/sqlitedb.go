// Package sqlitedb is the thin connection layer every other component sits
// on top of: opening a database/sql handle against modernc.org/sqlite (a
// pure-Go driver, so this module never needs cgo), executing statements
// and scripts inside named savepoints, and reflecting sqlite_master. It
// follows the teacher's internal/apply.Applier shape — a struct holding
// the *sql.DB plus an injected io.Writer for progress/diagnostic text,
// Connect/Close methods, no global state — generalized from one
// MySQL DSN to a SQLite file path and from one DDL-apply use case to the
// read/write/introspect mix every component here needs.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"

	_ "modernc.org/sqlite"

	"sqlshelf/internal/sqlerr"
)

// Options configures Open. Out is kept as the DB's writer for
// human-readable progress text, the way Options.Out is in the teacher's
// Applier; it defaults to io.Discard. No DB method writes to it.
type Options struct {
	Path string
	Out  io.Writer
}

// DB wraps a single SQLite connection plus the per-name advisory lock
// registry spec.md's External Interfaces contract (§6) calls lock/unlock/
// get_lock, so two components never step on the same table at once.
type DB struct {
	conn *sql.DB
	out  io.Writer

	locksMu sync.Mutex
	locks   map[string]string // "category:name" -> owner token
}

// Open connects to the SQLite file at opts.Path and pings it to confirm
// the connection is live, mirroring Applier.Connect's open-then-ping
// pattern.
func Open(ctx context.Context, opts Options) (*DB, error) {
	conn, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable foreign_keys pragma: %w", err)
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &DB{conn: conn, out: out, locks: make(map[string]string)}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error { return d.conn.Close() }

// Conn exposes the raw *sql.DB for components (internal/cursor,
// internal/grid) that need direct query/row access.
func (d *DB) Conn() *sql.DB { return d.conn }

func (d *DB) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(d.out, format, args...)
}

// Execute runs one statement and returns its sql.Result, wrapping any
// driver error as a *sqlerr.SqlError carrying the offending statement.
func (d *DB) Execute(ctx context.Context, statement string, args ...any) (sql.Result, error) {
	res, err := d.conn.ExecContext(ctx, statement, args...)
	if err != nil {
		return nil, &sqlerr.SqlError{Statement: statement, Cause: err}
	}
	return res, nil
}

// ExecuteScript runs every statement in script, in order, inside a named
// savepoint: on any failure the savepoint is rolled back and the error is
// returned; on success it is released. internal/planner's scripts carry
// no savepoint of their own and can be run through it; internal/importer
// does not use it and issues its own SAVEPOINT/RELEASE around a run.
func (d *DB) ExecuteScript(ctx context.Context, savepointName string, statements []string) error {
	if _, err := d.Execute(ctx, "SAVEPOINT "+quoteSavepoint(savepointName)); err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
			_, _ = d.conn.ExecContext(ctx, "ROLLBACK TO "+quoteSavepoint(savepointName))
			_, _ = d.conn.ExecContext(ctx, "RELEASE "+quoteSavepoint(savepointName))
			return &sqlerr.SqlError{Statement: stmt, Cause: err}
		}
	}
	if _, err := d.Execute(ctx, "RELEASE "+quoteSavepoint(savepointName)); err != nil {
		return err
	}
	return nil
}

func quoteSavepoint(name string) string { return `"` + name + `"` }

// LastInsertRowID returns res.LastInsertId(), wrapped as a *sqlerr.SqlError
// on failure — used by the grid's Commit (spec.md §4.1.1) to write the
// database-assigned rowid back into a newly inserted row.
func LastInsertRowID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &sqlerr.SqlError{Statement: "last_insert_rowid()", Cause: err}
	}
	return id, nil
}

// MasterRow is one row of sqlite_master: the database's own record of
// every table, index, view, and trigger, and the exact CREATE statement
// that produced it.
type MasterRow struct {
	Type      string // table | index | view | trigger
	Name      string
	TableName string // the table this object belongs to (itself, for a table)
	SQL       string
}

// MasterRows reflects sqlite_master in full, in (type, name) order. This
// is the single read internal/catalogue's refresh is built on (spec.md
// §4's "populate_schema").
func (d *DB) MasterRows(ctx context.Context) ([]MasterRow, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT type, name, tbl_name, sql
		FROM sqlite_master
		WHERE sql IS NOT NULL
		ORDER BY type, name`)
	if err != nil {
		return nil, &sqlerr.SqlError{Statement: "SELECT ... FROM sqlite_master", Cause: err}
	}
	defer rows.Close()

	var out []MasterRow
	for rows.Next() {
		var r MasterRow
		if err := rows.Scan(&r.Type, &r.Name, &r.TableName, &r.SQL); err != nil {
			return nil, &sqlerr.SqlError{Statement: "scan sqlite_master row", Cause: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &sqlerr.SqlError{Statement: "iterate sqlite_master", Cause: err}
	}
	return out, nil
}

// Lock acquires the advisory lock for (category, name) on behalf of
// owner, returning a *sqlerr.ConflictError if another owner already holds
// it. It guards nothing at the SQLite level — it is purely in-process
// bookkeeping so that, say, the planner and the grid don't try to alter
// and edit the same table at once (spec.md §6 lock/unlock/get_lock).
func (d *DB) Lock(category, name, owner string) error {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()
	key := category + ":" + name
	if existing, held := d.locks[key]; held && existing != owner {
		return &sqlerr.ConflictError{Category: category, Name: name, Owner: existing}
	}
	d.locks[key] = owner
	return nil
}

// Unlock releases the advisory lock for (category, name) if owner
// currently holds it; it is a no-op otherwise.
func (d *DB) Unlock(category, name, owner string) {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()
	key := category + ":" + name
	if d.locks[key] == owner {
		delete(d.locks, key)
	}
}

// GetLock reports the current owner of (category, name), if any.
func (d *DB) GetLock(category, name string) (owner string, held bool) {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()
	owner, held = d.locks[category+":"+name]
	return owner, held
}
