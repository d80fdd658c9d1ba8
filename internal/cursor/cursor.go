// Package cursor is component C, the Row Iterator: a forward-only,
// chunked reader over a SELECT statement that yields rows as
// name-to-value maps and can be closed early without reading to
// completion. It is the teacher's closest analogue to a streaming
// results reader, generalized from the teacher's apply/analyzer "read
// statements, process, move on" loop to an explicit, resumable cursor
// object the grid can hold open across many UI-driven fetches.
package cursor

import (
	"context"
	"database/sql"

	"sqlshelf/internal/sqlerr"
)

// Row is one fetched row, keyed by column name.
type Row map[string]any

// Cursor reads a SELECT's results in fixed-size chunks, keeping the
// underlying *sql.Rows open between Next calls until either the query is
// exhausted or Close is called.
type Cursor struct {
	rows    *sql.Rows
	columns []string
	closed  bool
	done    bool
}

// Open runs query and returns a Cursor positioned before the first row.
func Open(ctx context.Context, conn *sql.DB, query string, args ...any) (*Cursor, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &sqlerr.CursorError{Cause: &sqlerr.SqlError{Statement: query, Cause: err}}
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, &sqlerr.CursorError{Cause: err}
	}
	return &Cursor{rows: rows, columns: cols}, nil
}

// Columns returns the result set's column names, in order.
func (c *Cursor) Columns() []string { return c.columns }

// Next fetches up to n more rows. It returns fewer than n rows (possibly
// zero) exactly when the underlying query is exhausted; callers should
// treat len(rows) < n as end-of-data rather than polling a separate
// "done" flag. Calling Next on a closed or already-exhausted Cursor
// returns (nil, nil).
func (c *Cursor) Next(n int) ([]Row, error) {
	if c.closed || c.done {
		return nil, nil
	}

	out := make([]Row, 0, n)
	scanTargets := make([]any, len(c.columns))
	scanValues := make([]any, len(c.columns))
	for i := range scanTargets {
		scanTargets[i] = &scanValues[i]
	}

	for len(out) < n {
		if !c.rows.Next() {
			c.done = true
			if err := c.rows.Err(); err != nil {
				return out, &sqlerr.CursorError{Cause: err}
			}
			break
		}
		if err := c.rows.Scan(scanTargets...); err != nil {
			return out, &sqlerr.CursorError{Cause: err}
		}
		row := make(Row, len(c.columns))
		for i, name := range c.columns {
			row[name] = scanValues[i]
		}
		out = append(out, row)
	}

	if c.done {
		_ = c.rows.Close()
	}
	return out, nil
}

// Exhausted reports whether the underlying query has been fully read.
func (c *Cursor) Exhausted() bool { return c.done }

// Close releases the underlying *sql.Rows early. It is safe to call more
// than once and safe to call after the cursor is already exhausted.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.done {
		return nil
	}
	return c.rows.Close()
}
