// Package catalogue is component A, the Schema Catalogue: it refreshes
// core.Catalogue from sqlite_master, assigning a stable core.EntityID to
// every object and preserving that ID across a reload for any row whose
// (category, name) didn't change, so that internal/grid and
// internal/planner can hold onto an EntityID across a schema edit without
// it going stale. An identity missing from a refresh loses its ID, so an
// object re-created after that refresh gets a fresh one; a drop and
// re-create that both happen between two refreshes is not detected and
// keeps the old ID.
package catalogue

import (
	"context"

	"sqlshelf/internal/core"
	"sqlshelf/internal/grammar"
	"sqlshelf/internal/sqlitedb"
)

// Catalogue owns the live core.Catalogue plus the entity-ID-by-identity
// map that makes reload stable.
type Catalogue struct {
	db  *sqlitedb.DB
	cur *core.Catalogue

	// ids maps "category:name" to the EntityID last assigned to that
	// identity, so a reload that sees the same row again reuses it
	// instead of minting a new one.
	ids map[string]core.EntityID
}

// New creates an empty Catalogue bound to db. Call Refresh to populate it.
func New(db *sqlitedb.DB) *Catalogue {
	return &Catalogue{
		db:  db,
		cur: core.NewCatalogue(),
		ids: make(map[string]core.EntityID),
	}
}

// Current returns the most recently refreshed core.Catalogue. It is never
// nil, but is empty until Refresh has run at least once.
func (c *Catalogue) Current() *core.Catalogue { return c.cur }

// Refresh re-reads sqlite_master and rebuilds the in-memory catalogue,
// parsing every CREATE statement with internal/grammar.Parse. A row whose
// SQL fails to parse still gets an Entity (so it's visible and countable)
// but its Meta and derived fields are left nil/zero; the parse error is
// collected and returned alongside a successfully rebuilt catalogue,
// never silently dropped (spec.md's error taxonomy: parse errors always
// propagate).
func (c *Catalogue) Refresh(ctx context.Context) ([]error, error) {
	rows, err := c.db.MasterRows(ctx)
	if err != nil {
		return nil, err
	}

	next := core.NewCatalogue()
	var parseErrors []error
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		category := core.Category(row.Type)
		key := row.Type + ":" + core.FoldName(row.Name)
		seen[key] = true
		id, known := c.ids[key]
		if !known {
			id = core.NewEntityID()
		}

		stmt, perr := grammar.Parse(row.SQL)
		if perr != nil {
			parseErrors = append(parseErrors, perr)
			next.Put(bareEntity(id, category, row.Name, row.SQL))
			c.ids[key] = id
			continue
		}

		sql0, err := grammar.Generate(stmt)
		if err != nil {
			parseErrors = append(parseErrors, err)
		}

		switch category {
		case core.CategoryTable:
			next.Put(stmt.Table.ToTable(id, row.SQL, sql0))
		case core.CategoryIndex:
			next.Put(stmt.Index.ToIndex(id, row.SQL, sql0))
		case core.CategoryView:
			next.Put(stmt.View.ToView(id, row.SQL, sql0))
		case core.CategoryTrigger:
			next.Put(stmt.Trigger.ToTrigger(id, row.SQL, sql0))
		}
		c.ids[key] = id
	}

	// An identity this refresh no longer sees was dropped; forget its ID so
	// an object re-created under the same name gets a fresh one.
	for key := range c.ids {
		if !seen[key] {
			delete(c.ids, key)
		}
	}

	c.cur = next
	return parseErrors, nil
}

// bareEntity builds a placeholder Named for a row whose SQL failed to
// parse, so it still appears in the catalogue under its category.
func bareEntity(id core.EntityID, category core.Category, name, sql string) core.Named {
	entity := core.Entity{EntityID: id, Category: category, Name: name, SQL: sql}
	switch category {
	case core.CategoryTable:
		return &core.Table{Entity: entity}
	case core.CategoryIndex:
		return &core.Index{Entity: entity}
	case core.CategoryView:
		return &core.View{Entity: entity}
	default:
		return &core.Trigger{Entity: entity}
	}
}
