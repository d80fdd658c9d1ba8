package grammar

import "sqlshelf/internal/core"

// parseIndex parses the body of a CREATE [UNIQUE] INDEX statement, starting
// right after "ON" has been consumed by the caller and name/unique flag are
// already known.
func parseIndex(c *cursor, name string, unique bool) (*core.IndexMeta, error) {
	table, err := c.qualifiedIdentifier()
	if err != nil {
		return nil, err
	}

	cols, err := c.parseIndexedColumnList()
	if err != nil {
		return nil, err
	}

	meta := &core.IndexMeta{
		Name:   name,
		Table:  table,
		Unique: unique,
	}
	for _, rc := range cols {
		meta.Columns = append(meta.Columns, core.IndexColumn{
			Name:       rc.Name,
			Expression: rc.Expression,
			Collate:    rc.Collate,
			Descending: rc.Descending,
		})
	}

	if c.acceptKeyword("WHERE") {
		meta.Partial = c.captureRestOfStatement()
	}

	return meta, nil
}
