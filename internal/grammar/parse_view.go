package grammar

import "sqlshelf/internal/core"

// parseView parses the body of a CREATE VIEW statement, starting right
// after the view name has already been consumed by the caller.
func parseView(c *cursor, name string) (*core.ViewMeta, error) {
	var columns []string
	if c.isPunct("(") {
		cols, err := c.parseIndexedColumnList()
		if err != nil {
			return nil, err
		}
		columns = namesOf(cols)
	}

	if err := c.requireKeyword("AS"); err != nil {
		return nil, err
	}

	return &core.ViewMeta{
		Name:    name,
		Columns: columns,
		Select:  c.captureRestOfStatement(),
	}, nil
}
