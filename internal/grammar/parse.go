package grammar

import "sqlshelf/internal/core"

// Statement is the result of Parse: exactly one of Table, Index, View, or
// Trigger is set, matching Category.
type Statement struct {
	Category core.Category
	Table    *core.TableMeta
	Index    *core.IndexMeta
	View     *core.ViewMeta
	Trigger  *core.TriggerMeta

	Temporary   bool
	IfNotExists bool
}

// Parse reads one CREATE TABLE/INDEX/VIEW/TRIGGER statement and returns its
// structured meta form. sqlText may include a trailing semicolon and
// surrounding whitespace/comments; both are ignored.
func Parse(sqlText string) (*Statement, error) {
	c, err := newCursor(sqlText)
	if err != nil {
		return nil, err
	}

	if err := c.requireKeyword("CREATE"); err != nil {
		return nil, err
	}

	stmt := &Statement{}
	if c.acceptKeyword("TEMP") || c.acceptKeyword("TEMPORARY") {
		stmt.Temporary = true
	}

	unique := c.acceptKeyword("UNIQUE")

	switch {
	case c.acceptKeyword("TABLE"):
		stmt.Category = core.CategoryTable
		name, ifNotExists, err := parseNameWithIfNotExists(c)
		if err != nil {
			return nil, err
		}
		stmt.IfNotExists = ifNotExists
		meta, err := parseTable(c, name)
		if err != nil {
			return nil, err
		}
		stmt.Table = meta

	case c.acceptKeyword("INDEX"):
		stmt.Category = core.CategoryIndex
		name, ifNotExists, err := parseNameWithIfNotExists(c)
		if err != nil {
			return nil, err
		}
		stmt.IfNotExists = ifNotExists
		if err := c.requireKeyword("ON"); err != nil {
			return nil, err
		}
		meta, err := parseIndex(c, name, unique)
		if err != nil {
			return nil, err
		}
		stmt.Index = meta

	case c.acceptKeyword("VIEW"):
		stmt.Category = core.CategoryView
		name, ifNotExists, err := parseNameWithIfNotExists(c)
		if err != nil {
			return nil, err
		}
		stmt.IfNotExists = ifNotExists
		meta, err := parseView(c, name)
		if err != nil {
			return nil, err
		}
		stmt.View = meta

	case c.acceptKeyword("TRIGGER"):
		stmt.Category = core.CategoryTrigger
		name, ifNotExists, err := parseNameWithIfNotExists(c)
		if err != nil {
			return nil, err
		}
		stmt.IfNotExists = ifNotExists
		meta, err := parseTrigger(c, name)
		if err != nil {
			return nil, err
		}
		stmt.Trigger = meta

	default:
		return nil, c.errorf("expected TABLE, INDEX, VIEW, or TRIGGER")
	}

	return stmt, nil
}

func parseNameWithIfNotExists(c *cursor) (name string, ifNotExists bool, err error) {
	if c.acceptKeyword("IF") {
		if err := c.requireKeyword("NOT"); err != nil {
			return "", false, err
		}
		if err := c.requireKeyword("EXISTS"); err != nil {
			return "", false, err
		}
		ifNotExists = true
	}
	name, err = c.qualifiedIdentifier()
	return name, ifNotExists, err
}
