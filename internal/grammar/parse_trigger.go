package grammar

import "sqlshelf/internal/core"

// parseTrigger parses the body of a CREATE TRIGGER statement, starting
// right after the trigger name has already been consumed by the caller.
func parseTrigger(c *cursor, name string) (*core.TriggerMeta, error) {
	upon := ""
	switch {
	case c.acceptKeyword("BEFORE"):
		upon = "BEFORE"
	case c.acceptKeyword("AFTER"):
		upon = "AFTER"
	case c.acceptKeyword("INSTEAD"):
		if err := c.requireKeyword("OF"); err != nil {
			return nil, err
		}
		upon = "INSTEAD OF"
	}

	action := ""
	switch {
	case c.acceptKeyword("DELETE"):
		action = "DELETE"
	case c.acceptKeyword("INSERT"):
		action = "INSERT"
	case c.acceptKeyword("UPDATE"):
		action = "UPDATE"
		if c.acceptKeyword("OF") {
			cols, err := parseCommaIdentifiers(c)
			if err != nil {
				return nil, err
			}
			action = "UPDATE OF " + joinComma(cols)
		}
	default:
		return nil, c.errorf("expected DELETE, INSERT, or UPDATE in trigger definition")
	}

	if err := c.requireKeyword("ON"); err != nil {
		return nil, err
	}
	table, err := c.qualifiedIdentifier()
	if err != nil {
		return nil, err
	}

	c.acceptKeyword("FOR")
	c.acceptKeyword("EACH")
	c.acceptKeyword("ROW")

	when := ""
	if c.acceptKeyword("WHEN") {
		when = c.captureUntil([]string{"BEGIN"}, nil)
	}

	if err := c.requireKeyword("BEGIN"); err != nil {
		return nil, err
	}
	body := c.captureUntil([]string{"END"}, nil)
	if err := c.requireKeyword("END"); err != nil {
		return nil, err
	}

	return &core.TriggerMeta{
		Name:   name,
		Table:  table,
		Upon:   upon,
		Action: action,
		When:   when,
		Body:   body,
	}, nil
}

func parseCommaIdentifiers(c *cursor) ([]string, error) {
	var names []string
	for {
		name, err := c.qualifiedIdentifier()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if c.acceptPunct(",") {
			continue
		}
		break
	}
	return names, nil
}

func joinComma(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
