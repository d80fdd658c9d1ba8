package grammar

import (
	"strings"

	"sqlshelf/internal/core"
)

// rawIndexedColumn is a single entry of a parenthesized column list that
// may carry a COLLATE clause and ASC/DESC direction (used by both table
// constraints and CREATE INDEX column lists).
type rawIndexedColumn struct {
	Name       string
	Expression string
	Collate    string
	Descending bool
}

// rawTableConstraint is a table-level constraint before its column name
// list has been resolved to stable core.ColumnIDs (which requires the
// full column list to already be known).
type rawTableConstraint struct {
	Name       string
	Kind       core.ConstraintKind
	ColumnNames []string
	Check      string
	ForeignKey *core.TableForeignKey
}

var columnConstraintStop = []string{
	"PRIMARY", "NOT", "NULL", "UNIQUE", "DEFAULT", "COLLATE", "CHECK",
	"REFERENCES", "GENERATED", "CONSTRAINT", "AS",
}

func isColumnConstraintKeyword(word string) bool {
	for _, k := range columnConstraintStop {
		if strings.EqualFold(word, k) {
			return true
		}
	}
	return false
}

// parseTable parses the body of a CREATE TABLE statement, starting right
// after the table name has already been consumed by the caller.
func parseTable(c *cursor, name string) (*core.TableMeta, error) {
	if err := c.requirePunct("("); err != nil {
		return nil, err
	}

	var cols []*core.Column
	var rawConstraints []rawTableConstraint
	order := 0

	for {
		if isTableConstraintStart(c) {
			rc, err := parseTableConstraint(c)
			if err != nil {
				return nil, err
			}
			rawConstraints = append(rawConstraints, rc)
		} else {
			col, err := parseColumnDef(c, order)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col)
			order++
		}

		if c.acceptPunct(",") {
			continue
		}
		break
	}

	if err := c.requirePunct(")"); err != nil {
		return nil, err
	}

	withoutRowID := false
	if c.acceptKeyword("WITHOUT") {
		if err := c.requireKeyword("ROWID"); err != nil {
			return nil, err
		}
		withoutRowID = true
	}

	byName := make(map[string]core.ColumnID, len(cols))
	for _, col := range cols {
		byName[core.FoldName(col.Name)] = col.ColumnID
	}
	resolve := func(names []string) []core.ColumnID {
		ids := make([]core.ColumnID, 0, len(names))
		for _, n := range names {
			if id, ok := byName[core.FoldName(n)]; ok {
				ids = append(ids, id)
			}
		}
		return ids
	}

	constraints := make([]*core.Constraint, 0, len(rawConstraints))
	for _, rc := range rawConstraints {
		constraints = append(constraints, &core.Constraint{
			Name:       rc.Name,
			Kind:       rc.Kind,
			Columns:    resolve(rc.ColumnNames),
			Check:      rc.Check,
			ForeignKey: rc.ForeignKey,
		})
	}

	return &core.TableMeta{
		Name:         name,
		Columns:      cols,
		Constraints:  constraints,
		WithoutRowID: withoutRowID,
	}, nil
}

func isTableConstraintStart(c *cursor) bool {
	return c.isKeyword("CONSTRAINT") || c.isKeyword("PRIMARY") ||
		c.isKeyword("UNIQUE") || c.isKeyword("CHECK") || c.isKeyword("FOREIGN")
}

func parseColumnDef(c *cursor, order int) (*core.Column, error) {
	name, err := c.identifier()
	if err != nil {
		return nil, err
	}
	col := &core.Column{ColumnID: core.NewColumnID(), Name: name, Order: order}

	var typeParts []string
	for c.at().Kind == TokIdent && !isColumnConstraintKeyword(c.at().Text) {
		typeParts = append(typeParts, c.at().Text)
		c.advance()
	}
	typeStr := strings.Join(typeParts, " ")
	if c.isPunct("(") {
		inner, err := c.captureBalancedParen()
		if err != nil {
			return nil, err
		}
		typeStr += "(" + inner + ")"
	}
	col.Type = typeStr

	for {
		switch {
		case c.acceptKeyword("CONSTRAINT"):
			if _, err := c.identifier(); err != nil {
				return nil, err
			}
		case c.acceptKeyword("PRIMARY"):
			if err := c.requireKeyword("KEY"); err != nil {
				return nil, err
			}
			col.Flags.PrimaryKey = true
			c.acceptKeyword("ASC")
			c.acceptKeyword("DESC")
			if c.acceptKeyword("AUTOINCREMENT") {
				col.Flags.AutoIncrement = true
			}
		case c.acceptKeyword("NOT"):
			if err := c.requireKeyword("NULL"); err != nil {
				return nil, err
			}
			col.Flags.NotNull = true
		case c.acceptKeyword("NULL"):
			// explicit nullable, nothing to record
		case c.acceptKeyword("UNIQUE"):
			col.Flags.Unique = true
		case c.acceptKeyword("DEFAULT"):
			def, err := parseDefaultExpr(c)
			if err != nil {
				return nil, err
			}
			col.Default = def
			col.HasDefault = true
		case c.acceptKeyword("COLLATE"):
			cn, err := c.identifier()
			if err != nil {
				return nil, err
			}
			col.Flags.Collate = cn
		case c.acceptKeyword("CHECK"):
			inner, err := c.captureBalancedParen()
			if err != nil {
				return nil, err
			}
			col.Flags.Check = inner
		case c.acceptKeyword("REFERENCES"):
			ref, err := parseColumnReferences(c)
			if err != nil {
				return nil, err
			}
			col.Flags.ForeignKey = ref
		case c.acceptKeyword("GENERATED"):
			c.acceptKeyword("ALWAYS")
			c.acceptKeyword("AS")
			if c.isPunct("(") {
				if _, err := c.captureBalancedParen(); err != nil {
					return nil, err
				}
			}
			c.acceptKeyword("VIRTUAL")
			c.acceptKeyword("STORED")
		default:
			return col, nil
		}
	}
}

func parseDefaultExpr(c *cursor) (string, error) {
	if c.isPunct("(") {
		inner, err := c.captureBalancedParen()
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	}
	if c.isPunct("+") || c.isPunct("-") {
		sign := c.at().Text
		c.advance()
		tok := c.at()
		c.advance()
		return sign + tok.Text, nil
	}
	t := c.at()
	switch t.Kind {
	case TokString, TokNumber, TokIdent:
		c.advance()
		return t.Text, nil
	default:
		return "", c.errorf("expected default value expression")
	}
}

func parseColumnReferences(c *cursor) (*core.ForeignKeyRef, error) {
	table, err := c.qualifiedIdentifier()
	if err != nil {
		return nil, err
	}
	ref := &core.ForeignKeyRef{Table: table}
	if c.isPunct("(") {
		cols, err := c.parseIndexedColumnList()
		if err != nil {
			return nil, err
		}
		if len(cols) > 0 {
			ref.Column = cols[0].Name
		}
	}
	for {
		if c.acceptKeyword("ON") {
			action := ""
			switch {
			case c.acceptKeyword("DELETE"):
				action = "DELETE"
			case c.acceptKeyword("UPDATE"):
				action = "UPDATE"
			}
			verb := captureReferentialAction(c)
			if action == "DELETE" {
				ref.OnDelete = verb
			} else {
				ref.OnUpdate = verb
			}
			continue
		}
		break
	}
	return ref, nil
}

func captureReferentialAction(c *cursor) string {
	switch {
	case c.acceptKeyword("CASCADE"):
		return "CASCADE"
	case c.acceptKeyword("RESTRICT"):
		return "RESTRICT"
	case c.acceptKeyword("NO"):
		c.acceptKeyword("ACTION")
		return "NO ACTION"
	case c.acceptKeyword("SET"):
		if c.acceptKeyword("NULL") {
			return "SET NULL"
		}
		c.acceptKeyword("DEFAULT")
		return "SET DEFAULT"
	}
	return ""
}

func parseTableConstraint(c *cursor) (rawTableConstraint, error) {
	var rc rawTableConstraint
	if c.acceptKeyword("CONSTRAINT") {
		name, err := c.identifier()
		if err != nil {
			return rc, err
		}
		rc.Name = name
	}

	switch {
	case c.acceptKeyword("PRIMARY"):
		if err := c.requireKeyword("KEY"); err != nil {
			return rc, err
		}
		cols, err := c.parseIndexedColumnList()
		if err != nil {
			return rc, err
		}
		rc.Kind = core.ConstraintPrimaryKey
		rc.ColumnNames = namesOf(cols)
		c.acceptKeyword("AUTOINCREMENT")

	case c.acceptKeyword("UNIQUE"):
		cols, err := c.parseIndexedColumnList()
		if err != nil {
			return rc, err
		}
		rc.Kind = core.ConstraintUnique
		rc.ColumnNames = namesOf(cols)

	case c.acceptKeyword("CHECK"):
		inner, err := c.captureBalancedParen()
		if err != nil {
			return rc, err
		}
		rc.Kind = core.ConstraintCheck
		rc.Check = inner

	case c.acceptKeyword("FOREIGN"):
		if err := c.requireKeyword("KEY"); err != nil {
			return rc, err
		}
		cols, err := c.parseIndexedColumnList()
		if err != nil {
			return rc, err
		}
		if err := c.requireKeyword("REFERENCES"); err != nil {
			return rc, err
		}
		ref, err := parseColumnReferences(c)
		if err != nil {
			return rc, err
		}
		rc.Kind = core.ConstraintForeignKey
		rc.ColumnNames = namesOf(cols)
		refCols := []string{}
		if ref.Column != "" {
			refCols = append(refCols, ref.Column)
		}
		rc.ForeignKey = &core.TableForeignKey{
			RefTable:   ref.Table,
			RefColumns: refCols,
			OnDelete:   ref.OnDelete,
			OnUpdate:   ref.OnUpdate,
		}

	default:
		return rc, c.errorf("expected table constraint")
	}
	return rc, nil
}

func namesOf(cols []rawIndexedColumn) []string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}

// parseIndexedColumnList reads "(" colOrExpr [COLLATE x] [ASC|DESC], ... ")".
func (c *cursor) parseIndexedColumnList() ([]rawIndexedColumn, error) {
	if err := c.requirePunct("("); err != nil {
		return nil, err
	}
	var out []rawIndexedColumn
	for {
		var rc rawIndexedColumn
		if c.isPunct("(") {
			expr, err := c.captureBalancedParen()
			if err != nil {
				return nil, err
			}
			rc.Expression = expr
		} else {
			name, err := c.qualifiedIdentifier()
			if err != nil {
				return nil, err
			}
			rc.Name = name
		}
		if c.acceptKeyword("COLLATE") {
			cn, err := c.identifier()
			if err != nil {
				return nil, err
			}
			rc.Collate = cn
		}
		switch {
		case c.acceptKeyword("ASC"):
		case c.acceptKeyword("DESC"):
			rc.Descending = true
		}
		out = append(out, rc)
		if c.acceptPunct(",") {
			continue
		}
		break
	}
	if err := c.requirePunct(")"); err != nil {
		return nil, err
	}
	return out, nil
}
