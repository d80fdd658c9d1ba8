package grammar

import (
	"fmt"
	"strings"

	"sqlshelf/internal/sqlerr"
)

// cursor walks the significant (non-trivia) tokens of a statement while
// keeping a back-reference into the full token slice, so that raw
// expression text (DEFAULT, CHECK, trigger bodies, view SELECTs) can be
// reconstructed byte-for-byte including the whitespace and comments a
// pure AST walk would discard.
type cursor struct {
	full []Token
	sig  []int // index into full, one per significant token
	pos  int   // index into sig
	line int
	col  int
}

func newCursor(src string) (*cursor, error) {
	full, err := Lex(src)
	if err != nil {
		return nil, err
	}
	sig := make([]int, 0, len(full))
	for i, t := range full {
		if !t.Trivial() {
			sig = append(sig, i)
		}
	}
	return &cursor{full: full, sig: sig}, nil
}

// at returns the current significant token, or the EOF sentinel once the
// cursor has been exhausted.
func (c *cursor) at() Token {
	if c.pos >= len(c.sig) {
		return Token{Kind: TokEOF}
	}
	return c.full[c.sig[c.pos]]
}

// fullIdx returns the index into c.full of the current significant token
// (or len(c.full) at EOF), used to bound raw-text captures.
func (c *cursor) fullIdx() int {
	if c.pos >= len(c.sig) {
		return len(c.full)
	}
	return c.sig[c.pos]
}

func (c *cursor) advance() { c.pos++ }

// isKeyword reports whether the current token is a bare identifier
// matching kw, case-insensitively.
func (c *cursor) isKeyword(kw string) bool {
	t := c.at()
	return t.Kind == TokIdent && strings.EqualFold(t.Text, kw)
}

// isPunct reports whether the current token is a single punctuation
// character matching p.
func (c *cursor) isPunct(p string) bool {
	t := c.at()
	return t.Kind == TokPunct && t.Text == p
}

func (c *cursor) eof() bool { return c.at().Kind == TokEOF }

// acceptKeyword consumes the current token if it matches kw (case
// insensitive) and reports whether it did.
func (c *cursor) acceptKeyword(kw string) bool {
	if c.isKeyword(kw) {
		c.advance()
		return true
	}
	return false
}

func (c *cursor) acceptPunct(p string) bool {
	if c.isPunct(p) {
		c.advance()
		return true
	}
	return false
}

func (c *cursor) requireKeyword(kw string) error {
	if !c.acceptKeyword(kw) {
		return c.errorf("expected %q", kw)
	}
	return nil
}

func (c *cursor) requirePunct(p string) error {
	if !c.acceptPunct(p) {
		return c.errorf("expected %q", p)
	}
	return nil
}

// identifier consumes an identifier token (bare or quoted) and returns
// its logical (unquoted) text.
func (c *cursor) identifier() (string, error) {
	t := c.at()
	if t.Kind != TokIdent && t.Kind != TokQuotedIdent {
		return "", c.errorf("expected identifier")
	}
	c.advance()
	return t.IdentText(), nil
}

// qualifiedIdentifier consumes `name` or `schema.name` and returns name.
func (c *cursor) qualifiedIdentifier() (string, error) {
	name, err := c.identifier()
	if err != nil {
		return "", err
	}
	if c.isPunct(".") {
		c.advance()
		name, err = c.identifier()
		if err != nil {
			return "", err
		}
	}
	return name, nil
}

// captureUntil consumes tokens (tracking parenthesis depth) up to but not
// including the first token, at depth 0, that is one of the given
// terminator keywords or punctuation, and returns the exact source text
// spanned (including internal whitespace/comments).
func (c *cursor) captureUntil(terminatorKeywords, terminatorPunct []string) string {
	startFull := c.fullIdx()
	depth := 0
	for !c.eof() {
		t := c.at()
		if depth == 0 {
			if t.Kind == TokIdent {
				for _, kw := range terminatorKeywords {
					if strings.EqualFold(t.Text, kw) {
						return c.textFrom(startFull)
					}
				}
			}
			if t.Kind == TokPunct {
				for _, p := range terminatorPunct {
					if t.Text == p {
						return c.textFrom(startFull)
					}
				}
			}
		}
		if t.Kind == TokPunct && t.Text == "(" {
			depth++
		}
		if t.Kind == TokPunct && t.Text == ")" {
			if depth == 0 {
				return c.textFrom(startFull)
			}
			depth--
		}
		c.advance()
	}
	return c.textFrom(startFull)
}

// captureBalancedParen consumes a leading "(" through its matching ")"
// (inclusive) and returns the exact inner text (exclusive of the
// parens).
func (c *cursor) captureBalancedParen() (string, error) {
	if err := c.requirePunct("("); err != nil {
		return "", err
	}
	startFull := c.fullIdx()
	depth := 1
	for !c.eof() {
		t := c.at()
		if t.Kind == TokPunct && t.Text == "(" {
			depth++
		}
		if t.Kind == TokPunct && t.Text == ")" {
			depth--
			if depth == 0 {
				inner := c.textFrom(startFull)
				c.advance()
				return strings.TrimSpace(inner), nil
			}
		}
		c.advance()
	}
	return "", c.errorf("unterminated parenthesis")
}

// captureRestOfStatement returns all remaining token text, trimmed, up to
// (not including) a trailing top-level ";" if present.
func (c *cursor) captureRestOfStatement() string {
	startFull := c.fullIdx()
	for !c.eof() {
		if c.isPunct(";") {
			break
		}
		c.advance()
	}
	return strings.TrimSpace(c.textFrom(startFull))
}

// textFrom reconstructs the exact source text from full-token index
// startFull up to (not including) the current position.
func (c *cursor) textFrom(startFull int) string {
	endFull := c.fullIdx()
	var b strings.Builder
	for i := startFull; i < endFull && i < len(c.full); i++ {
		b.WriteString(c.full[i].Text)
	}
	return strings.TrimSpace(b.String())
}

func (c *cursor) errorf(format string, args ...any) error {
	return &sqlerr.ParseError{Line: 0, Column: 0, Message: fmt.Sprintf(format, args...)}
}
