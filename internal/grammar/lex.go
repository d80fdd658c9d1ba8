package grammar

import (
	"strings"

	"sqlshelf/internal/sqlerr"
)

// Lex tokenizes a complete SQL statement (or script) into a slice of
// Tokens whose concatenated Text reproduces src exactly, byte for byte.
// It never fails on well-formed input; an unterminated string, comment,
// or quoted identifier yields a *sqlerr.ParseError.
func Lex(src string) ([]Token, error) {
	var toks []Token
	i := 0
	n := len(src)
	line, col := 1, 1
	advance := func(k int) {
		for j := 0; j < k; j++ {
			if i+j < n && src[i+j] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
	}

	for i < n {
		start := i
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			j := i
			for j < n && (src[j] == ' ' || src[j] == '\t' || src[j] == '\r' || src[j] == '\n') {
				j++
			}
			toks = append(toks, Token{Kind: TokWhitespace, Text: src[start:j], Pos: start})
			advance(j - i)
			i = j

		case c == '-' && i+1 < n && src[i+1] == '-':
			j := i + 2
			for j < n && src[j] != '\n' {
				j++
			}
			toks = append(toks, Token{Kind: TokLineComment, Text: src[start:j], Pos: start})
			advance(j - i)
			i = j

		case c == '/' && i+1 < n && src[i+1] == '*':
			j := i + 2
			end := strings.Index(src[j:], "*/")
			if end < 0 {
				return nil, &sqlerr.ParseError{Line: line, Column: col, Message: "unterminated block comment"}
			}
			j += end + 2
			toks = append(toks, Token{Kind: TokBlockComment, Text: src[start:j], Pos: start})
			advance(j - i)
			i = j

		case c == '\'':
			j, err := scanQuoted(src, i, '\'', line, col)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TokString, Text: src[start:j], Pos: start})
			advance(j - i)
			i = j

		case c == '"':
			j, err := scanQuoted(src, i, '"', line, col)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TokQuotedIdent, Text: src[start:j], Pos: start})
			advance(j - i)
			i = j

		case c == '`':
			j, err := scanQuoted(src, i, '`', line, col)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TokQuotedIdent, Text: src[start:j], Pos: start})
			advance(j - i)
			i = j

		case c == '[':
			j := strings.IndexByte(src[i:], ']')
			if j < 0 {
				return nil, &sqlerr.ParseError{Line: line, Column: col, Message: "unterminated bracketed identifier"}
			}
			j = i + j + 1
			toks = append(toks, Token{Kind: TokQuotedIdent, Text: src[start:j], Pos: start})
			advance(j - i)
			i = j

		case isIdentStart(c):
			j := i + 1
			for j < n && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, Token{Kind: TokIdent, Text: src[start:j], Pos: start})
			advance(j - i)
			i = j

		case isDigit(c):
			j := i + 1
			for j < n && (isDigit(src[j]) || src[j] == '.' || src[j] == 'e' || src[j] == 'E' || src[j] == 'x' || src[j] == 'X') {
				j++
			}
			toks = append(toks, Token{Kind: TokNumber, Text: src[start:j], Pos: start})
			advance(j - i)
			i = j

		default:
			toks = append(toks, Token{Kind: TokPunct, Text: src[i : i+1], Pos: start})
			advance(1)
			i++
		}
	}

	toks = append(toks, Token{Kind: TokEOF, Pos: n})
	return toks, nil
}

func scanQuoted(src string, i int, quote byte, line, col int) (int, error) {
	j := i + 1
	n := len(src)
	for j < n {
		if src[j] == quote {
			if j+1 < n && src[j+1] == quote {
				j += 2
				continue
			}
			return j + 1, nil
		}
		j++
	}
	return 0, &sqlerr.ParseError{Line: line, Column: col, Message: "unterminated quoted token"}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// significant filters out whitespace and comment tokens, returning only
// the tokens a parser's grammar actually looks at. Each token keeps its
// Token.Pos, a byte offset into the source text; indexes into toks are
// not kept, so callers needing neighbouring trivia should work with the
// full token slice.
func significant(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		if !t.Trivial() {
			out = append(out, t)
		}
	}
	return out
}
