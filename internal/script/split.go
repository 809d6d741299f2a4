package script

import (
	"strings"
)

// splitStatements splits statement source on `;` and newlines that appear
// outside strings and brackets. Each piece is returned trimmed together with
// its line offset from the start of src; empty pieces are dropped.
func splitStatements(src string) []piece {
	var (
		out   []piece
		start int
		depth int
		line  int
		first = 0
	)
	emit := func(end int) {
		if s := strings.TrimSpace(src[start:end]); s != "" {
			out = append(out, piece{text: s, line: first})
		}
	}

	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '"':
			i = skipString(src, i)
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case '\n', ';':
			if depth == 0 {
				emit(i)
				start = i + 1
				if c == '\n' {
					line++
				}
				first = line
				continue
			}
			if c == '\n' {
				line++
			}
		}
	}
	emit(len(src))
	return out
}

type piece struct {
	text string
	line int
}

// skipString returns the index of the closing quote of the string literal
// that opens at i, or the last index when the literal is unterminated.
func skipString(src string, i int) int {
	var discard strings.Builder
	return rewriteString(&discard, src, i) - 1
}

// rewriteIvars turns every `@name` in code into `self.name`. Literal string
// text is left alone; `${...}` and `%{...}` interpolations are code.
func rewriteIvars(code string) string {
	if !strings.Contains(code, "@") {
		return code
	}
	var b strings.Builder
	rewriteCode(&b, code, 0, false)
	return b.String()
}

// rewriteCode copies code from i into b. Inside an interpolation it stops
// after the closing brace and returns the index past it.
func rewriteCode(b *strings.Builder, code string, i int, interp bool) int {
	depth := 0
	for i < len(code) {
		c := code[i]
		switch {
		case c == '"':
			i = rewriteString(b, code, i)
			continue
		case c == '@' && i+1 < len(code) && isIdentStart(code[i+1]):
			b.WriteString("self.")
			i++
			continue
		case interp && c == '{':
			depth++
		case interp && c == '}':
			if depth == 0 {
				b.WriteByte(c)
				return i + 1
			}
			depth--
		}
		b.WriteByte(c)
		i++
	}
	return i
}

// rewriteString copies the string literal that opens at i into b and returns
// the index past its closing quote.
func rewriteString(b *strings.Builder, code string, i int) int {
	b.WriteByte('"')
	i++
	for i < len(code) {
		c := code[i]
		switch {
		case c == '\\' && i+1 < len(code):
			b.WriteString(code[i : i+2])
			i += 2
		case c == '"':
			b.WriteByte(c)
			return i + 1
		case strings.HasPrefix(code[i:], "$${"), strings.HasPrefix(code[i:], "%%{"):
			b.WriteString(code[i : i+3])
			i += 3
		case strings.HasPrefix(code[i:], "${"), strings.HasPrefix(code[i:], "%{"):
			b.WriteString(code[i : i+2])
			i = rewriteCode(b, code, i+2, true)
		default:
			b.WriteByte(c)
			i++
		}
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}

// parseAssign recognises `name = expr` and `@name = expr`.
func parseAssign(stmt string) (name string, ivar bool, rhs string, ok bool) {
	s := stmt
	if strings.HasPrefix(s, "@") {
		ivar = true
		s = s[1:]
	}
	if s == "" || !isIdentStart(s[0]) {
		return "", false, "", false
	}
	i := 1
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	name = s[:i]
	rest := strings.TrimLeft(s[i:], " \t")
	if !strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, "==") {
		return "", false, "", false
	}
	return name, ivar, strings.TrimSpace(rest[1:]), true
}
