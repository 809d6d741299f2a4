package erb

import (
	"fmt"
	"regexp"
	"strings"
)

// blockExpr matches print code that opens a block: a trailing `{`, or a
// trailing `do` preceded by whitespace or `)`, optionally followed by a
// `|params|` clause.
var blockExpr = regexp.MustCompile(`\s*((\s+|\))do|\{)(\s*\|[^|]*\|)?\s*\z`)

// IsBlockExpr reports whether print code opens a block.
func IsBlockExpr(code string) bool {
	return blockExpr.MatchString(code)
}

// Options controls transpilation.
type Options struct {
	// Autoescape routes plain prints through the escaping path as well.
	// Escaped prints are escaped regardless of this flag.
	Autoescape bool
}

// SyntaxError reports malformed template source.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Transpile converts template source into a Program.
func Transpile(src string, opts Options) (*Program, error) {
	e := &emitter{opts: opts, line: 1}
	e.ops = append(e.ops, Op{Kind: OpInit, Line: 1})

	var lit strings.Builder
	litLine := 1
	pos := 0
	for {
		idx := strings.Index(src[pos:], "<%")
		if idx < 0 {
			lit.WriteString(src[pos:])
			break
		}
		lit.WriteString(src[pos : pos+idx])
		pos += idx + 2

		if strings.HasPrefix(src[pos:], "%") {
			lit.WriteString("<%")
			pos++
			continue
		}

		e.text(lit.String(), litLine)
		lit.Reset()

		tagLine := e.line
		end := strings.Index(src[pos:], "%>")
		if end < 0 {
			return nil, &SyntaxError{Line: tagLine, Msg: "unterminated tag, missing %>"}
		}
		body := src[pos : pos+end]
		pos += end + 2
		e.line += strings.Count(body, "\n")

		trim := strings.HasSuffix(body, "-")
		if trim {
			body = body[:len(body)-1]
		}

		switch {
		case strings.HasPrefix(body, "=="):
			e.print(body[2:], true, tagLine)
		case strings.HasPrefix(body, "="):
			e.print(body[1:], opts.Autoescape, tagLine)
		case strings.HasPrefix(body, "#"):
			// comment
		default:
			e.stmt(body, tagLine)
		}

		if trim {
			switch {
			case strings.HasPrefix(src[pos:], "\r\n"):
				pos += 2
				e.line++
			case strings.HasPrefix(src[pos:], "\n"):
				pos++
				e.line++
			}
		}
		litLine = e.line
	}
	e.text(lit.String(), litLine)

	e.flushNewlines()
	e.ops = append(e.ops, Op{Kind: OpResult, Line: e.line})
	return &Program{Ops: e.ops}, nil
}

type emitter struct {
	opts Options
	ops  []Op
	// line is the source line the scanner is currently on.
	line int

	pending     int
	pendingLine int
}

// text splits a literal into newline-free runs and counted newlines.
func (e *emitter) text(s string, line int) {
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i == 0 {
			if e.pending == 0 {
				e.pendingLine = line
			}
			e.pending++
			line++
			s = s[1:]
			continue
		}
		run := s
		if i > 0 {
			run = s[:i]
		}
		e.flushNewlines()
		e.ops = append(e.ops, Op{Kind: OpText, Text: run, Line: line})
		s = s[len(run):]
	}
	e.line = line
}

func (e *emitter) print(code string, escaped bool, line int) {
	e.flushNewlines()
	kind := OpPrint
	if escaped {
		kind = OpEscapedPrint
	}
	e.ops = append(e.ops, Op{Kind: kind, Code: code, Block: IsBlockExpr(code), Line: line})
}

func (e *emitter) stmt(code string, line int) {
	e.flushNewlines()
	e.ops = append(e.ops, Op{Kind: OpStmt, Code: code, Line: line})
}

func (e *emitter) flushNewlines() {
	if e.pending == 0 {
		return
	}
	e.ops = append(e.ops, Op{Kind: OpNewlines, Count: e.pending, Line: e.pendingLine})
	e.pending = 0
}
