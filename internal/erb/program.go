package erb

import (
	"fmt"
	"strings"
)

// OpKind identifies an operation of a transpiled Program.
type OpKind int

const (
	// OpInit binds the output buffer. It is always the first operation.
	OpInit OpKind = iota
	// OpText appends a run of literal text that contains no newline.
	OpText
	// OpNewlines appends Count newline characters.
	OpNewlines
	// OpPrint appends the value of Code without escaping.
	OpPrint
	// OpEscapedPrint appends the value of Code through the escaping path.
	OpEscapedPrint
	// OpStmt executes Code verbatim.
	OpStmt
	// OpResult yields the buffer contents. It is always the last operation.
	OpResult
)

var opKindNames = [...]string{
	OpInit:         "init",
	OpText:         "text",
	OpNewlines:     "newlines",
	OpPrint:        "print",
	OpEscapedPrint: "escaped_print",
	OpStmt:         "stmt",
	OpResult:       "result",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is a single operation of a Program.
type Op struct {
	Kind  OpKind
	Text  string // OpText
	Count int    // OpNewlines
	Code  string // OpPrint, OpEscapedPrint, OpStmt
	// Block is set on prints whose code opens a block; the statements that
	// follow, up to the matching end, form the block body.
	Block bool
	// Line is the 1-based line of the source the operation came from.
	Line int
}

// Program is the transpiled form of one span of template source.
type Program struct {
	Ops []Op
}

// Source renders the program as a single string of host statements. The
// rendering is stable and is what `tagforge -emit` prints.
func (p *Program) Source() string {
	var b strings.Builder
	for _, op := range p.Ops {
		switch op.Kind {
		case OpInit:
			b.WriteString("_buf = output_buffer ?? new_buffer();")
		case OpText:
			b.WriteString(`_buf.safe_append("`)
			writeQuoted(&b, op.Text)
			b.WriteString(`");`)
		case OpNewlines:
			b.WriteString(`_buf.safe_append("`)
			b.WriteString(strings.Repeat(`\n`, op.Count))
			b.WriteString(`");`)
		case OpPrint:
			writeAppend(&b, "_buf.append", op)
		case OpEscapedPrint:
			writeAppend(&b, "_buf.escaped_append", op)
		case OpStmt:
			b.WriteString(op.Code)
			b.WriteString(";")
		case OpResult:
			b.WriteString("_buf.to_s")
		}
	}
	return b.String()
}

func writeAppend(b *strings.Builder, target string, op Op) {
	if op.Block {
		b.WriteString(target)
		b.WriteString("= ")
		b.WriteString(op.Code)
		return
	}
	b.WriteString(target)
	b.WriteString("(")
	b.WriteString(op.Code)
	b.WriteString(");")
}

// writeQuoted escapes only the quote, the backslash and the newline so that
// every other byte of the literal is carried through unchanged.
func writeQuoted(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
}
