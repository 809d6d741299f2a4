package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/tagforge/internal/erb"
)

var (
	ifStmt     = regexp.MustCompile(`^(if|unless|elsif)\s+(.+?)(\s+then)?$`)
	forStmt    = regexp.MustCompile(`^for\s+([A-Za-z_]\w*)(?:\s*,\s*([A-Za-z_]\w*))?\s+in\s+(.+?)(\s+do)?$`)
	eachStmt   = regexp.MustCompile(`^(.+?)\.each\s*(do|\{)\s*\|\s*([A-Za-z_]\w*)(?:\s*,\s*([A-Za-z_]\w*))?\s*\|$`)
	blockOpen  = regexp.MustCompile(`\s*((\s+|\))do|\{)(\s*\|([^|]*)\|)?\s*\z`)
	closeBrace = "}"
)

// scope is an open block during parsing.
type scope struct {
	kind   string
	closer string
	line   int
	body   *[]node

	ifn *ifNode
}

type parser struct {
	path     string
	baseLine int
	root     []node
	stack    []*scope
	exprs    []hclsyntax.Expression
}

func newParser(path string, baseLine int) *parser {
	if baseLine < 1 {
		baseLine = 1
	}
	return &parser{path: path, baseLine: baseLine}
}

// abs converts a 1-based line relative to the parsed source to a line of
// the enclosing template file.
func (p *parser) abs(line int) int {
	return p.baseLine + line - 1
}

func (p *parser) body() *[]node {
	if len(p.stack) == 0 {
		return &p.root
	}
	return p.stack[len(p.stack)-1].body
}

func (p *parser) add(n node) {
	b := p.body()
	*b = append(*b, n)
}

func (p *parser) push(s *scope) {
	p.stack = append(p.stack, s)
}

func (p *parser) top() *scope {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *parser) parseExpr(code string, line int) (hclsyntax.Expression, error) {
	code = strings.TrimSpace(rewriteIvars(code))
	if code == "" {
		return nil, &SyntaxError{Line: line, Msg: "empty expression"}
	}
	expr, diags := hclsyntax.ParseExpression([]byte(code), p.path, hcl.Pos{Line: line, Column: 1, Byte: 0})
	if diags.HasErrors() {
		d := diags[0]
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		return nil, &SyntaxError{Line: line, Msg: msg}
	}
	p.exprs = append(p.exprs, expr)
	return expr, nil
}

// op consumes one operation of a transpiled program.
func (p *parser) op(op erb.Op) error {
	line := p.abs(op.Line)
	switch op.Kind {
	case erb.OpInit, erb.OpResult:
		return nil
	case erb.OpText:
		p.add(&textNode{text: op.Text})
	case erb.OpNewlines:
		p.add(&textNode{text: strings.Repeat("\n", op.Count)})
	case erb.OpPrint, erb.OpEscapedPrint:
		escaped := op.Kind == erb.OpEscapedPrint
		if op.Block {
			return p.blockPrint(op.Code, escaped, line)
		}
		expr, err := p.parseExpr(op.Code, line)
		if err != nil {
			return err
		}
		p.add(&printNode{expr: expr, escaped: escaped, line: line})
	case erb.OpStmt:
		return p.statements(op.Code, line)
	default:
		return &SyntaxError{Line: line, Msg: fmt.Sprintf("unexpected operation %s", op.Kind)}
	}
	return nil
}

func (p *parser) blockPrint(code string, escaped bool, line int) error {
	m := blockOpen.FindStringSubmatchIndex(code)
	if m == nil {
		return &SyntaxError{Line: line, Msg: "malformed block print"}
	}
	if m[8] >= 0 && strings.TrimSpace(code[m[8]:m[9]]) != "" {
		return &SyntaxError{Line: line, Msg: "block parameters are not supported on print blocks"}
	}
	opener := strings.TrimSpace(code[m[2]:m[3]])
	head := code[:m[0]]
	if strings.HasPrefix(opener, ")") {
		head = code[:m[2]+1]
	}
	expr, err := p.parseExpr(head, line)
	if err != nil {
		return err
	}
	call, ok := expr.(*hclsyntax.FunctionCallExpr)
	if !ok {
		return &SyntaxError{Line: line, Msg: "a block print must be a function call"}
	}
	n := &blockPrintNode{call: call, escaped: escaped, line: line}
	p.add(n)
	p.push(&scope{kind: "block print", closer: closerFor(opener), line: line, body: &n.body})
	return nil
}

func closerFor(opener string) string {
	if strings.HasSuffix(opener, "{") {
		return closeBrace
	}
	return "end"
}

func (p *parser) statements(src string, line int) error {
	for _, pc := range splitStatements(src) {
		if err := p.statement(pc.text, line+pc.line); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) statement(stmt string, line int) error {
	switch {
	case stmt == "end" || stmt == closeBrace:
		return p.close(stmt, line)

	case stmt == "else":
		s := p.top()
		if s == nil || s.ifn == nil || s.ifn.elseBody != nil {
			return &SyntaxError{Line: line, Msg: "else without if"}
		}
		s.ifn.elseBody = []node{}
		s.body = &s.ifn.elseBody
		return nil
	}

	if m := ifStmt.FindStringSubmatch(stmt); m != nil {
		cond, err := p.parseExpr(m[2], line)
		if err != nil {
			return err
		}
		b := &branch{cond: cond, negate: m[1] == "unless", line: line}
		if m[1] == "elsif" {
			s := p.top()
			if s == nil || s.ifn == nil || s.ifn.elseBody != nil {
				return &SyntaxError{Line: line, Msg: "elsif without if"}
			}
			s.ifn.branches = append(s.ifn.branches, b)
			s.body = &b.body
			return nil
		}
		n := &ifNode{branches: []*branch{b}}
		p.add(n)
		p.push(&scope{kind: m[1], closer: "end", line: line, body: &b.body, ifn: n})
		return nil
	}

	if m := forStmt.FindStringSubmatch(stmt); m != nil {
		key, val := "", m[1]
		if m[2] != "" {
			key, val = m[1], m[2]
		}
		return p.loop(key, val, m[3], "end", line)
	}

	if m := eachStmt.FindStringSubmatch(stmt); m != nil {
		key, val := "", m[3]
		if m[4] != "" {
			key, val = m[3], m[4]
		}
		return p.loop(key, val, m[1], closerFor(m[2]), line)
	}

	if name, ivar, rhs, ok := parseAssign(stmt); ok {
		expr, err := p.parseExpr(rhs, line)
		if err != nil {
			return err
		}
		p.add(&assignNode{name: name, ivar: ivar, expr: expr, line: line})
		return nil
	}

	expr, err := p.parseExpr(stmt, line)
	if err != nil {
		return err
	}
	p.add(&exprNode{expr: expr, line: line})
	return nil
}

func (p *parser) loop(key, val, coll, closer string, line int) error {
	expr, err := p.parseExpr(coll, line)
	if err != nil {
		return err
	}
	n := &forNode{keyVar: key, valVar: val, coll: expr, line: line}
	p.add(n)
	p.push(&scope{kind: "loop", closer: closer, line: line, body: &n.body})
	return nil
}

func (p *parser) close(closer string, line int) error {
	s := p.top()
	if s == nil {
		return &SyntaxError{Line: line, Msg: fmt.Sprintf("unexpected %q", closer)}
	}
	if s.closer != closer {
		return &SyntaxError{Line: line, Msg: fmt.Sprintf("unexpected %q, %s opened on line %d expects %q", closer, s.kind, s.line, s.closer)}
	}
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

func (p *parser) finish() error {
	if s := p.top(); s != nil {
		return &SyntaxError{Line: s.line, Msg: fmt.Sprintf("%s is never closed, missing %q", s.kind, s.closer)}
	}
	return nil
}
