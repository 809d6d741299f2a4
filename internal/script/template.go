package script

import (
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/erb"
	"github.com/zclconf/go-cty/cty"
)

// Template is a compiled method body.
type Template struct {
	path  string
	line  int
	body  []node
	init  bool
	exprs []hclsyntax.Expression
}

// Compile turns a transpiled program into a template. baseLine is the line
// of the enclosing file on which the program's source starts; line numbers in
// errors are reported relative to that file.
func Compile(prog *erb.Program, path string, baseLine int) (*Template, error) {
	p := newParser(path, baseLine)
	t := &Template{path: path, line: p.baseLine}
	for _, op := range prog.Ops {
		if op.Kind == erb.OpInit {
			t.init = true
		}
		if err := p.op(op); err != nil {
			return nil, err
		}
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	t.body = p.root
	t.exprs = p.exprs
	return t, nil
}

// CompileStatements compiles raw statement source with no surrounding
// template text.
func CompileStatements(src, path string, baseLine int) (*Template, error) {
	p := newParser(path, baseLine)
	if err := p.statements(src, p.baseLine); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return &Template{path: path, line: p.baseLine, body: p.root, exprs: p.exprs}, nil
}

// Path returns the file the template was compiled from.
func (t *Template) Path() string {
	return t.path
}

// Line returns the line of Path the template starts on.
func (t *Template) Line() int {
	return t.line
}

// Execute runs the template and returns its output as a safe string. The
// output buffer is rc.Buffer when the caller provided one, otherwise a fresh
// buffer. locals seeds the template's local variables and is not modified.
func (t *Template) Execute(rc *env.Context, locals map[string]cty.Value) (cty.Value, error) {
	buf := rc.Buffer
	if buf == nil || !t.init {
		buf = env.NewBuffer()
	}
	rc.Buffer = nil
	if err := t.exec(rc, buf, locals); err != nil {
		return cty.NilVal, err
	}
	return env.MarkSafe(cty.StringVal(buf.String())), nil
}

// Run executes the template for its side effects, discarding output.
func (t *Template) Run(rc *env.Context, locals map[string]cty.Value) error {
	return t.exec(rc, env.NewBuffer(), locals)
}

func (t *Template) exec(rc *env.Context, buf *env.Buffer, locals map[string]cty.Value) error {
	f := &frame{
		rc:     rc,
		locals: make(map[string]cty.Value, len(locals)),
		buf:    buf,
		funcs:  rc.Env.Functions(rc),
	}
	for k, v := range locals {
		f.locals[k] = v
	}
	return execAll(f, t.body)
}
