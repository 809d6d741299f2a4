package script

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/tagforge/internal/env"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// frame is the state of one template execution.
type frame struct {
	rc     *env.Context
	locals map[string]cty.Value
	buf    *env.Buffer
	funcs  map[string]function.Function
}

func (f *frame) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(f.locals)+2)
	for k, v := range f.locals {
		vars[k] = v
	}
	vars["self"] = f.rc.SelfValue()
	this := f.rc.This
	if this.IsNull() {
		this = cty.NullVal(cty.DynamicPseudoType)
	}
	vars["this"] = this
	return &hcl.EvalContext{Variables: vars, Functions: f.funcs}
}

func (f *frame) eval(expr hcl.Expression, line int) (cty.Value, error) {
	v, diags := expr.Value(f.evalContext())
	if diags.HasErrors() {
		return cty.NilVal, &RuntimeError{Line: line, Err: diags}
	}
	// An interpolated string is new text; it is never safe as a whole.
	if _, ok := expr.(*hclsyntax.TemplateExpr); ok {
		v, _ = v.UnmarkDeep()
	}
	return v, nil
}

type node interface {
	exec(f *frame) error
}

func execAll(f *frame, body []node) error {
	for _, n := range body {
		if err := n.exec(f); err != nil {
			return err
		}
	}
	return nil
}

type textNode struct {
	text string
}

func (n *textNode) exec(f *frame) error {
	f.buf.SafeAppend(n.text)
	return nil
}

type printNode struct {
	expr    hcl.Expression
	escaped bool
	line    int
}

func (n *printNode) exec(f *frame) error {
	v, err := f.eval(n.expr, n.line)
	if err != nil {
		return err
	}
	return appendValue(f, v, n.escaped, n.line)
}

func appendValue(f *frame, v cty.Value, escaped bool, line int) error {
	var err error
	if escaped {
		err = f.buf.AppendEscaped(v)
	} else {
		err = f.buf.Append(v)
	}
	if err != nil {
		return &RuntimeError{Line: line, Err: err}
	}
	return nil
}

// blockPrintNode renders body into its own buffer and passes the result,
// marked safe, as the final argument of call.
type blockPrintNode struct {
	call    *hclsyntax.FunctionCallExpr
	escaped bool
	body    []node
	line    int
}

func (n *blockPrintNode) exec(f *frame) error {
	outer := f.buf
	f.buf = env.NewBuffer()
	err := execAll(f, n.body)
	captured := f.buf.String()
	f.buf = outer
	if err != nil {
		return err
	}

	call := *n.call
	call.Args = append(append([]hclsyntax.Expression(nil), n.call.Args...), &hclsyntax.LiteralValueExpr{
		Val:      env.MarkSafe(cty.StringVal(captured)),
		SrcRange: n.call.CloseParenRange,
	})
	v, err := f.eval(&call, n.line)
	if err != nil {
		return err
	}
	return appendValue(f, v, n.escaped, n.line)
}

type assignNode struct {
	name string
	ivar bool
	expr hcl.Expression
	line int
}

func (n *assignNode) exec(f *frame) error {
	v, err := f.eval(n.expr, n.line)
	if err != nil {
		return err
	}
	if n.ivar {
		f.rc.Self[n.name] = v
	} else {
		f.locals[n.name] = v
	}
	return nil
}

type exprNode struct {
	expr hcl.Expression
	line int
}

func (n *exprNode) exec(f *frame) error {
	_, err := f.eval(n.expr, n.line)
	return err
}

type branch struct {
	cond   hcl.Expression
	negate bool
	body   []node
	line   int
}

type ifNode struct {
	branches []*branch
	elseBody []node
}

func (n *ifNode) exec(f *frame) error {
	for _, b := range n.branches {
		v, err := f.eval(b.cond, b.line)
		if err != nil {
			return err
		}
		if truthy(v) != b.negate {
			return execAll(f, b.body)
		}
	}
	return execAll(f, n.elseBody)
}

// truthy treats null and false as false, everything else as true.
func truthy(v cty.Value) bool {
	v, _ = v.UnmarkDeep()
	if v.IsNull() || !v.IsKnown() {
		return false
	}
	if v.Type() == cty.Bool {
		return v.True()
	}
	return true
}

type forNode struct {
	keyVar string
	valVar string
	coll   hcl.Expression
	body   []node
	line   int
}

func (n *forNode) exec(f *frame) error {
	coll, err := f.eval(n.coll, n.line)
	if err != nil {
		return err
	}
	coll, marks := coll.Unmark()
	if coll.IsNull() {
		return &RuntimeError{Line: n.line, Err: fmt.Errorf("cannot iterate over a null value")}
	}
	if !coll.CanIterateElements() {
		return &RuntimeError{Line: n.line, Err: fmt.Errorf("cannot iterate over a value of type %s", coll.Type().FriendlyName())}
	}

	restore := f.shadow(n.keyVar, n.valVar)
	defer restore()

	for it := coll.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if n.keyVar != "" {
			f.locals[n.keyVar] = k.WithMarks(marks)
		}
		f.locals[n.valVar] = v.WithMarks(marks)
		if err := execAll(f, n.body); err != nil {
			return err
		}
	}
	return nil
}

// shadow saves the current values of the named locals and returns a func
// that puts them back, removing names that did not exist before.
func (f *frame) shadow(names ...string) func() {
	type saved struct {
		v  cty.Value
		ok bool
	}
	prev := make(map[string]saved, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		v, ok := f.locals[name]
		prev[name] = saved{v, ok}
	}
	return func() {
		for name, s := range prev {
			if s.ok {
				f.locals[name] = s.v
			} else {
				delete(f.locals, name)
			}
		}
	}
}
