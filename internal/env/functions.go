package env

import (
	"maps"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// stdlibFunctions are callable from every template without a mix-in.
var stdlibFunctions = map[string]function.Function{
	"abs":        stdlib.AbsoluteFunc,
	"coalesce":   stdlib.CoalesceFunc,
	"concat":     stdlib.ConcatFunc,
	"contains":   stdlib.ContainsFunc,
	"element":    stdlib.ElementFunc,
	"format":     stdlib.FormatFunc,
	"join":       stdlib.JoinFunc,
	"jsonencode": stdlib.JSONEncodeFunc,
	"keys":       stdlib.KeysFunc,
	"length":     stdlib.LengthFunc,
	"lookup":     stdlib.LookupFunc,
	"lower":      stdlib.LowerFunc,
	"max":        stdlib.MaxFunc,
	"merge":      stdlib.MergeFunc,
	"min":        stdlib.MinFunc,
	"range":      stdlib.RangeFunc,
	"replace":    stdlib.ReplaceFunc,
	"reverse":    stdlib.ReverseListFunc,
	"sort":       stdlib.SortFunc,
	"split":      stdlib.SplitFunc,
	"substr":     stdlib.SubstrFunc,
	"trimspace":  stdlib.TrimSpaceFunc,
	"upper":      stdlib.UpperFunc,
	"values":     stdlib.ValuesFunc,
}

// composing lists the stdlib functions that build new strings out of their
// arguments. Their results never inherit marks, so formatting a safe string
// together with an unsafe one does not make the result safe.
var composing = []string{"format", "join", "jsonencode", "lower", "replace", "substr", "trimspace", "upper"}

func init() {
	for _, name := range composing {
		stdlibFunctions[name] = unmarked(stdlibFunctions[name])
	}
}

// unmarked wraps fn so that it sees and returns unmarked values only.
func unmarked(fn function.Function) function.Function {
	params := fn.Params()
	for i := range params {
		params[i].AllowMarked = true
	}
	varParam := fn.VarParam()
	if varParam != nil {
		varParam.AllowMarked = true
	}
	return function.New(&function.Spec{
		Params:   params,
		VarParam: varParam,
		Type: func(args []cty.Value) (cty.Type, error) {
			return fn.ReturnTypeForValues(unmarkAll(args))
		},
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return fn.Call(unmarkAll(args))
		},
	})
}

func unmarkAll(args []cty.Value) []cty.Value {
	out := make([]cty.Value, len(args))
	for i, v := range args {
		out[i], _ = v.UnmarkDeep()
	}
	return out
}

// Functions returns every function callable from an expression evaluated
// in rc: the standard library, mixed-in capability functions, and the
// environment's methods bound to rc.
func (e *Environment) Functions(rc *Context) map[string]function.Function {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]function.Function, len(stdlibFunctions)+len(e.functions)+len(e.methods))
	maps.Copy(out, stdlibFunctions)
	maps.Copy(out, e.functions)
	for name, m := range e.methods {
		out[name] = bindMethod(rc, m)
	}
	return out
}

// bindMethod exposes a method as a variadic cty function. Marks on the
// arguments are passed through so safe strings stay safe inside the method.
func bindMethod(rc *Context, m Method) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{
			Name:             "args",
			Type:             cty.DynamicPseudoType,
			AllowNull:        true,
			AllowDynamicType: true,
			AllowMarked:      true,
		},
		Type: function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			child, err := rc.Call()
			if err != nil {
				return cty.NilVal, err
			}
			return m(child, args)
		},
	})
}
