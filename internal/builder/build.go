package builder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/tagforge/internal/ctxlog"
	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/erb"
	"github.com/vk/tagforge/internal/instr"
	"github.com/vk/tagforge/internal/script"
	"github.com/zclconf/go-cty/cty"
)

// RenderPageMethod is the name of the page entry point installed by a
// render_page instruction.
const RenderPageMethod = "render_page"

// Build executes the queued instructions against the target. localNames are
// the assign keys the page binds as local variables; autoImports are linked
// before the first instruction. On success srcTime becomes the freshness
// record.
func (b *Builder) Build(ctx context.Context, localNames []string, autoImports []instr.Import, srcTime time.Time) error {
	ctx = ctxlog.With(ctx, "unit", b.path)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting.", "instructions", len(b.instructions), "auto_imports", len(autoImports), "atomic", b.atomic)

	dst := b.target
	if b.atomic {
		dst = b.target.Clone()
	}

	for _, imp := range autoImports {
		if err := b.importTaglib(ctx, dst, imp); err != nil {
			return fmt.Errorf("auto import %s: %w", imp, err)
		}
	}

	var compiled []*script.Template
	for i, in := range b.instructions {
		tpl, err := b.execute(ctx, dst, in, localNames)
		if err != nil {
			logger.Debug("Build: instruction failed.", "index", i, "kind", in.Kind.String(), "error", err)
			return err
		}
		if tpl != nil {
			compiled = append(compiled, tpl)
		}
	}

	if b.atomic {
		b.target.Replace(dst)
	}
	b.warnUnresolved(ctx, compiled)
	b.markBuilt(srcTime)
	logger.Debug("Build: complete.", "methods", len(b.target.MethodNames()), "version", b.target.Version())
	return nil
}

func (b *Builder) execute(ctx context.Context, dst *env.Environment, in instr.Instruction, localNames []string) (*script.Template, error) {
	switch in.Kind {
	case instr.KindEval:
		return b.eval(dst, in)

	case instr.KindDefinition:
		tpl, err := b.compile(in.Src, in.Line)
		if err != nil {
			return nil, err
		}
		dst.DefineMethod(in.Name, partMethod(tpl))
		return tpl, nil

	case instr.KindRenderPage:
		tpl, err := b.compile(in.Src, in.Line)
		if err != nil {
			return nil, err
		}
		dst.DefineMethod(RenderPageMethod, pageMethod(tpl, localNames))
		dst.SetCompiledLocalNames(localNames)
		return tpl, nil

	case instr.KindInclude:
		return nil, b.importTaglib(ctx, dst, in.Import)

	case instr.KindModule:
		name := in.Name
		if name == "" {
			name = in.Import.Module
		}
		return nil, b.importModule(ctx, dst, name, in.Import.As)

	case instr.KindAliasMethod:
		return nil, dst.AliasMethod(in.New, in.Old)

	default:
		return nil, &UnknownInstructionError{Kind: in.Kind, Path: b.path}
	}
}

// compile transpiles and compiles template source that starts on line of
// the unit file.
func (b *Builder) compile(src string, line int) (*script.Template, error) {
	prog, err := erb.Transpile(src, b.erbOpts)
	if err != nil {
		at := line
		var synErr *erb.SyntaxError
		if errors.As(err, &synErr) {
			at = line + synErr.Line - 1
		}
		return nil, &CompilationError{Path: b.path, Line: at, Err: err}
	}
	tpl, err := script.Compile(prog, b.path, line)
	if err != nil {
		return nil, &CompilationError{Path: b.path, Line: errorLine(err, line), Err: err}
	}
	return tpl, nil
}

// eval compiles and runs raw statement source at build time. Instance
// variables it assigns become attributes of the target.
func (b *Builder) eval(dst *env.Environment, in instr.Instruction) (*script.Template, error) {
	tpl, err := script.CompileStatements(in.Src, b.path, in.Line)
	if err != nil {
		return nil, &CompilationError{Path: b.path, Line: errorLine(err, in.Line), Err: err}
	}

	before := dst.Attrs()
	rc := env.NewContext(dst, cty.NilVal)
	if err := tpl.Run(rc, nil); err != nil {
		return nil, &CompilationError{Path: b.path, Line: errorLine(err, in.Line), Err: err}
	}
	for name, v := range rc.Self {
		if old, ok := before[name]; ok && old.RawEquals(v) {
			continue
		}
		dst.SetAttr(name, v)
	}
	return tpl, nil
}

func errorLine(err error, fallback int) int {
	var (
		synErr *script.SyntaxError
		rtErr  *script.RuntimeError
	)
	switch {
	case errors.As(err, &synErr):
		return synErr.Line
	case errors.As(err, &rtErr):
		return rtErr.Line
	}
	return fallback
}

// warnUnresolved logs the functions compiled templates call that the target
// does not provide. They fail when rendered.
func (b *Builder) warnUnresolved(ctx context.Context, compiled []*script.Template) {
	logger := ctxlog.FromContext(ctx)
	for _, tpl := range compiled {
		for _, name := range tpl.CalledFunctions() {
			if !b.target.HasFunction(name) {
				logger.Warn("Template calls an unknown function.", "function", name, "line", tpl.Line())
			}
		}
	}
}

// partMethod exposes a part as a method. Call arguments are visible to the
// part as the tuple `args`.
func partMethod(tpl *script.Template) env.Method {
	return func(rc *env.Context, args []cty.Value) (cty.Value, error) {
		return tpl.Execute(rc, map[string]cty.Value{"args": cty.TupleVal(args)})
	}
}

// pageMethod is the render_page entry point: render_page(this, assigns).
// Each of localNames is bound from assigns, null when absent, and the body
// runs with this as its object context.
func pageMethod(tpl *script.Template, localNames []string) env.Method {
	names := append([]string(nil), localNames...)
	return func(rc *env.Context, args []cty.Value) (cty.Value, error) {
		this := cty.NullVal(cty.DynamicPseudoType)
		assigns := cty.NullVal(cty.DynamicPseudoType)
		if len(args) > 0 {
			this = args[0]
		}
		if len(args) > 1 {
			assigns = args[1]
		}

		locals := make(map[string]cty.Value, len(names))
		for _, name := range names {
			locals[name] = lookupAssign(assigns, name)
		}

		var out cty.Value
		err := rc.NewObjectContext(this, func() error {
			var err error
			out, err = tpl.Execute(rc, locals)
			return err
		})
		return out, err
	}
}

func lookupAssign(assigns cty.Value, name string) cty.Value {
	missing := cty.NullVal(cty.DynamicPseudoType)
	if assigns.IsNull() || !assigns.IsKnown() {
		return missing
	}
	ty := assigns.Type()
	switch {
	case ty.IsObjectType():
		if ty.HasAttribute(name) {
			return assigns.GetAttr(name)
		}
	case ty.IsMapType():
		key := cty.StringVal(name)
		if assigns.HasIndex(key).True() {
			return assigns.Index(key)
		}
	}
	return missing
}
