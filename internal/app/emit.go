package app

import (
	"context"
	"fmt"

	"github.com/vk/tagforge/internal/erb"
	"github.com/vk/tagforge/internal/instr"
)

// emit prints the build instructions of one unit, with the transpiled host
// source of every part and page.
func (a *App) emit(ctx context.Context) error {
	unit, err := a.loader.Load(ctx, a.config.TemplatePath)
	if err != nil {
		return err
	}
	opts := erb.Options{Autoescape: a.config.Autoescape}

	for _, in := range unit.Instructions {
		switch in.Kind {
		case instr.KindDefinition, instr.KindRenderPage:
			prog, err := erb.Transpile(in.Src, opts)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", unit.Path, in.Line, err)
			}
			header := in.Kind.String()
			if in.Kind == instr.KindDefinition {
				header += " " + in.Name
			}
			fmt.Fprintf(a.outW, "# %s (line %d)\n%s\n", header, in.Line, prog.Source())
		case instr.KindEval:
			fmt.Fprintf(a.outW, "# eval (line %d)\n%s\n", in.Line, in.Src)
		case instr.KindInclude:
			fmt.Fprintf(a.outW, "# include %s\n", in.Import)
		case instr.KindModule:
			fmt.Fprintf(a.outW, "# %s\n", in.Import)
		case instr.KindAliasMethod:
			fmt.Fprintf(a.outW, "# alias_method %s %s\n", in.New, in.Old)
		}
	}
	return nil
}
