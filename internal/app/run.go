package app

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/vk/tagforge/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Run executes the main application logic based on the configuration the
// App was created with: check a tree of units, emit the transpiled source of
// one unit, or render one page.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "path", a.config.TemplatePath)

	var err error
	switch {
	case a.config.Check:
		err = a.check(ctx)
	case a.config.Emit:
		err = a.emit(ctx)
	default:
		err = a.render(ctx)
	}

	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

func (a *App) check(ctx context.Context) error {
	results, err := a.engine.Check(ctx, a.config.Workers, a.config.TemplatePath)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(a.outW, "FAIL %s\n", r.Path)
			continue
		}
		fmt.Fprintf(a.outW, "ok   %s\n", r.Path)
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	return nil
}

func (a *App) render(ctx context.Context) error {
	assigns, err := a.assigns(ctx)
	if err != nil {
		return err
	}
	out, err := a.engine.Render(ctx, a.config.TemplatePath, cty.NilVal, assigns)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.outW, out)
	return err
}

// assigns merges the variables file with the -local values, which win.
func (a *App) assigns(ctx context.Context) (map[string]cty.Value, error) {
	assigns := make(map[string]cty.Value)
	if a.config.VarsPath != "" {
		vars, err := a.converter.LoadVars(ctx, a.config.VarsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load variables: %w", err)
		}
		maps.Copy(assigns, vars)
	}
	for name, raw := range a.config.Locals {
		v, err := a.converter.ToCtyValue(raw)
		if err != nil {
			return nil, fmt.Errorf("local %s: %w", name, err)
		}
		assigns[name] = v
	}
	ctxlog.FromContext(ctx).Debug("Render assigns prepared.", "names", slices.Sorted(maps.Keys(assigns)))
	return assigns, nil
}
