package engine

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/tagforge/internal/builder"
	"github.com/vk/tagforge/internal/config"
	"github.com/vk/tagforge/internal/ctxlog"
	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/instr"
	"github.com/vk/tagforge/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Option configures an Engine.
type Option func(*Engine)

// WithProvider sets the taglib provider every unit links against.
func WithProvider(p builder.Provider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithRegistry sets the capability registry for `module` instructions.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithAutoImports links imps into every unit before its own instructions.
func WithAutoImports(imps ...instr.Import) Option {
	return func(e *Engine) { e.autoImports = append(e.autoImports, imps...) }
}

// WithAutoescape makes plain prints escape their output.
func WithAutoescape(on bool) Option {
	return func(e *Engine) { e.autoescape = on }
}

// WithAtomicInstall makes a failed build leave the unit as it was.
func WithAtomicInstall() Option {
	return func(e *Engine) { e.atomic = true }
}

// Engine compiles units on demand and renders their pages. Units are cached
// by path and rebuilt when their sources, the taglibs they import, or the
// local names a render needs change. Builds and renders of one unit are
// serialized; different units proceed in parallel.
type Engine struct {
	loader      config.Loader
	provider    builder.Provider
	registry    *registry.Registry
	autoImports []instr.Import
	autoescape  bool
	atomic      bool

	mu    sync.Mutex
	units map[string]*unit
}

// unit is the cached compilation state of one template unit.
type unit struct {
	mu      sync.Mutex
	path    string
	env     *env.Environment
	builder *builder.Builder
	linked  *recordingProvider
}

// New creates an engine that reads units through loader.
func New(loader config.Loader, opts ...Option) *Engine {
	e := &Engine{
		loader: loader,
		units:  make(map[string]*unit),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile makes sure the unit at path is built for localNames and returns
// its environment.
func (e *Engine) Compile(ctx context.Context, path string, localNames []string) (*env.Environment, error) {
	u, err := e.unit(path)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := e.ensureBuilt(ctx, u, localNames); err != nil {
		return nil, err
	}
	return u.env, nil
}

// Render builds the unit at path if needed and renders its page with this as
// the object context. Every key of assigns is bound as a local variable.
func (e *Engine) Render(ctx context.Context, path string, this cty.Value, assigns map[string]cty.Value) (string, error) {
	u, err := e.unit(path)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	localNames := slices.Sorted(maps.Keys(assigns))
	if err := e.ensureBuilt(ctx, u, localNames); err != nil {
		return "", err
	}

	page, ok := u.env.Method(builder.RenderPageMethod)
	if !ok {
		return "", fmt.Errorf("%s: unit has no page to render", u.path)
	}

	assignsVal := cty.EmptyObjectVal
	if len(assigns) > 0 {
		assignsVal = cty.ObjectVal(assigns)
	}
	if this.Type() == cty.NilType {
		this = cty.NullVal(cty.DynamicPseudoType)
	}

	start := time.Now()
	out, err := page(env.NewContext(u.env, this), []cty.Value{this, assignsVal})
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", u.path, err)
	}
	s, err := env.ToString(out)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", u.path, err)
	}
	ctxlog.FromContext(ctx).Debug("Page rendered.", "unit", u.path, "bytes", len(s), "duration", time.Since(start))
	return s, nil
}

// unit returns the cache entry for path, creating it on first use.
func (e *Engine) unit(path string) (*unit, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if u, ok := e.units[abs]; ok {
		return u, nil
	}

	u := &unit{path: abs, env: env.New(filepath.Base(abs))}
	opts := []builder.Option{
		builder.WithRegistry(e.registry),
		builder.WithAutoescape(e.autoescape),
	}
	if e.provider != nil {
		u.linked = &recordingProvider{Provider: e.provider}
		opts = append(opts, builder.WithProvider(u.linked))
	}
	if e.atomic {
		opts = append(opts, builder.WithAtomicInstall())
	}
	u.builder = builder.New(abs, u.env, opts...)
	e.units[abs] = u
	return u, nil
}

// ensureBuilt rebuilds u unless its last build is still current. The caller
// holds u.mu.
func (e *Engine) ensureBuilt(ctx context.Context, u *unit, localNames []string) error {
	logger := ctxlog.FromContext(ctx)

	src, err := e.loader.Load(ctx, u.path)
	if err != nil {
		return err
	}
	if e.upToDate(u, src, localNames) {
		logger.Debug("Unit is up to date.", "unit", u.path)
		return nil
	}

	buildID := uuid.NewString()
	ctx = ctxlog.With(ctx, "build_id", buildID)
	logger = ctxlog.FromContext(ctx)

	start := time.Now()
	if u.linked != nil {
		u.linked.reset()
	}
	u.builder.Start()
	if err := u.builder.AddUnit(src); err != nil {
		return err
	}
	if err := u.builder.Build(ctx, localNames, e.autoImports, src.ModTime); err != nil {
		logger.Debug("Unit build failed.", "unit", u.path, "error", err)
		return err
	}

	logger.Info("Unit built.",
		"unit", u.path,
		"instructions", len(src.Instructions),
		"locals", localNames,
		"duration", time.Since(start),
	)
	return nil
}

func (e *Engine) upToDate(u *unit, src *config.Unit, localNames []string) bool {
	if !u.builder.IsFresh(src.ModTime) {
		return false
	}
	if src.HasPage() && !slices.Equal(u.env.CompiledLocalNames(), localNames) {
		return false
	}
	return u.linked == nil || !u.linked.stale()
}
