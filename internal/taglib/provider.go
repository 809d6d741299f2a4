package taglib

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/vk/tagforge/internal/builder"
	"github.com/vk/tagforge/internal/config"
	"github.com/vk/tagforge/internal/ctxlog"
	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/fsutil"
	"github.com/vk/tagforge/internal/hcl"
	"github.com/vk/tagforge/internal/registry"
)

// Option configures a Provider.
type Option func(*Provider)

// WithSearchPaths adds directories searched after the importing template's
// own directory.
func WithSearchPaths(paths ...string) Option {
	return func(p *Provider) { p.searchPaths = append(p.searchPaths, paths...) }
}

// WithAutoescape compiles taglibs with escaping plain prints.
func WithAutoescape(on bool) Option {
	return func(p *Provider) { p.autoescape = on }
}

// Provider is a builder.Provider backed by taglib files.
type Provider struct {
	loader      config.Loader
	registry    *registry.Registry
	searchPaths []string
	autoescape  bool

	mu   sync.Mutex
	libs map[string]*Library
}

var _ builder.Provider = (*Provider)(nil)

// New creates a provider that loads taglibs through loader and resolves
// their `module` instructions against reg.
func New(loader config.Loader, reg *registry.Registry, opts ...Option) *Provider {
	p := &Provider{
		loader:   loader,
		registry: reg,
		libs:     make(map[string]*Library),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Library is a compiled taglib.
type Library struct {
	provider *Provider
	path     string
	env      *env.Environment
	builder  *builder.Builder
	deps     []*Library
}

// Path returns the absolute path of the taglib file.
func (l *Library) Path() string {
	return l.path
}

// Env returns the environment the taglib was compiled into.
func (l *Library) Env() *env.Environment {
	return l.env
}

// Stale reports whether the taglib file, or one it includes, changed since
// the library was built.
func (l *Library) Stale() bool {
	l.provider.mu.Lock()
	defer l.provider.mu.Unlock()
	return !l.provider.fresh(l)
}

// ImportInto mixes the taglib's methods and functions into target, named
// as::name when as is set.
func (l *Library) ImportInto(ctx context.Context, target *env.Environment, as string) error {
	target.MixIn(l.env.Export(as))
	ctxlog.FromContext(ctx).Debug("Taglib imported.", "taglib", l.path, "as", as, "target", target.Name())
	return nil
}

// chainKey carries the taglibs being built by the current resolution, outermost
// first.
type chainKey struct{}

func chainFrom(ctx context.Context) []*Library {
	chain, _ := ctx.Value(chainKey{}).([]*Library)
	return chain
}

// Resolve implements builder.Provider.
func (p *Provider) Resolve(ctx context.Context, opts builder.ResolveOptions) ([]builder.Importer, error) {
	path, err := p.locate(opts)
	if err != nil {
		return nil, err
	}

	// Nested resolutions run inside the build of an outer taglib, which
	// already holds the lock.
	chain := chainFrom(ctx)
	if len(chain) == 0 {
		p.mu.Lock()
		defer p.mu.Unlock()
	}

	lib, err := p.load(ctx, path, chain)
	if err != nil {
		return nil, err
	}
	if len(chain) > 0 {
		parent := chain[len(chain)-1]
		parent.deps = append(parent.deps, lib)
	}
	return []builder.Importer{lib}, nil
}

// locate returns the absolute path of the file opts.Ref refers to.
func (p *Provider) locate(opts builder.ResolveOptions) (string, error) {
	dirs := append([]string{opts.TemplateDir}, p.searchPaths...)
	if filepath.IsAbs(opts.Ref) {
		dirs = []string{""}
	}

	var searched []string
	for _, dir := range dirs {
		base := filepath.Join(dir, opts.Ref)
		for _, candidate := range []string{base, base + hcl.TaglibSuffix} {
			searched = append(searched, candidate)
			if fsutil.IsFile(candidate) {
				return filepath.Abs(candidate)
			}
		}
	}
	return "", &NotFoundError{Ref: opts.Ref, Searched: searched}
}

func (p *Provider) load(ctx context.Context, path string, chain []*Library) (*Library, error) {
	for i, l := range chain {
		if l.path == path {
			names := make([]string, 0, len(chain)-i+1)
			for _, c := range chain[i:] {
				names = append(names, c.path)
			}
			return nil, &CycleError{Chain: append(names, path)}
		}
	}

	logger := ctxlog.FromContext(ctx)
	if lib, ok := p.libs[path]; ok && p.fresh(lib) {
		logger.Debug("Taglib cache hit.", "taglib", path)
		return lib, nil
	}

	logger.Debug("Building taglib.", "taglib", path, "depth", len(chain))
	unit, err := p.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	lib := &Library{
		provider: p,
		path:     path,
		env:      env.New(strings.TrimSuffix(filepath.Base(path), hcl.TaglibSuffix)),
	}
	lib.builder = builder.New(path, lib.env,
		builder.WithProvider(p),
		builder.WithRegistry(p.registry),
		builder.WithAutoescape(p.autoescape),
	)
	lib.builder.Start()
	if err := lib.builder.AddUnit(unit); err != nil {
		return nil, err
	}

	buildCtx := context.WithValue(ctx, chainKey{}, append(slices.Clone(chain), lib))
	if err := lib.builder.Build(buildCtx, nil, nil, unit.ModTime); err != nil {
		return nil, fmt.Errorf("building taglib %s: %w", path, err)
	}

	p.libs[path] = lib
	return lib, nil
}

// fresh reports whether lib and every taglib it included are up to date
// with their files.
func (p *Provider) fresh(lib *Library) bool {
	modTime, err := fsutil.ModTime(lib.path)
	if err != nil || !lib.builder.IsFresh(modTime) {
		return false
	}
	for _, dep := range lib.deps {
		if !p.fresh(dep) {
			return false
		}
	}
	return true
}
