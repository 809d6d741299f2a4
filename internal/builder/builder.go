package builder

import (
	"context"
	"time"

	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/erb"
	"github.com/vk/tagforge/internal/instr"
	"github.com/vk/tagforge/internal/registry"
)

// ResolveOptions is what a Provider receives for one taglib reference.
type ResolveOptions struct {
	Ref            string
	TemplateDir    string
	SourceTemplate string
	As             string
}

// Importer installs one resolved taglib into a target environment.
type Importer interface {
	ImportInto(ctx context.Context, target *env.Environment, as string) error
}

// Provider resolves taglib references to importers.
type Provider interface {
	Resolve(ctx context.Context, opts ResolveOptions) ([]Importer, error)
}

// Option configures a Builder.
type Option func(*Builder)

// WithProvider sets the taglib provider used by `include` instructions and
// automatic imports.
func WithProvider(p Provider) Option {
	return func(b *Builder) { b.provider = p }
}

// WithRegistry sets the capability registry used by `module` instructions.
func WithRegistry(r *registry.Registry) Option {
	return func(b *Builder) { b.registry = r }
}

// WithAutoescape makes plain prints escape their output.
func WithAutoescape(on bool) Option {
	return func(b *Builder) { b.erbOpts.Autoescape = on }
}

// WithAtomicInstall makes Build stage its changes in a clone of the target
// and commit them only when every instruction succeeded.
func WithAtomicInstall() Option {
	return func(b *Builder) { b.atomic = true }
}

// Builder compiles one template unit. See the package documentation for the
// build cycle.
type Builder struct {
	path     string
	target   *env.Environment
	provider Provider
	registry *registry.Registry
	erbOpts  erb.Options
	atomic   bool

	instructions []instr.Instruction
	parts        map[string]struct{}

	lastBuild time.Time
	built     bool
}

// New creates a builder for the unit at path that compiles into target.
func New(path string, target *env.Environment, opts ...Option) *Builder {
	b := &Builder{path: path, target: target}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Path returns the unit's source path.
func (b *Builder) Path() string {
	return b.path
}

// Target returns the environment the builder compiles into.
func (b *Builder) Target() *env.Environment {
	return b.target
}
