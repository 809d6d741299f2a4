package env

import (
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Method is a compiled template method. It runs against a render context and
// returns the value produced for the caller, usually the rendered string.
type Method func(rc *Context, args []cty.Value) (cty.Value, error)

// Environment is the compilation target for one template unit.
type Environment struct {
	mu sync.RWMutex

	name       string
	methods    map[string]Method
	functions  map[string]function.Function
	mixins     []string
	attrs      map[string]cty.Value
	localNames []string
	version    uint64
}

// New creates an empty environment.
func New(name string) *Environment {
	return &Environment{
		name:      name,
		methods:   make(map[string]Method),
		functions: make(map[string]function.Function),
		attrs:     make(map[string]cty.Value),
	}
}

// Name returns the name the environment was created with.
func (e *Environment) Name() string {
	return e.name
}

// Version returns a counter that increases with every mutation.
func (e *Environment) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// DefineMethod installs m under name, replacing any previous definition.
func (e *Environment) DefineMethod(name string, m Method) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.methods[name] = m
	e.version++
}

// Method returns the method installed under name.
func (e *Environment) Method(name string) (Method, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.methods[name]
	return m, ok
}

// MethodNames returns the sorted names of all installed methods.
func (e *Environment) MethodNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := slices.Collect(maps.Keys(e.methods))
	sort.Strings(names)
	return names
}

// AliasMethod registers newName as an additional name for whatever is
// currently installed under oldName. Mixed-in functions can be aliased too.
// The environment is left untouched when oldName is unknown.
func (e *Environment) AliasMethod(newName, oldName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m, ok := e.methods[oldName]; ok {
		e.methods[newName] = m
		e.version++
		return nil
	}
	if fn, ok := e.functions[oldName]; ok {
		e.functions[newName] = fn
		e.version++
		return nil
	}
	return &MissingAliasTargetError{New: newName, Old: oldName}
}

// MixIn merges a capability set into the environment. Later entries win
// over earlier ones with the same name.
func (e *Environment) MixIn(cs *CapabilitySet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	maps.Copy(e.functions, cs.Functions)
	maps.Copy(e.methods, cs.Methods)
	e.mixins = append(e.mixins, cs.Name)
	e.version++
}

// MixedIn returns the names of the capability sets merged so far, in order.
func (e *Environment) MixedIn() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.mixins)
}

// SetCompiledLocalNames records the local variable names the render_page
// entry point was compiled for.
func (e *Environment) SetCompiledLocalNames(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.localNames = slices.Clone(names)
	e.version++
}

// CompiledLocalNames returns the names recorded by SetCompiledLocalNames.
func (e *Environment) CompiledLocalNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.localNames)
}

// SetAttr sets a build-time attribute. Attributes seed the instance
// variables of every render.
func (e *Environment) SetAttr(name string, v cty.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = v
	e.version++
}

// Attrs returns a copy of the build-time attributes.
func (e *Environment) Attrs() map[string]cty.Value {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.attrs)
}

// HasFunction reports whether name is callable from an expression.
func (e *Environment) HasFunction(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, ok := e.methods[name]; ok {
		return true
	}
	if _, ok := e.functions[name]; ok {
		return true
	}
	_, ok := stdlibFunctions[name]
	return ok
}

// Clone returns an independent copy of the environment. Compiled methods are
// shared; they are immutable closures.
func (e *Environment) Clone() *Environment {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &Environment{
		name:       e.name,
		methods:    maps.Clone(e.methods),
		functions:  maps.Clone(e.functions),
		mixins:     slices.Clone(e.mixins),
		attrs:      maps.Clone(e.attrs),
		localNames: slices.Clone(e.localNames),
		version:    e.version,
	}
}

// Replace overwrites the contents of e with those of other, as one mutation.
func (e *Environment) Replace(other *Environment) {
	snapshot := other.Clone()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.methods = snapshot.methods
	e.functions = snapshot.functions
	e.mixins = snapshot.mixins
	e.attrs = snapshot.attrs
	e.localNames = snapshot.localNames
	e.version++
}

// Export returns the environment's methods and mixed-in functions as a
// capability set. With a non-empty prefix every name becomes prefix::name.
// Exported methods keep resolving calls against e, so helpers they use need
// not be visible in the importing environment.
func (e *Environment) Export(prefix string) *CapabilitySet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cs := NewCapabilitySet(e.name)
	qualify := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "::" + name
	}
	for name, fn := range e.functions {
		cs.Functions[qualify(name)] = fn
	}
	for name, m := range e.methods {
		cs.Methods[qualify(name)] = e.bind(m)
	}
	return cs
}

func (e *Environment) bind(m Method) Method {
	return func(rc *Context, args []cty.Value) (cty.Value, error) {
		return m(rc.WithEnv(e), args)
	}
}
