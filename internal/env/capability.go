package env

import "github.com/zclconf/go-cty/cty/function"

// CapabilitySet is a named collection of functions and methods that can be
// mixed into an Environment.
type CapabilitySet struct {
	Name      string
	Functions map[string]function.Function
	Methods   map[string]Method
}

// NewCapabilitySet creates an empty capability set.
func NewCapabilitySet(name string) *CapabilitySet {
	return &CapabilitySet{
		Name:      name,
		Functions: make(map[string]function.Function),
		Methods:   make(map[string]Method),
	}
}

// Function adds fn under name and returns the set for chaining.
func (cs *CapabilitySet) Function(name string, fn function.Function) *CapabilitySet {
	cs.Functions[name] = fn
	return cs
}
