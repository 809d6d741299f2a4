package testutil

import (
	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/registry"
	"github.com/zclconf/go-cty/cty/function"
)

// SimpleModule is a test helper for easily creating a module that registers
// a single capability set.
type SimpleModule struct {
	Name      string
	Functions map[string]function.Function
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	cs := env.NewCapabilitySet(m.Name)
	for name, fn := range m.Functions {
		cs.Function(name, fn)
	}
	r.RegisterCapability(cs)
}
