package env_vars

import (
	"os"

	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// EnvFunc is env(name): the value of the environment variable, null when it
// is not set.
var EnvFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		if v, ok := os.LookupEnv(args[0].AsString()); ok {
			return cty.StringVal(v), nil
		}
		return cty.NullVal(cty.String), nil
	},
})

// EnvOrFunc is env_or(name, fallback): the value of the environment variable,
// fallback when it is unset or empty.
var EnvOrFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
		{Name: "fallback", Type: cty.String, AllowNull: true},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		if v := os.Getenv(args[0].AsString()); v != "" {
			return cty.StringVal(v), nil
		}
		return args[1], nil
	},
})

// Register registers the `env_vars` capability set.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCapability(env.NewCapabilitySet("env_vars").
		Function("env", EnvFunc).
		Function("env_or", EnvOrFunc))
}
