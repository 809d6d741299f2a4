package debug

import (
	"errors"
	"log/slog"

	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the `debug` capability set.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCapability(env.NewCapabilitySet("debug").
		Function("inspect", InspectFunc).
		Function("log", LogFunc))
}

var errUnknown = errors.New("cannot inspect an unknown value")

var anyValue = function.Parameter{
	Name:             "value",
	Type:             cty.DynamicPseudoType,
	AllowNull:        true,
	AllowDynamicType: true,
	AllowMarked:      true,
}

// InspectFunc is inspect(value): the JSON form of value.
var InspectFunc = function.New(&function.Spec{
	Params: []function.Parameter{anyValue},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		s, err := Inspect(args[0])
		if err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		return cty.StringVal(s), nil
	},
})

// LogFunc is log(value): writes value to the application log at info level
// and prints nothing.
var LogFunc = function.New(&function.Spec{
	Params: []function.Parameter{anyValue},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		s, err := Inspect(args[0])
		if err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		slog.Info("Template log.", "value", s, "safe", env.IsSafe(args[0]))
		return cty.StringVal(""), nil
	},
})

// Inspect returns the JSON form of v. Marks are ignored.
func Inspect(v cty.Value) (string, error) {
	v, _ = v.UnmarkDeep()
	if !v.IsWhollyKnown() {
		return "", errUnknown
	}
	b, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
