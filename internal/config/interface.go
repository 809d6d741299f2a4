package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific unit loader.
type Loader interface {
	// Load reads the unit at path and translates it into the
	// format-agnostic model.
	Load(ctx context.Context, path string) (*Unit, error)

	// Discover walks the given paths and returns every unit file found.
	Discover(ctx context.Context, paths ...string) ([]string, error)
}

// Converter is the interface for a format-specific data binding
// implementation. It turns render variables and native Go values into the
// cty values templates work with.
type Converter interface {
	// LoadVars reads a variables file and returns its top-level entries.
	LoadVars(ctx context.Context, path string) (map[string]cty.Value, error)

	// ToCtyValue converts a native Go value into its equivalent cty.Value.
	ToCtyValue(v any) (cty.Value, error)
}
