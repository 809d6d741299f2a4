package hcl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tagforge/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// LoadVars reads render variables from an `.hcl`, `.json`, `.yaml` or
// `.yml` file. The top level must be a set of attributes (HCL) or an object.
func (c *Converter) LoadVars(ctx context.Context, path string) (map[string]cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading render variables.", "path", path)

	var (
		vars map[string]cty.Value
		err  error
	)
	switch ext := filepath.Ext(path); ext {
	case ".hcl":
		vars, err = c.loadHCLVars(path)
	case ".json":
		vars, err = c.loadJSONVars(path)
	case ".yaml", ".yml":
		vars, err = c.loadYAMLVars(path)
	default:
		return nil, fmt.Errorf("unsupported variables file %s: unknown extension %q", path, ext)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Render variables loaded.", "path", path, "count", len(vars))
	return vars, nil
}

func (c *Converter) loadHCLVars(path string) (map[string]cty.Value, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	vars := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate %q in %s: %w", name, path, diags)
		}
		vars[name] = v
	}
	return vars, nil
}

func (c *Converter) loadJSONVars(path string) (map[string]cty.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := jsonToCty(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JSON file %s: %w", path, err)
	}
	return objectAttrs(path, v)
}

func (c *Converter) loadYAMLVars(path string) (map[string]cty.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
	}
	if doc == nil {
		return map[string]cty.Value{}, nil
	}
	v, err := c.ToCtyValue(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML file %s: %w", path, err)
	}
	return objectAttrs(path, v)
}

func objectAttrs(path string, v cty.Value) (map[string]cty.Value, error) {
	if v.IsNull() || !(v.Type().IsObjectType() || v.Type().IsMapType()) {
		return nil, fmt.Errorf("variables file %s must contain an object at the top level", path)
	}
	vars := make(map[string]cty.Value)
	for it := v.ElementIterator(); it.Next(); {
		k, val := it.Element()
		vars[k.AsString()] = val
	}
	return vars, nil
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
// Values whose type cannot be inferred statically, such as decoded YAML or
// JSON documents, are converted through their JSON form.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	if ty, err := gocty.ImpliedType(v); err == nil {
		return gocty.ToCtyValue(v, ty)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return jsonToCty(data)
}

func jsonToCty(data []byte) (cty.Value, error) {
	ty, err := ctyjson.ImpliedType(data)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(data, ty)
}
