package markdown

import (
	"bytes"

	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/registry"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the `markdown` capability set.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCapability(env.NewCapabilitySet("markdown").
		Function("markdown", RenderFunc))
}

// md renders CommonMark with the GitHub extensions. Raw HTML in the source
// is omitted.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderFunc is markdown(str): str rendered to HTML, marked safe.
var RenderFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "str", Type: cty.String, AllowNull: true, AllowMarked: true},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		src, _ := args[0].Unmark()
		if src.IsNull() {
			return env.MarkSafe(cty.StringVal("")), nil
		}
		out, err := Render(src.AsString())
		if err != nil {
			return cty.NilVal, err
		}
		return env.MarkSafe(cty.StringVal(out)), nil
	},
})

// Render converts markdown source to HTML.
func Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
