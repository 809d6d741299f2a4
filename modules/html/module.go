package html

import (
	"fmt"
	"html"
	"strings"

	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the `html` capability set.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCapability(env.NewCapabilitySet("html").
		Function("h", EscapeFunc).
		Function("raw", RawFunc).
		Function("content_tag", ContentTagFunc).
		Function("link_to", LinkToFunc))
}

// printable accepts any value that prints, marks included.
var printable = function.Parameter{
	Type:             cty.DynamicPseudoType,
	AllowNull:        true,
	AllowDynamicType: true,
	AllowMarked:      true,
}

func param(name string) function.Parameter {
	p := printable
	p.Name = name
	return p
}

// attrsParam is the optional trailing attribute object of a tag helper.
var attrsParam = &function.Parameter{
	Name:             "attrs",
	Type:             cty.DynamicPseudoType,
	AllowNull:        true,
	AllowDynamicType: true,
	AllowMarked:      true,
}

// EscapeFunc is h(value): the escaped string form of value, marked safe.
// Safe values are returned unchanged.
var EscapeFunc = function.New(&function.Spec{
	Params: []function.Parameter{param("value")},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		s, err := escape(args[0])
		if err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		return env.MarkSafe(cty.StringVal(s)), nil
	},
})

// RawFunc is raw(value): the string form of value marked safe, printed
// without escaping.
var RawFunc = function.New(&function.Spec{
	Params: []function.Parameter{param("value")},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		s, err := env.ToString(args[0])
		if err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		return env.MarkSafe(cty.StringVal(s)), nil
	},
})

// ContentTagFunc is content_tag(name, content, [attrs]): an element wrapping
// content. Content and attribute values are escaped unless marked safe.
var ContentTagFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
		param("content"),
	},
	VarParam: attrsParam,
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		attrs, err := attributes(args[2:], 2)
		if err != nil {
			return cty.NilVal, err
		}
		out, err := contentTag(args[0].AsString(), args[1], attrs)
		if err != nil {
			return cty.NilVal, function.NewArgError(1, err)
		}
		return env.MarkSafe(cty.StringVal(out)), nil
	},
})

// LinkToFunc is link_to(text, href, [attrs]): an anchor element.
var LinkToFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		param("text"),
		{Name: "href", Type: cty.String},
	},
	VarParam: attrsParam,
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		attrs, err := attributes(args[2:], 2)
		if err != nil {
			return cty.NilVal, err
		}
		attrs = append([]attribute{{name: "href", value: args[1]}}, attrs...)
		out, err := contentTag("a", args[0], attrs)
		if err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		return env.MarkSafe(cty.StringVal(out)), nil
	},
})

type attribute struct {
	name  string
	value cty.Value
}

// attributes reads the optional attribute object of a tag helper in name
// order. argIdx is the position of the object in the call.
func attributes(rest []cty.Value, argIdx int) ([]attribute, error) {
	if len(rest) == 0 || rest[0].IsNull() {
		if len(rest) > 1 {
			return nil, function.NewArgErrorf(argIdx+1, "too many arguments")
		}
		return nil, nil
	}
	if len(rest) > 1 {
		return nil, function.NewArgErrorf(argIdx+1, "too many arguments")
	}
	v, _ := rest[0].Unmark()
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, function.NewArgErrorf(argIdx, "attributes must be an object, got %s", ty.FriendlyName())
	}

	var attrs []attribute
	for it := v.ElementIterator(); it.Next(); {
		k, val := it.Element()
		attrs = append(attrs, attribute{name: k.AsString(), value: val})
	}
	return attrs, nil
}

// contentTag renders <name attrs>content</name>.
func contentTag(name string, content cty.Value, attrs []attribute) (string, error) {
	var b strings.Builder
	b.WriteString("<" + name)
	for _, a := range attrs {
		if a.value.IsNull() {
			continue
		}
		val, err := escape(a.value)
		if err != nil {
			return "", fmt.Errorf("attribute %s: %w", a.name, err)
		}
		fmt.Fprintf(&b, ` %s="%s"`, a.name, val)
	}
	b.WriteString(">")

	body, err := escape(content)
	if err != nil {
		return "", err
	}
	b.WriteString(body)
	b.WriteString("</" + name + ">")
	return b.String(), nil
}

// escape returns the string form of v, HTML-escaped unless v is safe.
func escape(v cty.Value) (string, error) {
	s, err := env.ToString(v)
	if err != nil {
		return "", err
	}
	if env.IsSafe(v) {
		return s, nil
	}
	return html.EscapeString(s), nil
}
