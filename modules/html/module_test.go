package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

func lookup(t *testing.T, name string) function.Function {
	t.Helper()
	r := registry.New()
	(&Module{}).Register(r)
	cs, err := r.Lookup("html")
	require.NoError(t, err)
	fn, ok := cs.Functions[name]
	require.True(t, ok, "function %s must be registered", name)
	return fn
}

func TestHTML_Functions(t *testing.T) {
	str := cty.StringVal
	attrs := cty.ObjectVal(map[string]cty.Value{
		"id":    str("main"),
		"class": str(`a "b"`),
		"skip":  cty.NullVal(cty.String),
	})

	testCases := []struct {
		name string
		fn   string
		args []cty.Value
		want string
	}{
		{name: "h escapes", fn: "h", args: []cty.Value{str(`<a href="x">&</a>`)}, want: "&lt;a href=&#34;x&#34;&gt;&amp;&lt;/a&gt;"},
		{name: "h keeps safe", fn: "h", args: []cty.Value{env.MarkSafe(str("<b>"))}, want: "<b>"},
		{name: "h number", fn: "h", args: []cty.Value{cty.NumberIntVal(42)}, want: "42"},
		{name: "h null", fn: "h", args: []cty.Value{cty.NullVal(cty.String)}, want: ""},
		{name: "raw", fn: "raw", args: []cty.Value{str("<br>")}, want: "<br>"},
		{name: "content_tag", fn: "content_tag", args: []cty.Value{str("p"), str("1 < 2")}, want: "<p>1 &lt; 2</p>"},
		{name: "content_tag safe content", fn: "content_tag", args: []cty.Value{str("p"), env.MarkSafe(str("<em>x</em>"))}, want: "<p><em>x</em></p>"},
		{name: "content_tag attrs", fn: "content_tag", args: []cty.Value{str("div"), str("x"), attrs}, want: `<div class="a &#34;b&#34;" id="main">x</div>`},
		{name: "link_to", fn: "link_to", args: []cty.Value{str("Home & away"), str("/?a=1&b=2")}, want: `<a href="/?a=1&amp;b=2">Home &amp; away</a>`},
		{name: "link_to attrs", fn: "link_to", args: []cty.Value{str("x"), str("/"), cty.MapVal(map[string]cty.Value{"rel": str("nofollow")})}, want: `<a href="/" rel="nofollow">x</a>`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := lookup(t, tc.fn).Call(tc.args)
			require.NoError(t, err)
			assert.True(t, env.IsSafe(out), "%s returns a safe string", tc.fn)
			s, _ := out.Unmark()
			assert.Equal(t, tc.want, s.AsString())
		})
	}
}

func TestHTML_Errors(t *testing.T) {
	testCases := []struct {
		name string
		fn   string
		args []cty.Value
		msg  string
	}{
		{name: "attrs not an object", fn: "content_tag", args: []cty.Value{cty.StringVal("p"), cty.StringVal("x"), cty.StringVal("id")}, msg: "attributes must be an object"},
		{name: "too many arguments", fn: "link_to", args: []cty.Value{cty.StringVal("x"), cty.StringVal("/"), cty.EmptyObjectVal, cty.EmptyObjectVal}, msg: "too many arguments"},
		{name: "unprintable content", fn: "content_tag", args: []cty.Value{cty.StringVal("p"), cty.ListVal([]cty.Value{cty.True})}, msg: "cannot print"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lookup(t, tc.fn).Call(tc.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
