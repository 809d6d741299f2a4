package script

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/erb"
	"github.com/zclconf/go-cty/cty"
)

func compile(t *testing.T, src string, opts erb.Options) *Template {
	t.Helper()
	prog, err := erb.Transpile(src, opts)
	require.NoError(t, err)
	tpl, err := Compile(prog, "page.erb", 1)
	require.NoError(t, err)
	return tpl
}

func render(t *testing.T, e *env.Environment, src string, locals map[string]cty.Value) string {
	t.Helper()
	out, err := compile(t, src, erb.Options{}).Execute(env.NewContext(e, cty.NilVal), locals)
	require.NoError(t, err)
	assert.True(t, env.IsSafe(out), "template output must be marked safe")
	s, _ := out.Unmark()
	return s.AsString()
}

func TestExecute_Constructs(t *testing.T) {
	items := cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")})

	testCases := []struct {
		name   string
		src    string
		locals map[string]cty.Value
		want   string
	}{
		{
			name: "plain text",
			src:  "hello\n\nworld",
			want: "hello\n\nworld",
		},
		{
			name:   "print local",
			src:    "Hello <%= name %>!",
			locals: map[string]cty.Value{"name": cty.StringVal("World")},
			want:   "Hello World!",
		},
		{
			name:   "if else",
			src:    "<% if n > 1 %>many<% else %>one<% end %>",
			locals: map[string]cty.Value{"n": cty.NumberIntVal(1)},
			want:   "one",
		},
		{
			name:   "elsif with then",
			src:    "<% if n == 1 then %>one<% elsif n == 2 %>two<% else %>lots<% end %>",
			locals: map[string]cty.Value{"n": cty.NumberIntVal(2)},
			want:   "two",
		},
		{
			name:   "unless",
			src:    "<% unless hidden %>shown<% end %>",
			locals: map[string]cty.Value{"hidden": cty.False},
			want:   "shown",
		},
		{
			name:   "for loop",
			src:    "<% for x in items %><%= x %>,<% end %>",
			locals: map[string]cty.Value{"items": items},
			want:   "a,b,",
		},
		{
			name:   "for with index",
			src:    "<% for i, x in items %><%= i %>=<%= x %> <% end %>",
			locals: map[string]cty.Value{"items": items},
			want:   "0=a 1=b ",
		},
		{
			name:   "each do",
			src:    "<% items.each do |x| %>[<%= x %>]<% end %>",
			locals: map[string]cty.Value{"items": items},
			want:   "[a][b]",
		},
		{
			name:   "each brace",
			src:    "<% items.each { |x| %>(<%= x %>)<% } %>",
			locals: map[string]cty.Value{"items": items},
			want:   "(a)(b)",
		},
		{
			name: "instance variable",
			src:  "<% @x = 1 %><%= @x %>",
			want: "1",
		},
		{
			name: "instance variable in interpolation",
			src:  `<% @t = "a" %><%= "${@t}!" %>`,
			want: "a!",
		},
		{
			name: "instance variable syntax in string text",
			src:  `<%= "@t and $${@t}" %>`,
			want: "@t and ${@t}",
		},
		{
			name: "nested string in interpolation",
			src:  `<% @xs = ["a", "b"] %><% s = "${join(";", @xs)}"; n = 1 %><%= s %><%= n %>`,
			want: "a;b1",
		},
		{
			name: "local assignment and stdlib",
			src:  "<% title = upper(\"hi\") %><%= title %>",
			want: "HI",
		},
		{
			name: "several statements in one tag",
			src:  "<% a = 1; b = 2\nc = a + b %><%= c %>",
			want: "3",
		},
		{
			name: "stdlib abs",
			src:  "<%= abs(-3) %>",
			want: "3",
		},
		{
			name: "null prints empty",
			src:  "[<%= null %>]",
			want: "[]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, render(t, env.New("page"), tc.src, tc.locals))
		})
	}
}

func TestExecute_Escaping(t *testing.T) {
	locals := map[string]cty.Value{"v": cty.StringVal("<b>")}

	out, err := compile(t, "<%= v %>|<%== v %>", erb.Options{}).Execute(env.NewContext(env.New("page"), cty.NilVal), locals)
	require.NoError(t, err)
	s, _ := out.Unmark()
	assert.Equal(t, "<b>|&lt;b&gt;", s.AsString())

	out, err = compile(t, "<%= v %>", erb.Options{Autoescape: true}).Execute(env.NewContext(env.New("page"), cty.NilVal), locals)
	require.NoError(t, err)
	s, _ = out.Unmark()
	assert.Equal(t, "&lt;b&gt;", s.AsString())
}

func TestExecute_CallsMethodsAndKeepsSafeOutput(t *testing.T) {
	e := env.New("page")
	inner := compile(t, "<i><%= this %></i>", erb.Options{})
	e.DefineMethod("em", func(rc *env.Context, args []cty.Value) (cty.Value, error) {
		rc.This = args[0]
		return inner.Execute(rc, nil)
	})

	out, err := compile(t, "<%== em(\"x\") %>", erb.Options{}).Execute(env.NewContext(e, cty.NilVal), nil)
	require.NoError(t, err)
	s, _ := out.Unmark()
	assert.Equal(t, "<i>x</i>", s.AsString())
}

func TestExecute_BlockPrint(t *testing.T) {
	e := env.New("page")
	e.DefineMethod("wrap", func(rc *env.Context, args []cty.Value) (cty.Value, error) {
		tag, _ := args[0].Unmark()
		body, _ := args[1].Unmark()
		return env.MarkSafe(cty.StringVal("<" + tag.AsString() + ">" + body.AsString() + "</" + tag.AsString() + ">")), nil
	})

	for _, src := range []string{
		`<%= wrap("em") do %>hi <%= name %><% end %>`,
		`<%= wrap("em")do %>hi <%= name %><% end %>`,
		`<%= wrap("em") { %>hi <%= name %><% } %>`,
	} {
		t.Run(src, func(t *testing.T) {
			got := render(t, e, src, map[string]cty.Value{"name": cty.StringVal("<you>")})
			assert.Equal(t, "<em>hi <you></em>", got)
		})
	}
}

func TestExecute_ReusesCallerBuffer(t *testing.T) {
	e := env.New("page")
	rc := env.NewContext(e, cty.NilVal)
	buf := env.NewBuffer()
	buf.SafeAppend("head:")
	rc.Buffer = buf

	out, err := compile(t, "body", erb.Options{}).Execute(rc, nil)
	require.NoError(t, err)
	s, _ := out.Unmark()
	assert.Equal(t, "head:body", s.AsString())
	assert.Nil(t, rc.Buffer, "the caller buffer is consumed by one preamble")
}

func TestExecute_LocalsAreNotModified(t *testing.T) {
	locals := map[string]cty.Value{"x": cty.StringVal("outer")}
	got := render(t, env.New("page"), "<% x = \"inner\" %><%= x %>", locals)
	assert.Equal(t, "inner", got)
	assert.Equal(t, "outer", locals["x"].AsString())
}

func TestExecute_RuntimeErrorLine(t *testing.T) {
	prog, err := erb.Transpile("line one\n<%= missing %>", erb.Options{})
	require.NoError(t, err)
	tpl, err := Compile(prog, "page.erb", 10)
	require.NoError(t, err)

	_, err = tpl.Execute(env.NewContext(env.New("page"), cty.NilVal), nil)
	var rtErr *RuntimeError
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, 11, rtErr.Line)
}

func TestExecute_CannotIterateScalar(t *testing.T) {
	tpl := compile(t, "<% for x in 3 %><% end %>", erb.Options{})
	_, err := tpl.Execute(env.NewContext(env.New("page"), cty.NilVal), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot iterate")
}

func TestCompile_SyntaxErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{name: "missing end", src: "a\n<% if x %>b", line: 2, msg: "never closed"},
		{name: "stray end", src: "<% end %>", line: 1, msg: `unexpected "end"`},
		{name: "else without if", src: "<% for x in y %><% else %><% end %>", line: 1, msg: "else without if"},
		{name: "mismatched closer", src: "<% y.each { |x| %>\n<% end %>", line: 2, msg: "expects"},
		{name: "bad expression", src: "<%= 1 + %>", line: 1, msg: ""},
		{name: "block params on print", src: "<%= wrap(\"em\") do |x| %><% end %>", line: 1, msg: "block parameters"},
		{name: "block print not a call", src: "<%= x { %><% } %>", line: 1, msg: "function call"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prog, err := erb.Transpile(tc.src, erb.Options{})
			require.NoError(t, err)
			_, err = Compile(prog, "page.erb", 1)
			var synErr *SyntaxError
			require.True(t, errors.As(err, &synErr), "got %v", err)
			assert.Equal(t, tc.line, synErr.Line)
			assert.Contains(t, synErr.Msg, tc.msg)
		})
	}
}

func TestCompileStatements(t *testing.T) {
	tpl, err := CompileStatements("@title = \"Docs\"\n@count = 2", "unit.hcl", 4)
	require.NoError(t, err)

	rc := env.NewContext(env.New("page"), cty.NilVal)
	require.NoError(t, tpl.Run(rc, nil))
	assert.Equal(t, "Docs", rc.Self["title"].AsString())
	assert.True(t, rc.Self["count"].Equals(cty.NumberIntVal(2)).True())

	_, err = CompileStatements("@x = 1\n@y = ", "unit.hcl", 4)
	var synErr *SyntaxError
	require.True(t, errors.As(err, &synErr))
	assert.Equal(t, 5, synErr.Line)
}

func TestTemplate_CalledFunctions(t *testing.T) {
	tpl := compile(t, `<%= card(upper(x)) %><% for v in list(y) %><%= h::escape(v) %><% end %><%= wrap("a") do %><% end %>`, erb.Options{})
	assert.Equal(t, []string{"card", "h::escape", "list", "upper", "wrap"}, tpl.CalledFunctions())
	assert.Equal(t, []string{"v", "x", "y"}, tpl.ReferencedNames())
}

func TestExecute_InterpolationIsNeverSafe(t *testing.T) {
	e := env.New("page")
	e.DefineMethod("raw", func(rc *env.Context, args []cty.Value) (cty.Value, error) {
		v, _ := args[0].Unmark()
		return env.MarkSafe(v), nil
	})

	got := render(t, e, `<%== raw("<i>") %>|<%== "${raw("<i>")}${v}" %>`, map[string]cty.Value{"v": cty.StringVal("<b>")})
	assert.Equal(t, "<i>|&lt;i&gt;&lt;b&gt;", got)
}
