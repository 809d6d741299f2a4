package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tagforge/internal/ctxlog"
	"github.com/vk/tagforge/internal/instr"
)

func testCtx() context.Context {
	return ctxlog.Discard(context.Background())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_UnitFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "card.unit.hcl", `include "forms" {
  as = "f"
}
module "html" {}
eval {
  src = "@title = \"Docs\""
}
part "card" {
  src = <<-EOT
    <div><%= args[0] %></div>
  EOT
}
alias "panel" {
  to = "card"
}
page {
  src = "<%= panel(@title) %>"
}
`)

	unit, err := NewLoader().Load(testCtx(), path)
	require.NoError(t, err)
	assert.Equal(t, path, unit.Path)
	assert.False(t, unit.ModTime.IsZero())

	want := []instr.Instruction{
		instr.Include(instr.Import{Ref: "forms", As: "f"}),
		instr.ModuleImport("html", ""),
		instr.Eval(`@title = "Docs"`, 6),
		instr.Definition("card", "<div><%= args[0] %></div>\n", 10),
		instr.AliasMethod("panel", "card"),
		instr.RenderPage("<%= panel(@title) %>", 17),
	}
	if diff := cmp.Diff(want, unit.Instructions); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"card"}, unit.Parts())
	assert.True(t, unit.HasPage())
}

func TestLoader_PageFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "views/index.erb", "Hello <%= name %>\n")
	path := writeFile(t, dir, "views/index.unit.hcl", `page {
  file = "index.erb"
}
`)
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "views/index.erb"), later, later))

	unit, err := NewLoader().Load(testCtx(), path)
	require.NoError(t, err)
	require.Len(t, unit.Instructions, 1)
	assert.Equal(t, instr.RenderPage("Hello <%= name %>\n", 1), unit.Instructions[0])
	assert.False(t, unit.ModTime.Before(later.Add(-time.Second)), "a page file newer than the unit makes the unit newer")
}

func TestLoader_BareErb(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hello.erb", "Hi <%= name %>")

	unit, err := NewLoader().Load(testCtx(), path)
	require.NoError(t, err)
	assert.Equal(t, []instr.Instruction{instr.RenderPage("Hi <%= name %>", 1)}, unit.Instructions)
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		msg     string
	}{
		{name: "syntax", content: `part "x" {`, msg: "failed to parse"},
		{name: "unknown block", content: `widget "x" {}`, msg: "failed to decode"},
		{name: "two pages", content: "page {\n src = \"a\"\n}\npage {\n src = \"b\"\n}\n", msg: "Duplicate \"page\" block"},
		{name: "src and file", content: "page {\n src = \"a\"\n file = \"b.erb\"\n}\n", msg: "both src and file"},
		{name: "no source", content: "part \"x\" {}\n", msg: "needs src or file"},
		{name: "non-string src", content: "part \"x\" {\n src = 3\n}\n", msg: "src must be a string"},
		{name: "interpolation", content: "part \"x\" {\n src = \"${nope}\"\n}\n", msg: "part block"},
		{name: "alias without target", content: "alias \"x\" {}\n", msg: "failed to decode \"alias\" block"},
		{name: "missing page file", content: "page {\n file = \"gone.erb\"\n}\n", msg: "gone.erb"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.unit.hcl", tc.content)
			_, err := NewLoader().Load(testCtx(), path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestLoader_Discover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.erb", "")
	writeFile(t, dir, "lib/forms.taglib.hcl", "")
	writeFile(t, dir, "b.unit.hcl", "")
	writeFile(t, dir, "vars.hcl", "")

	files, err := NewLoader().Discover(testCtx(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.erb"),
		filepath.Join(dir, "b.unit.hcl"),
		filepath.Join(dir, "lib/forms.taglib.hcl"),
	}, files)
}
