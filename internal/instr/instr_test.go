package instr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	testCases := []struct {
		kind Kind
		want string
	}{
		{KindEval, "eval"},
		{KindDefinition, "def"},
		{KindRenderPage, "render_page"},
		{KindInclude, "include"},
		{KindModule, "module"},
		{KindAliasMethod, "alias_method"},
		{Kind(0), "kind(0)"},
		{Kind(42), "kind(42)"},
	}
	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.kind.String())
		})
	}
}

func TestImport_String(t *testing.T) {
	assert.Equal(t, "forms", Import{Ref: "forms"}.String())
	assert.Equal(t, "forms as f", Import{Ref: "forms", As: "f"}.String())
	assert.Equal(t, "module:html", Import{Ref: "ignored", Module: "html"}.String())
}

func TestConstructors(t *testing.T) {
	d := Definition("card", "<b>", 3)
	assert.Equal(t, KindDefinition, d.Kind)
	assert.Equal(t, Params{Name: "card", Src: "<b>", Line: 3}, d.Params)

	m := ModuleImport("html", "h")
	assert.Equal(t, KindModule, m.Kind)
	assert.Equal(t, "html", m.Name)
	assert.Equal(t, Import{Module: "html", As: "h"}, m.Import)

	a := AliasMethod("panel", "card")
	assert.Equal(t, "panel", a.New)
	assert.Equal(t, "card", a.Old)
}
