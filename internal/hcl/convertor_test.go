package hcl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestConverter_LoadVars(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"vars.hcl":  "name = \"Ann\"\ntags = [\"a\", \"b\"]\nuser = { admin = true }\n",
		"vars.json": `{"name": "Ann", "tags": ["a", "b"], "user": {"admin": true}}`,
		"vars.yaml": "name: Ann\ntags: [a, b]\nuser:\n  admin: true\n",
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			vars, err := NewConverter().LoadVars(testCtx(), writeFile(t, dir, name, content))
			require.NoError(t, err)
			require.Len(t, vars, 3)

			assert.Equal(t, "Ann", vars["name"].AsString())
			assert.Equal(t, 2, vars["tags"].LengthInt())
			assert.True(t, vars["user"].GetAttr("admin").True())
		})
	}
}

func TestConverter_LoadVarsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewConverter().LoadVars(testCtx(), writeFile(t, dir, "vars.toml", "a = 1"))
	assert.ErrorContains(t, err, "unknown extension")

	_, err = NewConverter().LoadVars(testCtx(), writeFile(t, dir, "list.json", `[1, 2]`))
	assert.ErrorContains(t, err, "must contain an object")

	_, err = NewConverter().LoadVars(testCtx(), writeFile(t, dir, "bad.yaml", "a: [1"))
	assert.ErrorContains(t, err, "failed to decode YAML")

	vars, err := NewConverter().LoadVars(testCtx(), writeFile(t, dir, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestConverter_ToCtyValue(t *testing.T) {
	c := NewConverter()

	v, err := c.ToCtyValue("x")
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("x"), v)

	v, err = c.ToCtyValue(map[string]any{"n": 1, "s": "x"})
	require.NoError(t, err)
	assert.True(t, v.Type().IsObjectType())
	assert.Equal(t, "x", v.GetAttr("s").AsString())

	v, err = c.ToCtyValue(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}
