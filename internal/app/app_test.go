package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tagforge/internal/hcl"
	"github.com/vk/tagforge/internal/instr"
	"github.com/vk/tagforge/internal/testutil"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

func validConfig(path string) Config {
	return Config{TemplatePath: path, Workers: 2, LogLevel: "debug", LogFormat: "text"}
}

// newTestApp builds an App over the core modules that writes output to the
// first returned buffer and logs to the second.
func newTestApp(t *testing.T, cfg Config) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	c, err := NewConfig(cfg)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	return NewApp(out, logs, c, hcl.NewLoader(), hcl.NewConverter()), out, logs
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing path", mutate: func(c *Config) { c.TemplatePath = "" }, errMsg: "TemplatePath is a required"},
		{name: "emit and check", mutate: func(c *Config) { c.Emit, c.Check = true, true }, errMsg: "cannot be used together"},
		{name: "no workers", mutate: func(c *Config) { c.Workers = 0 }, errMsg: "workers must be at least 1"},
		{name: "bad import", mutate: func(c *Config) { c.AutoImports = []string{"=f"} }, errMsg: "empty taglib reference"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig("page.erb")
			tc.mutate(&cfg)
			got, err := NewConfig(cfg)
			if tc.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, cfg, *got)
		})
	}
}

func TestParseImport(t *testing.T) {
	testCases := []struct {
		in      string
		want    instr.Import
		wantErr bool
	}{
		{in: "forms", want: instr.Import{Ref: "forms"}},
		{in: "forms=f", want: instr.Import{Ref: "forms", As: "f"}},
		{in: "lib/forms.taglib.hcl=f", want: instr.Import{Ref: "lib/forms.taglib.hcl", As: "f"}},
		{in: "module:html", want: instr.Import{Module: "html"}},
		{in: "module:", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseImport(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApp_Render(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"vars.yaml": `
			title: Release notes
			items:
			  - fast
			  - safe
			count: 2
		`,
		"lib/ui.taglib.hcl": `
			module "text" {}
			part "item" {
			  src = "<li><%= upcase(args[0]) %></li>"
			}
		`,
		"page.unit.hcl": `
			module "text" {}
			module "html" {}
			page {
			  src = <<-EOT
			    <h1><%= title %></h1>
			    <ul><% for it in items %><%= ui::item(it) %><% end %></ul>
			    <%= pluralize(count, "item") %> by <%= author %>
			  EOT
			}
		`,
	})

	cfg := validConfig(filepath.Join(dir, "page.unit.hcl"))
	cfg.VarsPath = filepath.Join(dir, "vars.yaml")
	cfg.Locals = map[string]string{"author": "<ops>", "title": "Overridden"}
	cfg.AutoImports = []string{"module:text", "ui=ui"}
	cfg.TaglibPaths = []string{filepath.Join(dir, "lib")}
	cfg.Autoescape = true

	a, out, logs := newTestApp(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, "<h1>Overridden</h1>\n<ul><li>FAST</li><li>SAFE</li></ul>\n2 items by &lt;ops&gt;\n", out.String())
	assert.Contains(t, logs.String(), `msg="Unit built."`)
	assert.Contains(t, logs.String(), "build_id=")
}

func TestApp_Emit(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"card.unit.hcl": `
			include "forms" {
			  as = "f"
			}
			module "html" {}
			eval {
			  src = "@n = 1"
			}
			part "title" {
			  src = "<h1><%= args[0] %></h1>"
			}
			alias "heading" {
			  to = "title"
			}
			page {
			  src = "<%= title(x) %>"
			}
		`,
	})
	cfg := validConfig(filepath.Join(dir, "card.unit.hcl"))
	cfg.Emit = true

	a, out, _ := newTestApp(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"# include forms as f",
		"# module:html",
		"# eval (line 6)",
		"@n = 1",
		"# def title (line 9)",
		`_buf = output_buffer ?? new_buffer();_buf.safe_append("<h1>");_buf.append( args[0] );_buf.safe_append("</h1>");_buf.to_s`,
		"# alias_method heading title",
		"# render_page (line 15)",
		`_buf = output_buffer ?? new_buffer();_buf.append( title(x) );_buf.to_s`,
	}, lines)
}

func TestApp_Check(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"ok.erb":  "fine",
		"bad.erb": "<% end %>",
	})
	cfg := validConfig(dir)
	cfg.Check = true

	a, out, _ := newTestApp(t, cfg)
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check failed")
	assert.Equal(t,
		"FAIL "+filepath.Join(dir, "bad.erb")+"\nok   "+filepath.Join(dir, "ok.erb")+"\n",
		out.String())
}

func TestApp_RenderErrors(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"page.erb":  "<%= missing_fn() %>",
		"vars.toml": "",
	})

	t.Run("unsupported vars", func(t *testing.T) {
		cfg := validConfig(filepath.Join(dir, "page.erb"))
		cfg.VarsPath = filepath.Join(dir, "vars.toml")
		a, _, _ := newTestApp(t, cfg)
		err := a.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load variables")
	})

	t.Run("unknown function", func(t *testing.T) {
		a, _, logs := newTestApp(t, validConfig(filepath.Join(dir, "page.erb")))
		err := a.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, logs.String(), "Template calls an unknown function.")
	})
}

func TestNewApp_InvalidModulePanics(t *testing.T) {
	cfg, err := NewConfig(validConfig("page.erb"))
	require.NoError(t, err)

	bad := &testutil.SimpleModule{
		Name:      "broken",
		Functions: map[string]function.Function{"not valid": stdlib.UpperFunc},
	}
	assert.PanicsWithError(t, "registry validation failed:\n- capability 'broken': 'not valid' is not a valid function name", func() {
		NewApp(&bytes.Buffer{}, &bytes.Buffer{}, cfg, hcl.NewLoader(), hcl.NewConverter(), bad)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
