package hcl

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tagforge/internal/config"
	"github.com/vk/tagforge/internal/ctxlog"
	"github.com/vk/tagforge/internal/fsutil"
	"github.com/vk/tagforge/internal/instr"
	"github.com/zclconf/go-cty/cty"
)

// File suffixes the loader recognises.
const (
	PageSuffix   = ".erb"
	UnitSuffix   = ".unit.hcl"
	TaglibSuffix = ".taglib.hcl"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL unit loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Discover walks paths and returns every page, unit and taglib file found.
func (l *Loader) Discover(ctx context.Context, paths ...string) ([]string, error) {
	files, err := fsutil.FindFilesBySuffix(paths, PageSuffix, UnitSuffix, TaglibSuffix)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Discovered unit files.", "count", len(files))
	return files, nil
}

// Load reads the unit at path. A `.erb` file becomes a unit with a single
// page instruction; any other file is parsed as an HCL unit file.
func (l *Loader) Load(ctx context.Context, path string) (*config.Unit, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	modTime, err := fsutil.ModTime(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat unit %s: %w", path, err)
	}

	if strings.HasSuffix(path, PageSuffix) {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %s: %w", path, err)
		}
		return &config.Unit{
			Path:         path,
			ModTime:      modTime,
			Instructions: []instr.Instruction{instr.RenderPage(string(src), 1)},
		}, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	content, diags := file.Body.Content(unitSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	if _, diags := FindUniqueBlock(content.Blocks, "page"); diags.HasErrors() {
		return nil, fmt.Errorf("invalid unit %s: %w", path, diags)
	}

	unit := &config.Unit{Path: path, ModTime: modTime}
	for _, block := range content.Blocks {
		in, depTime, err := l.translateBlock(path, file.Bytes, block)
		if err != nil {
			return nil, err
		}
		if depTime.After(unit.ModTime) {
			unit.ModTime = depTime
		}
		unit.Instructions = append(unit.Instructions, in)
	}

	logger.Debug("HCL loading complete.", "path", path, "instructions", len(unit.Instructions))
	return unit, nil
}

// translateBlock converts one unit block into a build instruction. The
// returned time is the modification time of a page file the block pulled
// in, zero otherwise.
func (l *Loader) translateBlock(path string, src []byte, block *hcl.Block) (instr.Instruction, time.Time, error) {
	fail := func(diags hcl.Diagnostics) (instr.Instruction, time.Time, error) {
		return instr.Instruction{}, time.Time{}, fmt.Errorf("failed to decode %q block in %s: %w", block.Type, path, diags)
	}

	switch block.Type {
	case "part", "page":
		var b templateBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return fail(diags)
		}
		body, line, depTime, err := l.templateSource(path, src, block, &b)
		if err != nil {
			return instr.Instruction{}, time.Time{}, err
		}
		if block.Type == "page" {
			return instr.RenderPage(body, line), depTime, nil
		}
		return instr.Definition(block.Labels[0], body, line), depTime, nil

	case "eval":
		var b evalBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return fail(diags)
		}
		body, line, err := stringAttr(src, b.Src)
		if err != nil {
			return instr.Instruction{}, time.Time{}, fmt.Errorf("%s: eval block: %w", path, err)
		}
		return instr.Eval(body, line), time.Time{}, nil

	case "include":
		var b includeBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return fail(diags)
		}
		return instr.Include(instr.Import{Ref: block.Labels[0], As: b.As}), time.Time{}, nil

	case "module":
		var b moduleBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return fail(diags)
		}
		return instr.ModuleImport(block.Labels[0], b.As), time.Time{}, nil

	case "alias":
		var b aliasBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return fail(diags)
		}
		return instr.AliasMethod(block.Labels[0], b.To), time.Time{}, nil
	}

	// unitSchema only admits the block types handled above.
	panic(fmt.Sprintf("unexpected block type %q", block.Type))
}

// templateSource returns the template text of a part or page block together
// with the line of path it starts on.
func (l *Loader) templateSource(path string, src []byte, block *hcl.Block, b *templateBlock) (string, int, time.Time, error) {
	hasSrc := !isNullExpr(b.Src)
	switch {
	case hasSrc && b.File != "":
		return "", 0, time.Time{}, fmt.Errorf("%s:%d: %s block sets both src and file", path, block.DefRange.Start.Line, block.Type)
	case hasSrc:
		body, line, err := stringAttr(src, b.Src)
		if err != nil {
			return "", 0, time.Time{}, fmt.Errorf("%s: %s block: %w", path, block.Type, err)
		}
		return body, line, time.Time{}, nil
	case b.File != "":
		file := b.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(filepath.Dir(path), file)
		}
		body, err := os.ReadFile(file)
		if err != nil {
			return "", 0, time.Time{}, fmt.Errorf("%s:%d: %w", path, block.DefRange.Start.Line, err)
		}
		modTime, err := fsutil.ModTime(file)
		if err != nil {
			return "", 0, time.Time{}, err
		}
		return string(body), 1, modTime, nil
	}
	return "", 0, time.Time{}, fmt.Errorf("%s:%d: %s block needs src or file", path, block.DefRange.Start.Line, block.Type)
}

func isNullExpr(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	v, diags := expr.Value(nil)
	return !diags.HasErrors() && v.IsNull()
}

// stringAttr evaluates a constant string attribute and returns it with the
// line its content starts on. Heredoc content starts on the line after the
// opening marker.
func stringAttr(src []byte, expr hcl.Expression) (string, int, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", 0, diags
	}
	if v.IsNull() || !v.IsKnown() || !v.Type().Equals(cty.String) {
		return "", 0, fmt.Errorf("line %d: src must be a string", expr.Range().Start.Line)
	}

	rng := expr.Range()
	line := rng.Start.Line
	if rng.Start.Byte < len(src) && bytes.HasPrefix(src[rng.Start.Byte:], []byte("<<")) {
		line++
	}
	return v.AsString(), line, nil
}
