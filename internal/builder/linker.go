package builder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/tagforge/internal/ctxlog"
	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/instr"
)

// importTaglib links a taglib reference into dst. An import that names a
// registered module is linked as that module.
func (b *Builder) importTaglib(ctx context.Context, dst *env.Environment, imp instr.Import) error {
	if imp.Module != "" {
		return b.importModule(ctx, dst, imp.Module, imp.As)
	}
	if b.provider == nil {
		return fmt.Errorf("%s: no taglib provider configured to resolve %q", b.path, imp.Ref)
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Linker: resolving taglib.", "ref", imp.Ref, "as", imp.As)

	importers, err := b.provider.Resolve(ctx, ResolveOptions{
		Ref:            imp.Ref,
		TemplateDir:    filepath.Dir(b.path),
		SourceTemplate: b.path,
		As:             imp.As,
	})
	if err != nil {
		return fmt.Errorf("resolving taglib %q: %w", imp.Ref, err)
	}
	for _, importer := range importers {
		if err := importer.ImportInto(ctx, dst, imp.As); err != nil {
			return fmt.Errorf("importing taglib %q: %w", imp.Ref, err)
		}
	}
	logger.Debug("Linker: taglib imported.", "ref", imp.Ref, "importers", len(importers))
	return nil
}

// importModule mixes the registered capability set name into dst.
func (b *Builder) importModule(ctx context.Context, dst *env.Environment, name, as string) error {
	if as != "" {
		return &NotSupportedError{Feature: fmt.Sprintf("importing module %q under a prefix", name)}
	}
	if b.registry == nil {
		return fmt.Errorf("%s: no capability registry configured to resolve module %q", b.path, name)
	}
	cs, err := b.registry.Lookup(name)
	if err != nil {
		return err
	}
	dst.MixIn(cs)
	ctxlog.FromContext(ctx).Debug("Linker: module mixed in.", "module", name)
	return nil
}
