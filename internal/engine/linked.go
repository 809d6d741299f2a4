package engine

import (
	"context"

	"github.com/vk/tagforge/internal/builder"
)

// staler is implemented by importers that know when their source changed.
type staler interface {
	Stale() bool
}

// recordingProvider remembers the importers a unit's last build linked, so
// the unit can be rebuilt when one of them goes stale.
type recordingProvider struct {
	builder.Provider
	imported []builder.Importer
}

func (p *recordingProvider) Resolve(ctx context.Context, opts builder.ResolveOptions) ([]builder.Importer, error) {
	imps, err := p.Provider.Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	p.imported = append(p.imported, imps...)
	return imps, nil
}

func (p *recordingProvider) reset() {
	p.imported = nil
}

func (p *recordingProvider) stale() bool {
	for _, imp := range p.imported {
		if s, ok := imp.(staler); ok && s.Stale() {
			return true
		}
	}
	return false
}
