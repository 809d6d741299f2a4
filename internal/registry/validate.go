package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/tagforge/internal/ctxlog"
)

// ValidateRegistry checks that every registered capability and every name it
// exports can be referenced from a template expression.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, capName := range r.Names() {
		cs := r.capabilities[capName]
		if !hclsyntax.ValidIdentifier(capName) {
			errs = append(errs, fmt.Sprintf("capability '%s': name is not a valid identifier", capName))
		}

		names := make([]string, 0, len(cs.Functions)+len(cs.Methods))
		for name := range cs.Functions {
			names = append(names, name)
		}
		for name := range cs.Methods {
			if _, dup := cs.Functions[name]; dup {
				errs = append(errs, fmt.Sprintf("capability '%s': '%s' is both a function and a method", capName, name))
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)

		if len(names) == 0 {
			logger.Warn("Capability exports nothing.", "capability", capName)
		}
		for _, name := range names {
			if !hclsyntax.ValidIdentifier(name) {
				errs = append(errs, fmt.Sprintf("capability '%s': '%s' is not a valid function name", capName, name))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
