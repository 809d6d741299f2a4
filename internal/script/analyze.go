package script

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// CalledFunctions returns the sorted, de-duplicated names of every function
// the template calls.
func (t *Template) CalledFunctions() []string {
	seen := make(map[string]struct{})
	for _, expr := range t.exprs {
		hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
			if call, ok := n.(*hclsyntax.FunctionCallExpr); ok {
				seen[call.Name] = struct{}{}
			}
			return nil
		})
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ReferencedNames returns the sorted root names of every variable the
// template reads, excluding `self` and `this`.
func (t *Template) ReferencedNames() []string {
	seen := make(map[string]struct{})
	for _, expr := range t.exprs {
		for _, tr := range expr.Variables() {
			name := tr.RootName()
			if name == "self" || name == "this" {
				continue
			}
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
