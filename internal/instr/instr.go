// Package instr defines the build instructions consumed by the builder. An
// instruction is a tagged record: the Kind selects which fields of Params are
// meaningful. Instructions are plain values, so once a copy is stored in an
// accumulator it cannot be changed by the producer.
package instr

import "fmt"

// Kind identifies the type of a build instruction.
type Kind int

const (
	// KindEval executes raw host statements against the compilation target.
	KindEval Kind = iota + 1
	// KindDefinition compiles a named template part into a method.
	KindDefinition
	// KindRenderPage compiles the page body into the render_page entry point.
	KindRenderPage
	// KindInclude imports an external taglib (or a module by name).
	KindInclude
	// KindModule mixes a registered capability set into the target.
	KindModule
	// KindAliasMethod gives an existing method a second name.
	KindAliasMethod
)

var kindNames = map[Kind]string{
	KindEval:        "eval",
	KindDefinition:  "def",
	KindRenderPage:  "render_page",
	KindInclude:     "include",
	KindModule:      "module",
	KindAliasMethod: "alias_method",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Import describes a request to link an external instruction source.
type Import struct {
	// Ref is a taglib name or a path relative to the importing template.
	Ref string
	// Module, when set, names an already-resolved capability set in the
	// registry and takes precedence over Ref.
	Module string
	// As is the optional alias the imported names are placed under.
	As string
}

func (i Import) String() string {
	target := i.Ref
	if i.Module != "" {
		target = "module:" + i.Module
	}
	if i.As != "" {
		return target + " as " + i.As
	}
	return target
}

// Params holds the optional fields of every instruction kind.
type Params struct {
	Name   string // part name for definitions, capability name for modules
	Src    string
	Line   int
	Import Import
	New    string
	Old    string
}

// Instruction is a single build instruction.
type Instruction struct {
	Kind Kind
	Params
}

// Definition returns a named part definition.
func Definition(name, src string, line int) Instruction {
	return Instruction{Kind: KindDefinition, Params: Params{Name: name, Src: src, Line: line}}
}

// RenderPage returns the page-level body instruction.
func RenderPage(src string, line int) Instruction {
	return Instruction{Kind: KindRenderPage, Params: Params{Src: src, Line: line}}
}

// Eval returns a raw host-source instruction.
func Eval(src string, line int) Instruction {
	return Instruction{Kind: KindEval, Params: Params{Src: src, Line: line}}
}

// Include returns a taglib import instruction.
func Include(imp Import) Instruction {
	return Instruction{Kind: KindInclude, Params: Params{Import: imp}}
}

// ModuleImport returns a capability mix-in instruction.
func ModuleImport(name, as string) Instruction {
	return Instruction{Kind: KindModule, Params: Params{Name: name, Import: Import{Module: name, As: as}}}
}

// AliasMethod returns an alias instruction.
func AliasMethod(newName, oldName string) Instruction {
	return Instruction{Kind: KindAliasMethod, Params: Params{New: newName, Old: oldName}}
}
