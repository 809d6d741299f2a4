package builder

import (
	"slices"

	"github.com/vk/tagforge/internal/config"
	"github.com/vk/tagforge/internal/instr"
)

// Start begins a build cycle, discarding the instructions and part names of
// the previous one. The freshness record is kept.
func (b *Builder) Start() {
	b.instructions = nil
	b.parts = make(map[string]struct{})
}

// AddBuildInstruction queues an instruction of the given kind.
func (b *Builder) AddBuildInstruction(kind instr.Kind, params instr.Params) {
	b.Append(instr.Instruction{Kind: kind, Params: params})
}

// AddPart queues the definition of a named part. Part names are unique
// within a cycle.
func (b *Builder) AddPart(name, src string, line int) error {
	if b.parts == nil {
		b.parts = make(map[string]struct{})
	}
	if _, ok := b.parts[name]; ok {
		return &DuplicatePartError{Name: name, Path: b.path, Line: line}
	}
	b.parts[name] = struct{}{}
	b.Append(instr.Definition(name, src, line))
	return nil
}

// Append queues a fully formed instruction.
func (b *Builder) Append(in instr.Instruction) {
	b.instructions = append(b.instructions, in)
}

// Instructions returns a copy of the queued instructions.
func (b *Builder) Instructions() []instr.Instruction {
	return slices.Clone(b.instructions)
}

// AddUnit queues every instruction of a loaded unit in order. Part
// definitions go through AddPart, so duplicate names are rejected.
func (b *Builder) AddUnit(unit *config.Unit) error {
	for _, in := range unit.Instructions {
		if in.Kind == instr.KindDefinition {
			if err := b.AddPart(in.Name, in.Src, in.Line); err != nil {
				return err
			}
			continue
		}
		b.Append(in)
	}
	return nil
}
