package config

import (
	"time"

	"github.com/vk/tagforge/internal/instr"
)

// Unit is the format-agnostic representation of one template unit.
type Unit struct {
	// Path is the file the unit was loaded from.
	Path string
	// ModTime is the newest modification time of the files the unit was
	// assembled from.
	ModTime time.Time
	// Instructions are the unit's build instructions in source order.
	Instructions []instr.Instruction
}

// Parts returns the names of the unit's part definitions, in order.
func (u *Unit) Parts() []string {
	var names []string
	for _, in := range u.Instructions {
		if in.Kind == instr.KindDefinition {
			names = append(names, in.Name)
		}
	}
	return names
}

// HasPage reports whether the unit defines a page body.
func (u *Unit) HasPage() bool {
	for _, in := range u.Instructions {
		if in.Kind == instr.KindRenderPage {
			return true
		}
	}
	return false
}
