package builder

import (
	"errors"
	"fmt"

	"github.com/vk/tagforge/internal/erb"
	"github.com/vk/tagforge/internal/instr"
	"github.com/vk/tagforge/internal/script"
)

// DuplicatePartError is returned by AddPart when a part name is registered
// twice in one cycle.
type DuplicatePartError struct {
	Name string
	Path string
	Line int
}

func (e *DuplicatePartError) Error() string {
	return fmt.Sprintf("%s:%d: duplicate part %q", e.Path, e.Line, e.Name)
}

// CompilationError is a transpile, compile or build-time evaluation failure
// located in the unit's source file.
type CompilationError struct {
	Path string
	Line int
	Err  error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, message(e.Err))
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// message drops the line prefix of errors that CompilationError already
// locates.
func message(err error) string {
	var (
		erbErr *erb.SyntaxError
		synErr *script.SyntaxError
		rtErr  *script.RuntimeError
	)
	switch {
	case errors.As(err, &erbErr):
		return erbErr.Msg
	case errors.As(err, &synErr):
		return synErr.Msg
	case errors.As(err, &rtErr):
		return rtErr.Err.Error()
	}
	return err.Error()
}

// NotSupportedError reports a valid request the builder does not implement.
type NotSupportedError struct {
	Feature string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s is not supported", e.Feature)
}

// UnknownInstructionError is returned by Build for an instruction kind it
// cannot execute.
type UnknownInstructionError struct {
	Kind instr.Kind
	Path string
}

func (e *UnknownInstructionError) Error() string {
	return fmt.Sprintf("%s: unknown build instruction %s", e.Path, e.Kind)
}
