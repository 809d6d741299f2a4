package taglib

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a reference matches no taglib file.
type NotFoundError struct {
	Ref      string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("taglib %q not found (searched %s)", e.Ref, strings.Join(e.Searched, ", "))
}

// CycleError is returned when taglibs include each other.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular taglib include: %s", strings.Join(e.Chain, " -> "))
}
