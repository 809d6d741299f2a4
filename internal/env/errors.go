package env

import "fmt"

// MissingAliasTargetError is returned by AliasMethod when the method to be
// aliased has not been defined.
type MissingAliasTargetError struct {
	New string
	Old string
}

func (e *MissingAliasTargetError) Error() string {
	return fmt.Sprintf("cannot alias %q to undefined method %q", e.New, e.Old)
}
