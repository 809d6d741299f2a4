package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// CountBuilds returns how many times the log output records a completed
// build of the unit at path.
func CountBuilds(logs, path string) int {
	n := 0
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, `msg="Unit built."`) && strings.Contains(line, "unit="+path+" ") {
			n++
		}
	}
	return n
}

// AssertBuilds checks that the unit at path was built exactly want times.
func AssertBuilds(t *testing.T, logs *SafeBuffer, path string, want int) {
	t.Helper()

	got := CountBuilds(logs.String(), path)
	require.Equal(t, want, got, "unexpected number of builds for %s", path)
}
