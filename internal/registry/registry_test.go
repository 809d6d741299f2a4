package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tagforge/internal/ctxlog"
	"github.com/vk/tagforge/internal/env"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

func TestRegistry_LookupAndNames(t *testing.T) {
	r := New()
	r.RegisterCapability(env.NewCapabilitySet("text").Function("upcase", stdlib.UpperFunc))
	r.RegisterCapability(env.NewCapabilitySet("html"))

	cs, err := r.Lookup("text")
	require.NoError(t, err)
	assert.Contains(t, cs.Functions, "upcase")
	assert.Equal(t, []string{"html", "text"}, r.Names())

	_, err = r.Lookup("nope")
	var nfErr *NotFoundError
	require.True(t, errors.As(err, &nfErr))
	assert.Equal(t, "nope", nfErr.Name)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := New()
	r.RegisterCapability(env.NewCapabilitySet("text"))
	assert.Panics(t, func() { r.RegisterCapability(env.NewCapabilitySet("text")) })
}

func TestValidateRegistry(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	t.Run("valid", func(t *testing.T) {
		r := New()
		r.RegisterCapability(env.NewCapabilitySet("text").Function("upcase", stdlib.UpperFunc))
		require.NoError(t, r.ValidateRegistry(ctx))
	})

	t.Run("invalid names", func(t *testing.T) {
		r := New()
		r.RegisterCapability(env.NewCapabilitySet("bad-name?").Function("up case", stdlib.UpperFunc))
		err := r.ValidateRegistry(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "capability 'bad-name?'")
		assert.Contains(t, err.Error(), "'up case' is not a valid function name")
	})
}
