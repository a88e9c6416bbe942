package core

import (
	"context"
	"strings"
	"testing"

	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindAll(t *testing.T, reserved []string, decls ...*model.Declaration) *BindingContext {
	t.Helper()
	bc := newContext(decls...)
	require.NoError(t, bc.Resolve(context.Background(), &stubClassifier{}, ResolveOptions{}))
	bc.Reserve(reserved...)
	require.NoError(t, NewBinder(stubResolver{}, nil).BindNames(bc))
	return bc
}

func TestBinder_BindNames(t *testing.T) {
	t.Run("default names", func(t *testing.T) {
		bc := bindAll(t, nil, variable("ns::a"), variable("ns::b"))
		assert.Equal(t, "ns_a", bc.NameOf("ns::a"))
		assert.Equal(t, "ns_b", bc.NameOf("ns::b"))
	})

	t.Run("overloads get signature names", func(t *testing.T) {
		bc := bindAll(t, nil, function("f", "int"), function("f", "double"), function("g", "int"))
		assert.Equal(t, "f_int", bc.NameOf("f(int)"))
		assert.Equal(t, "f_double", bc.NameOf("f(double)"))
		assert.Equal(t, "g", bc.NameOf("g(int)"))
	})

	t.Run("residual collisions are hashed", func(t *testing.T) {
		bc := bindAll(t, nil, variable("a::b"), variable("a_b"))
		first, second := bc.NameOf("a::b"), bc.NameOf("a_b")
		assert.NotEqual(t, first, second)
		assert.True(t, strings.HasPrefix(first, "a_b_"))
		assert.True(t, strings.HasPrefix(second, "a_b_"))
		assert.Equal(t, "a_b_"+identityHash("a::b")[:8], first)
	})

	t.Run("reserved names are never assigned", func(t *testing.T) {
		bc := bindAll(t, []string{"example_0"}, variable("example_0"))
		name := bc.NameOf("example_0")
		assert.NotEqual(t, "example_0", name)
		assert.Equal(t, "example_0_"+identityHash("example_0")[:8], name)
	})

	t.Run("names do not depend on ingestion order", func(t *testing.T) {
		forward := bindAll(t, nil, variable("a::b"), variable("a_b"), function("f", "int"), function("f", "long"))
		backward := bindAll(t, nil, function("f", "long"), function("f", "int"), variable("a_b"), variable("a::b"))
		for _, id := range forward.IDs() {
			assert.Equal(t, forward.NameOf(id), backward.NameOf(id), id)
		}
	})

	t.Run("skipped declarations are not named", func(t *testing.T) {
		bc := newContext(variable("x"))
		require.NoError(t, bc.Resolve(context.Background(), &stubClassifier{skip: map[string]bool{"x": true}}, ResolveOptions{}))
		require.NoError(t, NewBinder(stubResolver{}, nil).BindNames(bc))
		assert.Equal(t, "", bc.NameOf("x"))
	})
}

// fixedResolver 所有候选名都相同，冲突无法消解
type fixedResolver struct{ stubResolver }

func (fixedResolver) BindingName(*model.Declaration) string { return "same" }

func TestBinder_UnresolvableCollision(t *testing.T) {
	bc := newContext(variable("a"), variable("b"))
	require.NoError(t, bc.Resolve(context.Background(), &stubClassifier{}, ResolveOptions{}))
	bc.Reserve("same_" + identityHash("a")[:8])
	bc.Reserve("same_" + identityHash("a"))

	err := NewBinder(fixedResolver{}, nil).BindNames(bc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNameCollision))
	assert.True(t, errors.IsAssertionFailure(err))
	assert.Equal(t, "same_"+identityHash("b")[:8], bc.NameOf("b"))
}
