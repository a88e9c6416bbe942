package core

import (
	"context"
	"testing"

	"github.com/CodMac/cppbind/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(decls ...*model.Declaration) *BindingContext {
	bc := NewBindingContext(nil)
	for _, d := range decls {
		bc.AddDeclaration(d)
	}
	return bc
}

func verdictOf(t *testing.T, bc *BindingContext, id string) model.Verdict {
	t.Helper()
	v, ok := bc.Verdict(id)
	require.True(t, ok, "missing %s", id)
	return v
}

func TestBindingContext_AddDeclaration(t *testing.T) {
	bc := NewBindingContext(nil)
	assert.True(t, bc.AddDeclaration(variable("ns::b")))
	assert.True(t, bc.AddDeclaration(variable("ns::a")))
	assert.False(t, bc.AddDeclaration(variable("ns::a")), "same identity is collapsed")
	assert.Equal(t, []string{"ns::a", "ns::b"}, bc.IDs())

	// 未给出身份时由声明计算
	f := function("ns::f", "int")
	f.ID = ""
	assert.True(t, bc.AddDeclaration(f))
	_, ok := bc.Entry("ns::f(int)")
	assert.True(t, ok)

	invalid := &model.Declaration{ID: "ns::bad", Kind: model.Record, QualifiedName: "ns::bad", Enum: &model.EnumDecl{}}
	bc.AddDeclaration(invalid)
	v := verdictOf(t, bc, "ns::bad")
	assert.Equal(t, model.Skipped, v.State)
	assert.Equal(t, reasonInvalidModel, v.Reason)
}

func TestBindingContext_Resolve(t *testing.T) {
	t.Run("dependency chain resolves", func(t *testing.T) {
		bc := newContext(variable("a"), variable("b"), variable("c"))
		classifier := &stubClassifier{deps: map[string]string{"a": "b", "b": "c"}}
		require.NoError(t, bc.Resolve(context.Background(), classifier, ResolveOptions{}))

		for _, id := range []string{"a", "b", "c"} {
			assert.Equal(t, model.Bindable, verdictOf(t, bc, id).State, id)
		}
		edges := bc.Edges()
		require.Len(t, edges, 2)
		assert.Equal(t, "a", edges[0].From)
		assert.Equal(t, "b", edges[0].To)
		assert.Equal(t, "b", edges[1].From)
		assert.Equal(t, "c", edges[1].To)
	})

	t.Run("skipped dependency propagates with no edges", func(t *testing.T) {
		bc := newContext(variable("a"), variable("s"))
		classifier := &stubClassifier{deps: map[string]string{"a": "s"}, skip: map[string]bool{"s": true}}
		require.NoError(t, bc.Resolve(context.Background(), classifier, ResolveOptions{}))

		assert.Equal(t, model.Skipped, verdictOf(t, bc, "a").State)
		assert.Empty(t, bc.Edges())
		assert.Len(t, bc.Diagnostics(), 2)
	})

	t.Run("deferred cycle becomes unresolved", func(t *testing.T) {
		bc := newContext(variable("a"), variable("b"), variable("free"))
		classifier := &stubClassifier{deps: map[string]string{"a": "b", "b": "a"}}
		require.NoError(t, bc.Resolve(context.Background(), classifier, ResolveOptions{}))

		for _, id := range []string{"a", "b"} {
			v := verdictOf(t, bc, id)
			assert.Equal(t, model.Skipped, v.State)
			assert.Equal(t, reasonUnresolvedCycle, v.Reason)
		}
		assert.Equal(t, model.Bindable, verdictOf(t, bc, "free").State)
	})

	t.Run("iteration cap stops the worklist", func(t *testing.T) {
		bc := newContext(variable("a"), variable("b"), variable("c"), variable("d"))
		classifier := &stubClassifier{deps: map[string]string{"a": "b", "b": "c", "c": "d"}}
		require.NoError(t, bc.Resolve(context.Background(), classifier, ResolveOptions{IterationCap: 2}))

		assert.Equal(t, model.Bindable, verdictOf(t, bc, "d").State)
		assert.Equal(t, model.Bindable, verdictOf(t, bc, "c").State)
		assert.Equal(t, reasonUnresolvedCycle, verdictOf(t, bc, "b").Reason)
		assert.Equal(t, reasonUnresolvedCycle, verdictOf(t, bc, "a").Reason)
	})

	t.Run("classifier panic is contained", func(t *testing.T) {
		bc := newContext(variable("a"), variable("b"))
		classifier := &stubClassifier{panics: map[string]bool{"a": true}}
		require.NoError(t, bc.Resolve(context.Background(), classifier, ResolveOptions{}))

		v := verdictOf(t, bc, "a")
		assert.Equal(t, model.Skipped, v.State)
		assert.Contains(t, v.Reason, "internal classifier error")
		assert.Equal(t, model.Bindable, verdictOf(t, bc, "b").State)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		bc := newContext(variable("a"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := bc.Resolve(ctx, &stubClassifier{}, ResolveOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBindingContext_ResolveIsScheduleIndependent(t *testing.T) {
	build := func(order []string) *BindingContext {
		bc := NewBindingContext(nil)
		for _, id := range order {
			bc.AddDeclaration(variable(id))
		}
		return bc
	}
	classifier := &stubClassifier{
		deps: map[string]string{"a": "b", "b": "c", "x": "y", "y": "x", "m": "s"},
		skip: map[string]bool{"s": true},
	}

	var results []map[string]model.Verdict
	for i, order := range [][]string{
		{"a", "b", "c", "m", "s", "x", "y"},
		{"y", "x", "s", "m", "c", "b", "a"},
	} {
		bc := build(order)
		require.NoError(t, bc.Resolve(context.Background(), classifier, ResolveOptions{Workers: 1 + i*7}))
		verdicts := map[string]model.Verdict{}
		for _, id := range bc.IDs() {
			verdicts[id] = verdictOf(t, bc, id)
		}
		results = append(results, verdicts)
	}
	assert.Equal(t, results[0], results[1])
}

func TestBindingContext_SnapshotIsImmutable(t *testing.T) {
	bc := newContext(variable("a"))
	before := bc.Snapshot()
	require.NoError(t, bc.Resolve(context.Background(), &stubClassifier{}, ResolveOptions{}))

	_, ok := before.Verdict("a")
	assert.False(t, ok, "initial snapshot holds no verdicts")
	after := bc.Snapshot()
	assert.True(t, after.Final())
	v, _ := after.Verdict("a")
	assert.Equal(t, model.Bindable, v.State)
}

func TestBindingContext_Counts(t *testing.T) {
	bc := newContext(variable("a"), variable("s"))
	require.NoError(t, bc.Resolve(context.Background(), &stubClassifier{skip: map[string]bool{"s": true}}, ResolveOptions{}))
	counts := bc.Counts()
	assert.Equal(t, 1, counts[model.Bindable])
	assert.Equal(t, 1, counts[model.Skipped])
	assert.Len(t, bc.Bindable(), 1)
}
