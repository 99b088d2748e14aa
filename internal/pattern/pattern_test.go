package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spruceid/treeldr-sub002/internal/rdf"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

func TestPatternApply(t *testing.T) {
	scope := ScopeFromResources([]rdf.Resource{10, 11})
	sub := NewSubstitution(2)
	require.True(t, sub.Set(0, value.Of(12)))
	ms := NewMatchingScope(scope, sub)

	assert.Equal(t, value.Of(5), Resource(5).Apply(ms))
	assert.Equal(t, value.Of(11), Var(1).Apply(ms), "scope indices come first")
	assert.Equal(t, value.Of(12), Var(2).Apply(ms), "then substitution slots")
	assert.Nil(t, Var(3).Apply(ms), "unbound slot")

	r, err := Var(2).ApplyResource(ms)
	require.NoError(t, err)
	assert.Equal(t, rdf.Resource(12), r)

	_, err = Var(3).ApplyResource(ms)
	assert.Error(t, err)
}

func TestPatternString(t *testing.T) {
	assert.Equal(t, "?3", Var(3).String())
	assert.Equal(t, "#4", Resource(4).String())
	assert.Equal(t, "(?0 #1 ?2)", NewQuad(Var(0), Resource(1), Var(2)).String())
	assert.Equal(t, "(?0 #1 ?2 ?3)", NewQuad(Var(0), Resource(1), Var(2)).InGraph(Var(3)).String())
}

func TestSubstitutionFirstBindWins(t *testing.T) {
	var sub Substitution
	start := sub.Intro(2)
	assert.Equal(t, uint32(0), start)
	assert.Equal(t, uint32(2), sub.Intro(1))
	assert.Equal(t, 3, sub.Len())

	assert.True(t, sub.Set(0, value.Of(1)))
	assert.True(t, sub.Set(0, value.Of(1)), "same value is accepted")
	assert.False(t, sub.Set(0, value.Of(2)), "different value is rejected")
	assert.Equal(t, value.Of(1), sub.Get(0))
	assert.False(t, sub.Set(9, value.Of(1)), "out of range")

	_, err := sub.IntoTotal()
	assert.Error(t, err, "slots 1 and 2 are unbound")

	require.True(t, sub.Set(1, value.TextString("x")))
	assert.Equal(t, uint32(2), sub.Push(value.Of(3))-1)
	require.True(t, sub.Set(2, value.Of(4)))
	vals, err := sub.IntoTotal()
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Of(1), value.TextString("x"), value.Of(4), value.Of(3)}, vals)
}

func TestSubstitutionCloneIsIndependent(t *testing.T) {
	sub := NewSubstitution(1)
	clone := sub.Clone()
	require.True(t, clone.Set(0, value.Of(1)))
	assert.Nil(t, sub.Get(0))
}

func TestAssignWith(t *testing.T) {
	ms := NewMatchingScope(ScopeFromResources([]rdf.Resource{7}), NewSubstitution(1))

	_, ok := ms.AssignWith(0, func() value.Value { return value.Of(7) })
	assert.True(t, ok, "scope value equal")

	rejected, ok := ms.AssignWith(0, func() value.Value { return value.Of(8) })
	assert.False(t, ok, "scope value differs")
	assert.Equal(t, value.Of(8), rejected)

	_, ok = ms.AssignWith(1, func() value.Value { return value.Of(9) })
	assert.True(t, ok, "unbound slot gets bound")
	assert.Equal(t, value.Of(9), ms.Get(1))

	_, ok = ms.AssignWith(1, func() value.Value { return value.Of(10) })
	assert.False(t, ok)

	_, ok = ms.AssignWith(2, func() value.Value { return value.Of(10) })
	assert.False(t, ok, "out of range")
}

func TestWithQuad(t *testing.T) {
	const (
		s rdf.Resource = iota + 1
		p
		o
		g
	)
	base := NewMatchingScope(ScopeFromResources([]rdf.Resource{s}), NewSubstitution(2))

	t.Run("binds variables and leaves receiver untouched", func(t *testing.T) {
		pq := NewQuad(Var(0), Resource(p), Var(1))
		next, ok := base.WithQuad(pq, rdf.Quad{Subject: s, Predicate: p, Object: o}, rdf.NoResource)
		require.True(t, ok)
		assert.Equal(t, value.Of(o), next.Get(1))
		assert.Nil(t, base.Get(1))
	})

	t.Run("scope mismatch", func(t *testing.T) {
		pq := NewQuad(Var(0), Resource(p), Var(1))
		_, ok := base.WithQuad(pq, rdf.Quad{Subject: o, Predicate: p, Object: o}, rdf.NoResource)
		assert.False(t, ok)
	})

	t.Run("repeated variable must agree", func(t *testing.T) {
		pq := NewQuad(Var(1), Resource(p), Var(1))
		_, ok := base.WithQuad(pq, rdf.Quad{Subject: s, Predicate: p, Object: o}, rdf.NoResource)
		assert.False(t, ok)
		_, ok = base.WithQuad(pq, rdf.Quad{Subject: o, Predicate: p, Object: o}, rdf.NoResource)
		assert.True(t, ok)
	})

	t.Run("current graph", func(t *testing.T) {
		pq := NewQuad(Var(0), Resource(p), Var(1))
		_, ok := base.WithQuad(pq, rdf.Quad{Subject: s, Predicate: p, Object: o, Graph: g}, rdf.NoResource)
		assert.False(t, ok, "quad of a named graph while matching the default graph")
		_, ok = base.WithQuad(pq, rdf.Quad{Subject: s, Predicate: p, Object: o, Graph: g}, g)
		assert.True(t, ok)
	})

	t.Run("graph variable", func(t *testing.T) {
		pq := NewQuad(Var(0), Resource(p), Resource(o)).InGraph(Var(2))
		next, ok := base.WithQuad(pq, rdf.Quad{Subject: s, Predicate: p, Object: o, Graph: g}, rdf.NoResource)
		require.True(t, ok)
		assert.Equal(t, value.Of(g), next.Get(2))

		_, ok = base.WithQuad(pq, rdf.Quad{Subject: s, Predicate: p, Object: o}, rdf.NoResource)
		assert.False(t, ok, "default graph cannot bind a variable")
	})
}

func TestResolve(t *testing.T) {
	ms := NewMatchingScope(ScopeFromResources([]rdf.Resource{1}), NewSubstitution(1))
	qp := ms.Resolve(NewQuad(Var(0), Resource(2), Var(1)), rdf.NoResource)

	require.NotNil(t, qp.Subject)
	assert.Equal(t, rdf.Resource(1), *qp.Subject)
	require.NotNil(t, qp.Predicate)
	assert.Equal(t, rdf.Resource(2), *qp.Predicate)
	assert.Nil(t, qp.Object)
	assert.Equal(t, rdf.GraphDefault, qp.Graph.Mode)

	qp = ms.Resolve(NewQuad(Var(0), Resource(2), Var(1)).InGraph(Var(1)), rdf.NoResource)
	assert.Equal(t, rdf.GraphAny, qp.Graph.Mode)
}

func TestScopeExtendCopies(t *testing.T) {
	base := make(Scope, 1, 4)
	base[0] = value.Of(1)
	a := base.Extend(value.Of(2))
	b := base.Extend(value.Of(3))
	assert.Equal(t, value.Of(2), a[1])
	assert.Equal(t, value.Of(3), b[1])
	assert.Len(t, base, 1)
}
