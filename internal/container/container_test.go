package container

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVariableRoundTrip(t *testing.T) {
	c := New()

	data := Floats([]float64{1.5, 2.5, 3.5})
	meta := map[string]any{"units": "nT", "fill": -9999.0}

	_, err := c.SetVariable("imf/bx", data, meta)
	require.NoError(t, err)

	node, err := c.Get("imf/bx")
	require.NoError(t, err)

	assert.Equal(t, KindVariable, node.Kind())
	assert.Equal(t, "imf/bx", node.Path())

	got, ok := node.Data()
	require.True(t, ok)
	vals, ok := got.Float64s()
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, vals)
	assert.Equal(t, []int{3}, got.Shape())

	units, ok := node.Meta("units")
	require.True(t, ok)
	assert.Equal(t, "nT", units)
}

func TestSetVariableCreatesParents(t *testing.T) {
	c := New()

	_, err := c.SetVariable("a/b/c", Floats([]float64{1}), nil)
	require.NoError(t, err)

	g, err := c.Get("a/b")
	require.NoError(t, err)
	assert.True(t, g.IsGroup())
}

func TestGroupVariableExclusivity(t *testing.T) {
	t.Run("variable prefix blocks deeper paths", func(t *testing.T) {
		c := New()
		_, err := c.SetVariable("a/b", Floats([]float64{1}), nil)
		require.NoError(t, err)

		_, err = c.SetVariable("a/b/c", Floats([]float64{2}), nil)
		assert.ErrorIs(t, err, ErrConflict)

		_, err = c.CreateGroup("a/b/c")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("group cannot become a variable", func(t *testing.T) {
		c := New()
		_, err := c.CreateGroup("g")
		require.NoError(t, err)

		_, err = c.SetVariable("g", Floats([]float64{1}), nil)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("no node has both children and data", func(t *testing.T) {
		c := New()
		_, err := c.SetVariable("x/y", Ints([]int64{1, 2}), nil)
		require.NoError(t, err)
		_, err = c.CreateGroup("x/z")
		require.NoError(t, err)

		for _, n := range append(c.Root().Children(), mustGet(t, c, "x").Children()...) {
			_, hasData := n.Data()
			hasChildren := len(n.Children()) > 0
			assert.False(t, hasData && hasChildren, "node %q is both group and variable", n.Path())
		}
	})
}

func TestGetNotFound(t *testing.T) {
	c := New()

	_, err := c.Get("x")
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.SetMetadata("x", "k", "v")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateGroupIdempotent(t *testing.T) {
	c := New()

	g1, err := c.CreateGroup("a/b")
	require.NoError(t, err)
	g2, err := c.CreateGroup("a/b")
	require.NoError(t, err)
	assert.Same(t, g1, g2)
}

func TestMetadataOverwrite(t *testing.T) {
	c := New()
	_, err := c.SetVariable("v", Floats([]float64{0}), map[string]any{"units": "km/s"})
	require.NoError(t, err)

	require.NoError(t, c.SetMetadata("v", "units", "m/s"))

	node := mustGet(t, c, "v")
	units, _ := node.Meta("units")
	assert.Equal(t, "m/s", units)
	assert.Equal(t, 1, node.MetaLen())
}

func TestGlobalMetadata(t *testing.T) {
	c := New()
	require.NoError(t, c.SetMetadata("", "source", "omni2"))

	v, ok := c.Root().Meta("source")
	require.True(t, ok)
	assert.Equal(t, "omni2", v)
}

func TestVariableReplacedWholesale(t *testing.T) {
	c := New()
	_, err := c.SetVariable("v", Floats([]float64{1}), map[string]any{"old": true})
	require.NoError(t, err)
	_, err = c.SetVariable("v", Ints([]int64{7, 8}), map[string]any{"new": true})
	require.NoError(t, err)

	node := mustGet(t, c, "v")
	_, hasOld := node.Meta("old")
	assert.False(t, hasOld)

	data, _ := node.Data()
	vals, ok := data.Int64s()
	require.True(t, ok)
	assert.Equal(t, []int64{7, 8}, vals)
}

func TestWalkDeterministic(t *testing.T) {
	c := New()
	_, err := c.SetVariable("imf/bx", Floats([]float64{1}), nil)
	require.NoError(t, err)
	_, err = c.SetVariable("imf/by", Floats([]float64{2}), nil)
	require.NoError(t, err)
	_, err = c.CreateGroup("indices")
	require.NoError(t, err)
	_, err = c.SetVariable("indices/kp", Floats([]float64{3}), nil)
	require.NoError(t, err)

	collect := func() []string {
		var paths []string
		for p := range c.Walk() {
			paths = append(paths, p)
		}
		return paths
	}

	first := collect()
	second := collect()

	// Pre-order, insertion order among siblings.
	assert.Equal(t, []string{"imf", "imf/bx", "imf/by", "indices", "indices/kp"}, first)
	assert.Equal(t, first, second)
}

func TestWalkEarlyStop(t *testing.T) {
	c := New()
	for _, name := range []string{"a", "b", "c"} {
		_, err := c.SetVariable(name, Floats([]float64{1}), nil)
		require.NoError(t, err)
	}

	n := 0
	for range c.Walk() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestRemove(t *testing.T) {
	c := New()
	_, err := c.SetVariable("g/v", Floats([]float64{1}), nil)
	require.NoError(t, err)

	require.NoError(t, c.Remove("g/v"))
	_, err = c.Get("g/v")
	assert.ErrorIs(t, err, ErrNotFound)

	// Parent survives and is empty.
	g := mustGet(t, c, "g")
	assert.Empty(t, g.Children())

	err = c.Remove("")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBadPaths(t *testing.T) {
	c := New()
	_, err := c.SetVariable("a//b", Floats([]float64{1}), nil)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestNewArrayShape(t *testing.T) {
	a, err := NewArray([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.Equal(t, 6, a.Len())
	assert.Equal(t, "float64", a.DType())

	_, err = NewArray([]float64{1, 2, 3}, 2, 2)
	assert.Error(t, err)

	_, err = NewArray(42)
	assert.Error(t, err)
}

func TestAsFloat64s(t *testing.T) {
	a := Ints([]int64{1, 2, 3})
	f, ok := a.AsFloat64s()
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, f)

	s := Strings([]string{"x"})
	_, ok = s.AsFloat64s()
	assert.False(t, ok)
}

func mustGet(t *testing.T, c *Container, path string) *Node {
	t.Helper()
	n, err := c.Get(path)
	require.NoError(t, err)
	return n
}
