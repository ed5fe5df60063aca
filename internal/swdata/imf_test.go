package swdata

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swxlab/swx-data-apps/internal/container"
)

const sampleIMF = `Solar wind input, synthetic test case
yyyy mm dd hh mm ss msc bx by bz vx vy vz rho temp

#START
2016 6 21 0 0 0 0  1.0  3.0  4.0  -400.0  0.0  0.0  5.0  100000.0
2016 6 21 0 1 0 0  0.0  0.0 -5.0  -450.0 10.0  0.0  6.0  120000.0
2016 6 21 0 2 0 0  garbage 0.0 -5.0 -450.0 10.0 0.0 6.0 120000.0
2016 6 21 0 3 0 0  2.0 -2.0  1.0  -500.0  0.0  0.0  4.0   90000.0
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imf_test.dat")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadIMF(t *testing.T) {
	c, stats, err := LoadIMF(writeSample(t, sampleIMF))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalRowsRead)
	assert.Equal(t, 3, stats.SuccessfullyParsed)
	assert.Equal(t, 1, stats.FailedRows)

	bx, err := c.Get("imf/bx")
	require.NoError(t, err)
	data, ok := bx.Data()
	require.True(t, ok)
	vals, ok := data.Float64s()
	require.True(t, ok)
	assert.Equal(t, []float64{1.0, 0.0, 2.0}, vals)

	units, ok := bx.Meta("units")
	require.True(t, ok)
	assert.Equal(t, "nT", units)

	tn, err := c.Get("imf/time")
	require.NoError(t, err)
	td, _ := tn.Data()
	ts, ok := td.Int64s()
	require.True(t, ok)
	require.Len(t, ts, 3)
	// One minute between the first two samples.
	assert.Equal(t, int64(60), ts[1]-ts[0])

	src, ok := c.Root().Meta("source_file")
	require.True(t, ok)
	assert.Equal(t, "imf_test.dat", src)
}

func TestLoadIMFMissingSentinel(t *testing.T) {
	_, _, err := LoadIMF(writeSample(t, "just a header\nno data marker\n"))
	assert.ErrorIs(t, err, container.ErrFormat)
}

func TestLoadIMFNoValidRows(t *testing.T) {
	_, _, err := LoadIMF(writeSample(t, "header\n#START\nnot a data row\n"))
	assert.ErrorIs(t, err, container.ErrFormat)
}

func TestCalcB(t *testing.T) {
	c, _, err := LoadIMF(writeSample(t, sampleIMF))
	require.NoError(t, err)

	require.NoError(t, CalcB(c))

	b := mustFloats(t, c, "imf/b")
	require.Len(t, b, 3)
	// Row 1: sqrt(1+9+16)
	assert.InDelta(t, math.Sqrt(26), b[0], 1e-12)
	// Row 2: sqrt(25)
	assert.InDelta(t, 5.0, b[1], 1e-12)
}

func TestCalcClock(t *testing.T) {
	c, _, err := LoadIMF(writeSample(t, sampleIMF))
	require.NoError(t, err)

	require.NoError(t, CalcClock(c))

	clock := mustFloats(t, c, "imf/clock")
	// Row 2: by=0, bz=-5 -> purely southward, pi.
	assert.InDelta(t, math.Pi, clock[1], 1e-12)
	// Row 1: atan2(3, 4)
	assert.InDelta(t, math.Atan2(3, 4), clock[0], 1e-12)
}

func TestCalcEpsilon(t *testing.T) {
	c, _, err := LoadIMF(writeSample(t, sampleIMF))
	require.NoError(t, err)

	// Computes b, v and clock on demand.
	require.NoError(t, CalcEpsilon(c))

	for _, name := range []string{"imf/b", "imf/v", "imf/clock", "imf/epsilon"} {
		_, err := c.Get(name)
		assert.NoError(t, err, name)
	}

	eps := mustFloats(t, c, "imf/epsilon")
	require.Len(t, eps, 3)

	// Row 2: b=5 nT, v=sqrt(450^2+10^2) km/s, clock=pi -> sin^4 = 1.
	v := math.Sqrt(450*450 + 10*10)
	want := 1000.0 * 1e-18 / (4 * math.Pi * 1e-7) * v * 25
	assert.InDelta(t, want, eps[1], want*1e-9)

	// Purely northward would be zero; our rows all have field, so all
	// values are finite and non-negative.
	for i, e := range eps {
		assert.False(t, math.IsNaN(e), "row %d", i)
		assert.GreaterOrEqual(t, e, 0.0, "row %d", i)
	}
}

func TestDeriveMissingInputs(t *testing.T) {
	c := container.New()
	err := CalcB(c)
	assert.True(t, errors.Is(err, container.ErrNotFound))
}

func mustFloats(t *testing.T, c *container.Container, path string) []float64 {
	t.Helper()
	n, err := c.Get(path)
	require.NoError(t, err)
	data, ok := n.Data()
	require.True(t, ok)
	vals, ok := data.AsFloat64s()
	require.True(t, ok)
	return vals
}
