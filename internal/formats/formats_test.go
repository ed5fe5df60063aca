package formats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swxlab/swx-data-apps/internal/container"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"file.h5", []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n', 0, 0}, FormatHDF5},
		{"file.nc", append([]byte("CDF\x01"), make([]byte, 16)...), FormatNetCDF},
		{"file.cdf", []byte{0xcd, 0xf3, 0x00, 0x01, 0x00, 0x00, 0xff, 0xff}, FormatCDF},
		{"old.cdf", []byte{0xcd, 0xf2, 0x60, 0x02, 0xcc, 0xcc, 0x00, 0x01}, FormatCDF},
		{"file.sav", []byte{'S', 'R', 0x00, 0x04, 0, 0}, FormatIDLSave},
		{"file.parquet", []byte("PAR1xxxx"), FormatParquet},
		{"imf.dat", []byte("header\n#START\n2016 6 21 0 0 0 0 1 1 1 1 1 1 1 1\n"), FormatIMF},
		{"table.csv", []byte("a,b\n1,2\n"), FormatText},
		{"blob.bin", []byte{0x00, 0x01, 0x02}, FormatUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.name, tc.data)
			got, err := Detect(path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetectThroughGzip(t *testing.T) {
	imf := []byte("header\n#START\n2016 6 21 0 0 0 0 1 1 1 1 1 1 1 1\n")
	path := writeFile(t, "imf.dat.gz", gzipped(t, imf))

	got, err := Detect(path)
	require.NoError(t, err)
	assert.Equal(t, FormatIMF, got)
}

func TestLoadIMFGzip(t *testing.T) {
	imf := []byte("header\n#START\n" +
		"2016 6 21 0 0 0 0  1.0 2.0 3.0 -400 0 0 5 1e5\n" +
		"2016 6 21 0 1 0 0  1.5 2.5 3.5 -410 0 0 5 1e5\n")
	path := writeFile(t, "imf.dat.gz", gzipped(t, imf))

	c, err := Load(path)
	require.NoError(t, err)

	bx, err := c.Get("imf/bx")
	require.NoError(t, err)
	data, _ := bx.Data()
	vals, _ := data.Float64s()
	assert.Equal(t, []float64{1.0, 1.5}, vals)

	src, _ := c.Root().Meta("source_file")
	assert.Equal(t, "imf.dat", src)
}

func TestLoadUnsupported(t *testing.T) {
	t.Run("nasa cdf", func(t *testing.T) {
		path := writeFile(t, "data.cdf", []byte{0xcd, 0xf3, 0x00, 0x01, 0x00, 0x00, 0xff, 0xff})
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrUnsupported)
		assert.ErrorIs(t, err, container.ErrFormat)
	})

	t.Run("idl save", func(t *testing.T) {
		path := writeFile(t, "data.sav", []byte{'S', 'R', 0x00, 0x04})
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrUnsupported)
	})
}

func TestLoadTableCSV(t *testing.T) {
	csv := "# SIDC-style daily series\ndate,ssn,station\n2024-01-01,113,brussels\n2024-01-02,97,brussels\n"
	c, err := LoadTable(strings.NewReader(csv), "sidc.csv")
	require.NoError(t, err)

	ssn, err := c.Get("data/ssn")
	require.NoError(t, err)
	data, _ := ssn.Data()
	vals, ok := data.Float64s()
	require.True(t, ok)
	assert.Equal(t, []float64{113, 97}, vals)

	// Non-numeric columns stay as strings.
	station, err := c.Get("data/station")
	require.NoError(t, err)
	sdata, _ := station.Data()
	svals, ok := sdata.Values().([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"brussels", "brussels"}, svals)

	rows, _ := c.Root().Meta("rows")
	assert.Equal(t, int64(2), rows)
}

func TestLoadTableWhitespace(t *testing.T) {
	txt := "# f10.7 daily\n2024 1 1 155.1\n2024 1 2 149.8\n"
	c, err := LoadTable(strings.NewReader(txt), "flux.txt")
	require.NoError(t, err)

	// No header row: synthetic names.
	col, err := c.Get("data/col03")
	require.NoError(t, err)
	data, _ := col.Data()
	vals, _ := data.Float64s()
	assert.Equal(t, []float64{155.1, 149.8}, vals)
}

func TestLoadTableEmpty(t *testing.T) {
	_, err := LoadTable(strings.NewReader("# only comments\n"), "empty.txt")
	assert.ErrorIs(t, err, container.ErrFormat)

	_, err = LoadTable(strings.NewReader("a,b\n"), "header_only.csv")
	assert.ErrorIs(t, err, container.ErrFormat)
}

func TestParquetRoundTrip(t *testing.T) {
	src := container.New()
	times := []int64{1466467200, 1466467260}
	_, err := src.SetVariable("imf/time", container.Ints(times), nil)
	require.NoError(t, err)
	for col, vals := range map[string][]float64{
		"bx": {1, 2}, "by": {3, 4}, "bz": {5, 6},
		"vx": {-400, -410}, "vy": {0, 1}, "vz": {0, -1},
		"rho": {5, 6}, "temp": {1e5, 2e5},
	} {
		_, err := src.SetVariable("imf/"+col, container.Floats(vals), nil)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "sw.parquet")
	require.NoError(t, DumpParquet(src, path))

	// The written file detects as parquet and loads back identically.
	format, err := Detect(path)
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, format)

	got, err := Load(path)
	require.NoError(t, err)

	tn, err := got.Get("imf/time")
	require.NoError(t, err)
	tdata, _ := tn.Data()
	tvals, _ := tdata.Int64s()
	assert.Equal(t, times, tvals)

	bz, err := got.Get("imf/bz")
	require.NoError(t, err)
	bdata, _ := bz.Data()
	bvals, _ := bdata.Float64s()
	assert.Equal(t, []float64{5, 6}, bvals)
}

func TestDumpParquetIncomplete(t *testing.T) {
	c := container.New()
	_, err := c.SetVariable("imf/time", container.Ints([]int64{1}), nil)
	require.NoError(t, err)

	err = DumpParquet(c, filepath.Join(t.TempDir(), "out.parquet"))
	assert.Error(t, err)
}

func TestDumpYAML(t *testing.T) {
	c := container.New()
	require.NoError(t, c.SetMetadata("", "source_file", "test.nc"))
	_, err := c.SetVariable("imf/bx", container.Floats([]float64{1, 2, 3}), map[string]any{"units": "nT"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, DumpYAML(c, &buf))

	out := buf.String()
	assert.Contains(t, out, "source_file")
	assert.Contains(t, out, "bx")
	assert.Contains(t, out, "float64")
	assert.Contains(t, out, "units")
}

func TestFlatten(t *testing.T) {
	t.Run("2d float64", func(t *testing.T) {
		arr, err := flatten([][]float64{{1, 2, 3}, {4, 5, 6}})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, arr.Shape())
		vals, _ := arr.Float64s()
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, vals)
	})

	t.Run("scalar", func(t *testing.T) {
		arr, err := flatten(int32(7))
		require.NoError(t, err)
		assert.Equal(t, []int{1}, arr.Shape())
		assert.Equal(t, []int32{7}, arr.Values())
	})

	t.Run("ragged fails", func(t *testing.T) {
		_, err := flatten([][]float64{{1, 2}, {3}})
		assert.Error(t, err)
	})
}
