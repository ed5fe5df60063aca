// Package swdata reads solar wind driver files in SWMF ASCII format
// and computes the standard derived quantities from them.
//
// The file layout: free-form header lines, a literal "#START" sentinel,
// then one row per sample of
//
//	yyyy mm dd hh mm ss msc bx by bz vx vy vz rho temp
//
// Field magnitudes are nT and km/s, density in amu/cm3, temperature
// in Kelvin.
package swdata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/swxlab/swx-data-apps/internal/container"
)

// GroupName is the container group all IMF variables live under.
const GroupName = "imf"

// startSentinel separates the header from the data block.
const startSentinel = "#START"

// columns, in file order after the seven time fields.
var columns = []string{"bx", "by", "bz", "vx", "vy", "vz", "rho", "temp"}

var units = map[string]string{
	"bx": "nT", "by": "nT", "bz": "nT",
	"vx": "km/s", "vy": "km/s", "vz": "km/s",
	"rho":  "amu/cm3",
	"temp": "K",
}

// ParseStats counts row outcomes during a load.
type ParseStats struct {
	TotalRowsRead      int
	SuccessfullyParsed int
	FailedRows         int
}

// LoadIMF reads an SWMF IMF file into a fresh container. Variables are
// created under "imf/": a time axis (unix seconds, int64) plus one
// float64 variable per column, each tagged with its units. Malformed
// rows are counted and skipped; a file with no #START sentinel or no
// valid rows fails with container.ErrFormat.
func LoadIMF(path string) (*container.Container, *ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadIMF(f, filepath.Base(path))
}

// ReadIMF is LoadIMF over an arbitrary reader, typically a decompressed
// stream. name is used only in errors and global metadata.
func ReadIMF(r io.Reader, name string) (*container.Container, *ParseStats, error) {
	stats := &ParseStats{}
	scanner := bufio.NewScanner(r)

	// Skip the header.
	found := false
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == startSentinel {
			found = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, fmt.Errorf("%w: %s: missing %s sentinel", container.ErrFormat, name, startSentinel)
	}

	times := []int64{}
	values := make(map[string][]float64, len(columns))
	for _, c := range columns {
		values[c] = []float64{}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.TotalRowsRead++

		ts, row, err := parseRow(line)
		if err != nil {
			stats.FailedRows++
			continue
		}

		times = append(times, ts.Unix())
		for i, c := range columns {
			values[c] = append(values[c], row[i])
		}
		stats.SuccessfullyParsed++
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if stats.SuccessfullyParsed == 0 {
		return nil, nil, fmt.Errorf("%w: %s: no valid data rows", container.ErrFormat, name)
	}

	c := container.New()
	_ = c.SetMetadata("", "source_file", name)
	_ = c.SetMetadata("", "format", "SWMF IMF ASCII")

	if _, err := c.SetVariable(GroupName+"/time", container.Ints(times), map[string]any{
		"units": "unix seconds", "axis": "time",
	}); err != nil {
		return nil, nil, err
	}
	for _, name := range columns {
		meta := map[string]any{"units": units[name]}
		if _, err := c.SetVariable(GroupName+"/"+name, container.Floats(values[name]), meta); err != nil {
			return nil, nil, err
		}
	}

	return c, stats, nil
}

// parseRow parses one data row: 7 time fields then 8 float columns.
func parseRow(line string) (time.Time, []float64, error) {
	parts := strings.Fields(line)
	if len(parts) < 7+len(columns) {
		return time.Time{}, nil, fmt.Errorf("insufficient columns: got %d, need %d", len(parts), 7+len(columns))
	}

	ti := make([]int, 7)
	for i := 0; i < 7; i++ {
		v, err := strconv.Atoi(parts[i])
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("invalid time field %d: %w", i, err)
		}
		ti[i] = v
	}
	ts := time.Date(ti[0], time.Month(ti[1]), ti[2], ti[3], ti[4], ti[5], ti[6]*int(time.Millisecond), time.UTC)

	row := make([]float64, len(columns))
	for i := range columns {
		v, err := strconv.ParseFloat(parts[7+i], 64)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("invalid %s: %w", columns[i], err)
		}
		row[i] = v
	}
	return ts, row, nil
}
