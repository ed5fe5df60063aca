package formats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/swxlab/swx-data-apps/internal/container"
	"github.com/swxlab/swx-data-apps/internal/swdata"
)

// swRecord is the parquet row schema for solar wind driver data, one
// row per sample.
type swRecord struct {
	Time int64   `parquet:"time"`
	Bx   float64 `parquet:"bx"`
	By   float64 `parquet:"by"`
	Bz   float64 `parquet:"bz"`
	Vx   float64 `parquet:"vx"`
	Vy   float64 `parquet:"vy"`
	Vz   float64 `parquet:"vz"`
	Rho  float64 `parquet:"rho"`
	Temp float64 `parquet:"temp"`
}

var swUnits = map[string]string{
	"bx": "nT", "by": "nT", "bz": "nT",
	"vx": "km/s", "vy": "km/s", "vz": "km/s",
	"rho": "amu/cm3", "temp": "K",
}

const parquetReadChunk = 4096

// LoadParquet reads a solar wind parquet file (the schema DumpParquet
// writes) back into a container with the standard imf layout.
func LoadParquet(path string) (*container.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", container.ErrFormat, filepath.Base(path), err)
	}

	reader := parquet.NewGenericReader[swRecord](pf)
	defer reader.Close()

	var records []swRecord
	buf := make([]swRecord, parquetReadChunk)
	for {
		n, err := reader.Read(buf)
		records = append(records, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", container.ErrFormat, filepath.Base(path), err)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no rows", container.ErrFormat, filepath.Base(path))
	}

	return recordsToContainer(records, filepath.Base(path))
}

// DumpParquet writes the imf group of c as a parquet file at path.
// Fails when the container has no complete imf group.
func DumpParquet(c *container.Container, path string) error {
	records, err := containerToRecords(c)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := parquet.NewGenericWriter[swRecord](f)
	if _, err := writer.Write(records); err != nil {
		writer.Close()
		f.Close()
		os.Remove(path)
		return fmt.Errorf("parquet write: %w", err)
	}
	if err := writer.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("parquet close: %w", err)
	}
	return f.Close()
}

func recordsToContainer(records []swRecord, name string) (*container.Container, error) {
	n := len(records)
	times := make([]int64, n)
	cols := map[string][]float64{}
	for _, col := range []string{"bx", "by", "bz", "vx", "vy", "vz", "rho", "temp"} {
		cols[col] = make([]float64, n)
	}

	for i, rec := range records {
		times[i] = rec.Time
		cols["bx"][i] = rec.Bx
		cols["by"][i] = rec.By
		cols["bz"][i] = rec.Bz
		cols["vx"][i] = rec.Vx
		cols["vy"][i] = rec.Vy
		cols["vz"][i] = rec.Vz
		cols["rho"][i] = rec.Rho
		cols["temp"][i] = rec.Temp
	}

	c := container.New()
	_ = c.SetMetadata("", "source_file", name)
	_ = c.SetMetadata("", "format", "parquet")

	if _, err := c.SetVariable(swdata.GroupName+"/time", container.Ints(times), map[string]any{
		"units": "unix seconds", "axis": "time",
	}); err != nil {
		return nil, err
	}
	for col, vals := range cols {
		meta := map[string]any{"units": swUnits[col]}
		if _, err := c.SetVariable(swdata.GroupName+"/"+col, container.Floats(vals), meta); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func containerToRecords(c *container.Container) ([]swRecord, error) {
	times, err := imfInts(c, "time")
	if err != nil {
		return nil, err
	}

	cols := map[string][]float64{}
	for _, col := range []string{"bx", "by", "bz", "vx", "vy", "vz", "rho", "temp"} {
		vals, err := imfFloats(c, col)
		if err != nil {
			return nil, err
		}
		if len(vals) != len(times) {
			return nil, fmt.Errorf("imf/%s length %d does not match time axis %d", col, len(vals), len(times))
		}
		cols[col] = vals
	}

	records := make([]swRecord, len(times))
	for i := range records {
		records[i] = swRecord{
			Time: times[i],
			Bx:   cols["bx"][i],
			By:   cols["by"][i],
			Bz:   cols["bz"][i],
			Vx:   cols["vx"][i],
			Vy:   cols["vy"][i],
			Vz:   cols["vz"][i],
			Rho:  cols["rho"][i],
			Temp: cols["temp"][i],
		}
	}
	return records, nil
}

func imfFloats(c *container.Container, name string) ([]float64, error) {
	node, err := c.Get(swdata.GroupName + "/" + name)
	if err != nil {
		return nil, err
	}
	data, ok := node.Data()
	if !ok {
		return nil, fmt.Errorf("imf/%s is not a variable", name)
	}
	vals, ok := data.AsFloat64s()
	if !ok {
		return nil, fmt.Errorf("imf/%s is not numeric", name)
	}
	return vals, nil
}

func imfInts(c *container.Container, name string) ([]int64, error) {
	node, err := c.Get(swdata.GroupName + "/" + name)
	if err != nil {
		return nil, err
	}
	data, ok := node.Data()
	if !ok {
		return nil, fmt.Errorf("imf/%s is not a variable", name)
	}
	vals, ok := data.Int64s()
	if !ok {
		return nil, fmt.Errorf("imf/%s is not int64", name)
	}
	return vals, nil
}
