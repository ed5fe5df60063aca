package formats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/swxlab/swx-data-apps/internal/container"
)

// tableGroup is the group delimited-text columns land under.
const tableGroup = "data"

// LoadTable reads delimited text (comma or whitespace separated) into
// a container. Lines starting with '#' or ';' are comments. A leading
// non-numeric row is taken as column names; otherwise columns are
// named col00, col01, ... Columns where every cell parses as a number
// become float64 variables, anything else becomes a string variable.
func LoadTable(r io.Reader, name string) (*container.Container, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", container.ErrFormat, name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no rows", container.ErrFormat, name)
	}

	names, rows := splitHeader(records)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: header only, no data rows", container.ErrFormat, name)
	}

	ncols := len(names)
	c := container.New()
	_ = c.SetMetadata("", "source_file", name)
	_ = c.SetMetadata("", "format", "delimited text")
	_ = c.SetMetadata("", "rows", int64(len(rows)))

	for col := 0; col < ncols; col++ {
		cells := make([]string, len(rows))
		for i, row := range rows {
			if col < len(row) {
				cells[i] = strings.TrimSpace(row[col])
			}
		}

		meta := map[string]any{"column_index": int64(col)}
		path := tableGroup + "/" + names[col]

		if floats, ok := parseColumn(cells); ok {
			_, err = c.SetVariable(path, container.Floats(floats), meta)
		} else {
			_, err = c.SetVariable(path, container.Strings(cells), meta)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: column %q: %v", container.ErrFormat, name, names[col], err)
		}
	}

	return c, nil
}

// readRecords slurps the input. Comma-delimited input goes through
// encoding/csv; otherwise rows split on whitespace.
func readRecords(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	text := string(raw)
	if delimiterIsComma(text) {
		cr := csv.NewReader(strings.NewReader(text))
		cr.LazyQuotes = true
		cr.FieldsPerRecord = -1
		cr.Comment = '#'
		cr.TrimLeadingSpace = true

		var records [][]string
		for {
			rec, err := cr.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
				continue
			}
			records = append(records, rec)
		}
		return records, nil
	}

	var records [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		records = append(records, strings.Fields(line))
	}
	return records, nil
}

// delimiterIsComma checks the first non-comment line.
func delimiterIsComma(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		return strings.Contains(line, ",")
	}
	return false
}

// splitHeader peels a leading name row off when it is non-numeric.
func splitHeader(records [][]string) ([]string, [][]string) {
	first := records[0]
	numeric := 0
	for _, cell := range first {
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
			numeric++
		}
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	if numeric == 0 && len(records) > 1 {
		names := make([]string, width)
		for i := range names {
			if i < len(first) {
				names[i] = sanitizeName(first[i])
			}
			if names[i] == "" {
				names[i] = fmt.Sprintf("col%02d", i)
			}
		}
		return names, records[1:]
	}

	names := make([]string, width)
	for i := range names {
		names[i] = fmt.Sprintf("col%02d", i)
	}
	return names, records
}

// parseColumn converts cells to float64 when every non-empty cell is
// numeric. Empty cells stay NaN-free as 0; mixed columns report false.
func parseColumn(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	nonEmpty := 0
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
		nonEmpty++
	}
	if nonEmpty == 0 {
		return nil, false
	}
	return out, true
}

func sanitizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
