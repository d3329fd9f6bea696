package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Leading columns of the time series files hold the timestamp.
const seriesOffset = 4

// Leading columns of the asset and constraint tables hold labels.
const tableOffset = 3

// readSeries reads a time series file with one header row. Columns from
// seriesOffset on hold one series each; the first `columns` of them are kept.
func readSeries(path string, columns int) (*mat.Dense, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}
	rows = rows[1:]
	out := mat.NewDense(len(rows), columns, nil)
	for t, row := range rows {
		if len(row) < seriesOffset+columns {
			return nil, fmt.Errorf("%s: row %d has %d columns, want at least %d", path, t+2, len(row), seriesOffset+columns)
		}
		for j := 0; j < columns; j++ {
			v, err := parseFloat(row[seriesOffset+j])
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", path, t+2, seriesOffset+j+1, err)
			}
			out.Set(t, j, v)
		}
	}
	return out, nil
}

// readTable reads the numeric part of a table with one header row.
func readTable(path string) ([][]float64, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}
	out := make([][]float64, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) <= tableOffset {
			return nil, fmt.Errorf("%s: row %d has no numeric columns", path, i+2)
		}
		vals := make([]float64, 0, len(row)-tableOffset)
		for k, cell := range row[tableOffset:] {
			v, err := parseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", path, i+2, tableOffset+k+1, err)
			}
			vals = append(vals, v)
		}
		out = append(out, vals)
	}
	return out, nil
}

// readFactors reads label,value rows without a header.
func readFactors(path string) (map[string]float64, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%s: row %d: want label,value", path, i+1)
		}
		v, err := parseFloat(row[1])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+1, err)
		}
		out[strings.TrimSpace(row[0])] = v
	}
	return out, nil
}

func readRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
