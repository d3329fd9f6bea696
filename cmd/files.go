package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// writeFile creates path and its directory and hands the file to write.
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func formatFloats(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

// writeVector stores a decision vector as a single CSV row.
func writeVector(path string, x []float64) error {
	return writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(formatFloats(x)); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	})
}

// readVector loads a decision vector written by writeVector.
func readVector(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	row, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	x := make([]float64, len(row))
	for i, s := range row {
		if x[i], err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("%s column %d: %w", path, i+1, err)
		}
	}
	return x, nil
}

// writeSeries stores one value per line below a header line.
func writeSeries(path, header string, values []float64) error {
	return writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{header}); err != nil {
			return err
		}
		for _, v := range values {
			if err := cw.Write([]string{strconv.FormatFloat(v, 'f', 6, 64)}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// readSeries loads a series written by writeSeries, skipping the header.
func readSeries(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	out := make([]float64, 0, len(rows)-1)
	for i, row := range rows[1:] {
		v, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		out = append(out, v)
	}
	return out, nil
}
