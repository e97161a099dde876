package field

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadOptions describes the layout of exported per-electrode tables.
// Each file in the directory holds the field of one electrode at 1 V,
// named <label>.csv. Rows are coordinate columns followed by physics
// quantity columns; lines starting with '%' are annotations.
type LoadOptions struct {
	// Labels names the columns, comma separated, e.g. "x,y,z,V".
	Labels string
	// CoordCols is the number of leading coordinate columns.
	CoordCols int
	// Axis selects the coordinate column used as the axial position.
	Axis string
	// Quantity selects the potential column.
	Quantity string
	// Unit is the length unit of the axis column: m, mm, um or nm.
	// Brackets are accepted ("[um]").
	Unit string
}

// UnitScale converts a length unit label to meters per unit.
func UnitScale(unit string) (float64, error) {
	switch strings.Trim(unit, "[]") {
	case "m":
		return 1, nil
	case "mm":
		return 1e-3, nil
	case "um":
		return 1e-6, nil
	case "nm":
		return 1e-9, nil
	}
	return 0, fmt.Errorf("field: unknown length unit %q", unit)
}

// LoadDir reads every .csv file in dir as one electrode's unit-voltage
// samples and assembles them into an AxialSample. All files must share
// the same axial coordinates.
func LoadDir(dir string, opts LoadOptions) (*AxialSample, error) {
	scale, err := UnitScale(opts.Unit)
	if err != nil {
		return nil, err
	}

	labels := strings.Split(opts.Labels, ",")
	if opts.CoordCols < 1 || opts.CoordCols >= len(labels) {
		return nil, fmt.Errorf("field: coordinate column count %d out of range for labels %q", opts.CoordCols, opts.Labels)
	}
	axisCol, quantCol := -1, -1
	for i, label := range labels {
		switch strings.TrimSpace(label) {
		case opts.Axis:
			axisCol = i
		case opts.Quantity:
			quantCol = i
		}
	}
	if axisCol < 0 || axisCol >= opts.CoordCols {
		return nil, fmt.Errorf("field: axis %q is not a coordinate column in %q", opts.Axis, opts.Labels)
	}
	if quantCol < opts.CoordCols {
		return nil, fmt.Errorf("field: quantity %q is not a data column in %q", opts.Quantity, opts.Labels)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var positions []float64
	units := make(map[string][]float64)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		label := strings.TrimSuffix(name, ".csv")

		xs, vs, err := loadFile(filepath.Join(dir, name), len(labels), axisCol, quantCol)
		if err != nil {
			return nil, fmt.Errorf("field: %s: %w", name, err)
		}
		for i := range xs {
			xs[i] *= scale
		}

		if positions == nil {
			positions = xs
		} else {
			if len(xs) != len(positions) {
				return nil, fmt.Errorf("field: %s has %d rows, expected %d", name, len(xs), len(positions))
			}
			for i := range xs {
				if xs[i] != positions[i] {
					return nil, fmt.Errorf("field: %s row %d: axial grid differs from other electrodes", name, i+1)
				}
			}
		}
		units[label] = vs
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("field: no electrode files in %s", dir)
	}
	return NewAxialSample(positions, units)
}

func loadFile(path string, cols, axisCol, quantCol int) (xs, vs []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '%'
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = cols

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	for i, record := range records {
		x, err := strconv.ParseFloat(strings.TrimSpace(record[axisCol]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[quantCol]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		xs = append(xs, x)
		vs = append(vs, v)
	}
	return xs, vs, nil
}
