package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoColumns       = errors.New("dataset has no columns")
	ErrDuplicateColumn = errors.New("duplicate column name")
)

// Row maps a column name to its cell
type Row map[string]Value

// Dataset is the parsed upload. It belongs to one request and is never
// mutated after construction.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// FromRecords builds a dataset from a header and raw string records.
// Short records are padded with nulls, surplus cells are dropped.
func FromRecords(header []string, records [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, ErrNoColumns
	}

	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		seen[name] = true
		columns[i] = name
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		if isBlankRecord(record) {
			continue
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = ParseCell(record[i])
			} else {
				row[col] = Null
			}
		}
		rows = append(rows, row)
	}

	return &Dataset{Columns: columns, Rows: rows}, nil
}

// Column returns every cell of one column in row order
func (d *Dataset) Column(name string) []Value {
	out := make([]Value, len(d.Rows))
	for i, row := range d.Rows {
		v, ok := row[name]
		if !ok {
			v = Null
		}
		out[i] = v
	}
	return out
}

// HasColumn reports whether name is one of the dataset's columns
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
