// Package grid models a semi-structured spreadsheet as a rectangular cell
// table and locates and extracts labelled series from it.
package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a cell value.
type Kind int

const (
	Empty Kind = iota
	Text
	Number
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a single grid value. Raw is the cell content as read.
type Cell struct {
	Kind   Kind
	Raw    string
	Number float64
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == Empty
}

// Float returns the numeric value of the cell, parsing text if needed.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case Number:
		return c.Number, true
	case Text:
		f, err := strconv.ParseFloat(strings.TrimSpace(c.Raw), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ParseCell classifies a raw string: blank is Empty, anything that parses
// as a float is Number, the rest is Text.
func ParseCell(raw string) Cell {
	if strings.TrimSpace(raw) == "" {
		return Cell{Kind: Empty}
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return Cell{Kind: Number, Raw: raw, Number: f}
	}
	return Cell{Kind: Text, Raw: raw}
}

// Grid is an immutable rectangular table. Ragged input rows are padded
// with empty cells.
type Grid struct {
	cells [][]Cell
	rows  int
	cols  int
}

// New builds a grid from raw string rows.
func New(rows [][]string) *Grid {
	g := &Grid{rows: len(rows)}
	for _, r := range rows {
		if len(r) > g.cols {
			g.cols = len(r)
		}
	}
	g.cells = make([][]Cell, len(rows))
	for i, r := range rows {
		line := make([]Cell, g.cols)
		for j, raw := range r {
			line[j] = ParseCell(raw)
		}
		g.cells[i] = line
	}
	return g
}

// FromValues builds a grid from loosely typed rows. Strings are kept as
// text, numeric types become numbers and nil is empty.
func FromValues(rows [][]any) (*Grid, error) {
	g := &Grid{rows: len(rows)}
	for _, r := range rows {
		if len(r) > g.cols {
			g.cols = len(r)
		}
	}
	g.cells = make([][]Cell, len(rows))
	for i, r := range rows {
		line := make([]Cell, g.cols)
		for j, v := range r {
			c, err := valueCell(v)
			if err != nil {
				return nil, fmt.Errorf("cell (%d,%d): %w", i, j, err)
			}
			line[j] = c
		}
		g.cells[i] = line
	}
	return g, nil
}

func valueCell(v any) (Cell, error) {
	switch x := v.(type) {
	case nil:
		return Cell{Kind: Empty}, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return Cell{Kind: Empty}, nil
		}
		return Cell{Kind: Text, Raw: x}, nil
	case float64:
		return Cell{Kind: Number, Raw: strconv.FormatFloat(x, 'f', -1, 64), Number: x}, nil
	case float32:
		return valueCell(float64(x))
	case int:
		return valueCell(float64(x))
	case int64:
		return valueCell(float64(x))
	default:
		return Cell{}, fmt.Errorf("unsupported cell type %T", v)
	}
}

// Rows returns the row count.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the column count.
func (g *Grid) Cols() int { return g.cols }

// At returns the cell at (row, col). Out of range coordinates yield an
// empty cell.
func (g *Grid) At(row, col int) Cell {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return Cell{Kind: Empty}
	}
	return g.cells[row][col]
}
