package grid

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/commodity-weather-forecast/internal/series"
)

// Location is a zero-based (row, col) coordinate.
type Location struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// String returns the spreadsheet reference, e.g. "B5".
func (l Location) String() string {
	name, err := excelize.CoordinatesToCellName(l.Col+1, l.Row+1)
	if err != nil {
		return fmt.Sprintf("R%dC%d", l.Row+1, l.Col+1)
	}
	return name
}

// MatchStatus tags the outcome of Search.
type MatchStatus int

const (
	NotFound MatchStatus = iota
	Found
	Ambiguous
)

func (s MatchStatus) String() string {
	switch s {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Match is the result of Search. Cells are in row-major order.
type Match struct {
	Status MatchStatus
	Cells  []Location
}

// First returns the first matching cell in row-major order.
func (m Match) First() (Location, bool) {
	if len(m.Cells) == 0 {
		return Location{}, false
	}
	return m.Cells[0], true
}

// Locate returns the first text cell, scanning rows top to bottom and
// columns left to right, that contains label case-insensitively. It stops
// at the first hit.
func Locate(g *Grid, label string) (Location, error) {
	needle := strings.ToLower(label)
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			if matches(g.At(r, c), needle) {
				return Location{Row: r, Col: c}, nil
			}
		}
	}
	return Location{}, &series.NotFoundError{Label: label}
}

// Search scans the whole grid and reports every matching cell so callers
// can decide whether more than one hit is acceptable.
func Search(g *Grid, label string) Match {
	needle := strings.ToLower(label)
	var m Match
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			if matches(g.At(r, c), needle) {
				m.Cells = append(m.Cells, Location{Row: r, Col: c})
			}
		}
	}
	switch len(m.Cells) {
	case 0:
		m.Status = NotFound
	case 1:
		m.Status = Found
	default:
		m.Status = Ambiguous
	}
	return m
}

func matches(c Cell, needle string) bool {
	return c.Kind == Text && strings.Contains(strings.ToLower(c.Raw), needle)
}
