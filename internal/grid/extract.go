package grid

import (
	"fmt"

	"github.com/i474232898/commodity-weather-forecast/internal/series"
)

// Extraction is the outcome of walking a labelled column.
// Candidates == len(Series) + Skipped.
type Extraction struct {
	Series     series.Series
	Candidates int
	Skipped    int
}

// Extract walks every row below the label cell, pairing the first-column
// date with the value in the label's column. Rows with an empty date,
// an empty value or a non-numeric value are skipped and counted. A date
// that is present but cannot be decoded aborts the extraction.
func Extract(g *Grid, at Location) (Extraction, error) {
	var out Extraction
	for r := at.Row + 1; r < g.Rows(); r++ {
		out.Candidates++

		date := g.At(r, 0)
		value := g.At(r, at.Col)
		if date.IsEmpty() || value.IsEmpty() {
			out.Skipped++
			continue
		}

		v, ok := value.Float()
		if !ok {
			out.Skipped++
			continue
		}

		d, err := series.Decode(date.Raw)
		if err != nil {
			return Extraction{}, fmt.Errorf("row %d: %w", r, err)
		}

		out.Series = append(out.Series, series.Point{
			Label: date.Raw,
			Date:  d,
			Value: v,
		})
	}
	return out, nil
}
