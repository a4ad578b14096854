package series

import (
	"fmt"
	"time"
)

// Persisted series names.
const (
	CommodityPrices = "commodity_prices"
	WeatherData     = "weather_data"
)

// Point is a single observation of a named metric.
// Label keeps the date exactly as the source wrote it.
type Point struct {
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is an ordered sequence of points in source row order.
// Duplicate or out-of-order dates are kept as they came.
type Series []Point

// WeatherRecord is one day of the daily forecast. Nil means the upstream
// value was null.
type WeatherRecord struct {
	Date    string   `json:"date"`
	TempMax *float64 `json:"temp_max"`
	Precip  *float64 `json:"precip"`
}

// ColumnKind is the storage type of a frame column.
type ColumnKind string

const (
	KindText ColumnKind = "text"
	KindReal ColumnKind = "real"
)

// Column describes one frame column.
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Frame is the tabular shape exchanged with the store. Cells hold a
// string, a float64, or nil.
type Frame struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (f Frame) Len() int {
	return len(f.Rows)
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := Frame{
		Columns: append([]Column(nil), f.Columns...),
		Rows:    make([][]any, len(f.Rows)),
	}
	for i, row := range f.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}

// Validate checks that every row has one cell per column and that each
// cell matches its column kind.
func (f Frame) Validate() error {
	if len(f.Columns) == 0 {
		return fmt.Errorf("frame has no columns")
	}
	for i, row := range f.Rows {
		if len(row) != len(f.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(f.Columns))
		}
		for j, cell := range row {
			if cell == nil {
				continue
			}
			switch f.Columns[j].Kind {
			case KindText:
				if _, ok := cell.(string); !ok {
					return fmt.Errorf("row %d column %q: want text, got %T", i, f.Columns[j].Name, cell)
				}
			case KindReal:
				if _, ok := cell.(float64); !ok {
					return fmt.Errorf("row %d column %q: want real, got %T", i, f.Columns[j].Name, cell)
				}
			default:
				return fmt.Errorf("column %q has unknown kind %q", f.Columns[j].Name, f.Columns[j].Kind)
			}
		}
	}
	return nil
}

// PriceFrame lays a price series out as (date, price) using the
// source-native date label.
func PriceFrame(s Series) Frame {
	f := Frame{
		Columns: []Column{{Name: "date", Kind: KindText}, {Name: "price", Kind: KindReal}},
		Rows:    make([][]any, 0, len(s)),
	}
	for _, p := range s {
		f.Rows = append(f.Rows, []any{p.Label, p.Value})
	}
	return f
}

// WeatherFrame lays weather records out as (date, temp_max, precip).
func WeatherFrame(records []WeatherRecord) Frame {
	f := Frame{
		Columns: []Column{
			{Name: "date", Kind: KindText},
			{Name: "temp_max", Kind: KindReal},
			{Name: "precip", Kind: KindReal},
		},
		Rows: make([][]any, 0, len(records)),
	}
	for _, r := range records {
		f.Rows = append(f.Rows, []any{r.Date, optional(r.TempMax), optional(r.Precip)})
	}
	return f
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
