// Package store persists named series with full-replace semantics.
package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/i474232898/commodity-weather-forecast/internal/series"
)

// Store is the contract every backend satisfies. Write discards whatever
// was stored under name before; it never merges.
type Store interface {
	Write(ctx context.Context, name string, frame series.Frame) error
	Read(ctx context.Context, name string) (series.Frame, error)
	Names(ctx context.Context) ([]string, error)
	Close() error
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkWrite(name string, frame series.Frame) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid series name %q", name)
	}
	for _, c := range frame.Columns {
		if !identRe.MatchString(c.Name) {
			return fmt.Errorf("series %s: invalid column name %q", name, c.Name)
		}
	}
	if err := frame.Validate(); err != nil {
		return fmt.Errorf("series %s: %w", name, err)
	}
	return nil
}

// Open returns the backend selected by driver ("sqlite" or "memory").
func Open(driver, path string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
