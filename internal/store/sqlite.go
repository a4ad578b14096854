package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/i474232898/commodity-weather-forecast/internal/series"
)

// SQLiteStore keeps one table per series. A write drops and recreates the
// table inside a single transaction, so readers see either the previous
// series or the new one.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps :memory: databases shared and avoids
	// SQLITE_BUSY between concurrent writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Write replaces the table called name with frame.
func (s *SQLiteStore) Write(ctx context.Context, name string, frame series.Frame) (err error) {
	if err := checkWrite(name, frame); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	table := quoteIdent(name)
	if _, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}

	defs := make([]string, 0, len(frame.Columns))
	cols := make([]string, 0, len(frame.Columns))
	for _, c := range frame.Columns {
		typ := "TEXT"
		if c.Kind == series.KindReal {
			typ = "REAL"
		}
		defs = append(defs, quoteIdent(c.Name)+" "+typ)
		cols = append(cols, quoteIdent(c.Name))
	}
	if _, err = tx.ExecContext(ctx, `CREATE TABLE `+table+` (`+strings.Join(defs, ",")+`)`); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+` (`+strings.Join(cols, ",")+`) VALUES (`+ph+`)`)
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", name, err)
	}
	defer stmt.Close()

	for i, row := range frame.Rows {
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", name, i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

// Read returns the table called name in insertion order.
func (s *SQLiteStore) Read(ctx context.Context, name string) (series.Frame, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return series.Frame{}, fmt.Errorf("lookup %s: %w", name, err)
	}
	if n == 0 {
		return series.Frame{}, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(name)+` ORDER BY rowid`)
	if err != nil {
		return series.Frame{}, fmt.Errorf("select %s: %w", name, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return series.Frame{}, fmt.Errorf("columns %s: %w", name, err)
	}

	frame := series.Frame{Columns: make([]series.Column, len(types)), Rows: [][]any{}}
	for i, ct := range types {
		kind := series.KindText
		if strings.EqualFold(ct.DatabaseTypeName(), "REAL") {
			kind = series.KindReal
		}
		frame.Columns[i] = series.Column{Name: ct.Name(), Kind: kind}
	}

	for rows.Next() {
		vals := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return series.Frame{}, fmt.Errorf("scan %s: %w", name, err)
		}
		for i, v := range vals {
			vals[i] = normalizeValue(v, frame.Columns[i].Kind)
		}
		frame.Rows = append(frame.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return series.Frame{}, fmt.Errorf("iterate %s: %w", name, err)
	}
	return frame, nil
}

// Names lists stored series in lexical order.
func (s *SQLiteStore) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func normalizeValue(v any, kind series.ColumnKind) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case int64:
		if kind == series.KindReal {
			return float64(x)
		}
		return x
	default:
		return x
	}
}
