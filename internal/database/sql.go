package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

type SQLStore struct {
	db    *sql.DB
	path  string
	table string
}

// OpenSQL opens a SQLite file and picks the first table it declares.
func OpenSQL(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}

	var table string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY rowid LIMIT 1").Scan(&table)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && table == "") {
		db.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoTable, path)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading sqlite_master: %w", err)
	}
	return &SQLStore{db: db, path: path, table: table}, nil
}

func (s *SQLStore) Kind() Kind        { return KindSQL }
func (s *SQLStore) TableName() string { return s.table }
func (s *SQLStore) Close() error      { return s.db.Close() }

func (s *SQLStore) Scan(ctx context.Context, fn RowFunc) error {
	q := `SELECT * FROM "` + strings.ReplaceAll(s.table, `"`, `""`) + `"`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("querying %s: %w", s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scanning %s: %w", s.table, err)
		}
		row := make([]any, len(cols))
		for i, v := range vals {
			row[i] = normalizeValue(v)
		}
		if err := fn(cols, row); err != nil {
			return err
		}
	}
	return rows.Err()
}
