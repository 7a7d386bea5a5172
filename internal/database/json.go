package database

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/bytedance/sonic"
)

// JSONStore holds a {"<table>": [ {column: value}, ... ]} document in memory.
type JSONStore struct {
	table   string
	columns []string
	rows    []map[string]any
}

func OpenJSON(path string) (*JSONStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc map[string][]map[string]any
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, path)
	}

	tables := make([]string, 0, len(doc))
	for name := range doc {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	table := tables[0]
	rows := doc[table]

	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	return &JSONStore{table: table, columns: cols, rows: rows}, nil
}

func (s *JSONStore) Kind() Kind        { return KindJSON }
func (s *JSONStore) TableName() string { return s.table }
func (s *JSONStore) Close() error      { return nil }

func (s *JSONStore) Scan(ctx context.Context, fn RowFunc) error {
	for _, r := range s.rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := make([]any, len(s.columns))
		for i, c := range s.columns {
			row[i] = normalizeValue(r[c])
		}
		if err := fn(s.columns, row); err != nil {
			return err
		}
	}
	return nil
}
