// Package database reads the movie record store the value index is built from.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedDatabase = errors.New("database: unsupported database type")
	ErrNoTable             = errors.New("database: cannot determine table name")
)

// Kind is the backend a Store was opened with. It is fixed at open time.
type Kind int

const (
	KindSQL Kind = iota + 1
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindSQL:
		return "sql"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// KindOf resolves the backend from the file extension.
func KindOf(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db":
		return KindSQL, nil
	case ".json":
		return KindJSON, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDatabase, path)
	}
}

// RowFunc receives each row with values aligned to columns. Values are nil,
// string, int64, float64 or bool.
type RowFunc func(columns []string, row []any) error

// Store exposes every row of a single table.
type Store interface {
	Kind() Kind
	TableName() string
	Scan(ctx context.Context, fn RowFunc) error
	Close() error
}

func Open(ctx context.Context, path string) (Store, error) {
	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	switch kind {
	case KindSQL:
		return OpenSQL(ctx, path)
	default:
		return OpenJSON(path)
	}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
