package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DefaultMultiValued are the text columns holding lists.
var DefaultMultiValued = []string{"actors", "genres", "plot_keywords"}

// ValueIndex maps each non-id column to its distinct observed values, in
// first-seen order. Read-only once built.
type ValueIndex struct {
	slots  []string
	values map[string][]string
}

// BuildValueIndex scans the store once.
func BuildValueIndex(ctx context.Context, store Store, multiValued []string) (*ValueIndex, error) {
	if multiValued == nil {
		multiValued = DefaultMultiValued
	}
	multi := make(map[string]bool, len(multiValued))
	for _, c := range multiValued {
		multi[c] = true
	}

	ix := &ValueIndex{values: make(map[string][]string)}
	seen := make(map[string]map[string]bool)

	add := func(slot, v string) {
		if v == "" || seen[slot][v] {
			return
		}
		seen[slot][v] = true
		ix.values[slot] = append(ix.values[slot], v)
	}

	err := store.Scan(ctx, func(cols []string, row []any) error {
		for i, col := range cols {
			if col == "id" {
				continue
			}
			if _, ok := seen[col]; !ok {
				seen[col] = make(map[string]bool)
				ix.slots = append(ix.slots, col)
				ix.values[col] = nil
			}
			s, ok := formatValue(row[i])
			if !ok {
				continue
			}
			if multi[col] {
				for _, v := range SplitMultiValued(s) {
					add(col, v)
				}
				continue
			}
			add(col, strings.TrimSpace(s))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("indexing table %s: %w", store.TableName(), err)
	}
	return ix, nil
}

// SplitMultiValued splits on commas, then splits the final segment on " and ".
func SplitMultiValued(s string) []string {
	parts := strings.Split(s, ",")
	last := parts[len(parts)-1]
	parts = parts[:len(parts)-1]
	parts = append(parts, strings.Split(strings.TrimSpace(last), " and ")...)

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return fmt.Sprint(x), true
	}
}

// Slots returns indexed columns in table order.
func (ix *ValueIndex) Slots() []string {
	return append([]string(nil), ix.slots...)
}

func (ix *ValueIndex) Values(slot string) []string {
	return ix.values[slot]
}

func (ix *ValueIndex) Has(slot string) bool {
	_, ok := ix.values[slot]
	return ok
}

// Len is the total number of indexed values.
func (ix *ValueIndex) Len() int {
	n := 0
	for _, v := range ix.values {
		n += len(v)
	}
	return n
}
