package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/0xmhha/forge-indexer-go/internal/constants"
)

// Order directions accepted by ListOptions
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Filter is one where-clause term matched against a record field. Values are
// compared in their canonical string form (numbers in decimal, booleans as
// true/false, addresses lowercase hex).
type Filter struct {
	// Field is the JSON field name of the record
	Field string

	// Value to compare against
	Value string

	// Substring selects case-insensitive containment instead of equality
	Substring bool
}

// ListOptions parameterizes collection queries: pagination, ordering and
// filtering. The zero value lists the first DefaultPageSize records in key
// order.
type ListOptions struct {
	// First is the page size (default DefaultPageSize, capped at MaxPageSize)
	First int

	// Skip is the number of matching records to skip
	Skip int

	// OrderBy is the JSON field name to sort on; empty keeps key order
	OrderBy string

	// OrderDirection is "asc" (default) or "desc"
	OrderDirection string

	// Where filters are ANDed together
	Where []Filter
}

// normalize applies defaults and caps in place
func (o *ListOptions) normalize() {
	if o.First <= 0 {
		o.First = constants.DefaultPageSize
	}
	if o.First > constants.MaxPageSize {
		o.First = constants.MaxPageSize
	}
	if o.Skip < 0 {
		o.Skip = 0
	}
	o.OrderDirection = strings.ToLower(o.OrderDirection)
	if o.OrderDirection != OrderDesc {
		o.OrderDirection = OrderAsc
	}
}

// row pairs a raw record with its decoded field map so filtering and sorting
// never re-decode
type row struct {
	raw    []byte
	fields map[string]any
}

// decodeFields decodes a JSON record into a field map, preserving numeric
// precision via json.Number
func decodeFields(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// matchesWhere reports whether a record satisfies every filter term
func matchesWhere(fields map[string]any, where []Filter) bool {
	for _, f := range where {
		v, ok := fields[f.Field]
		if !ok {
			return false
		}
		s := stringifyField(v)
		if f.Substring {
			if !strings.Contains(strings.ToLower(s), strings.ToLower(f.Value)) {
				return false
			}
		} else if s != f.Value {
			return false
		}
	}
	return true
}

// stringifyField renders a decoded JSON value in its canonical string form
func stringifyField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// sortRows orders rows by the named field; numeric fields compare
// numerically (arbitrary precision), everything else as strings. The sort is
// stable so records equal on the field keep their key order.
func sortRows(rows []row, orderBy, direction string) {
	if orderBy == "" {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		c := compareFieldValues(rows[i].fields[orderBy], rows[j].fields[orderBy])
		if direction == OrderDesc {
			return c > 0
		}
		return c < 0
	})
}

// compareFieldValues compares two decoded JSON values. Numbers compare
// exactly at arbitrary precision so big.Int-backed fields order correctly.
func compareFieldValues(a, b any) int {
	an, aok := a.(json.Number)
	bn, bok := b.(json.Number)
	if aok && bok {
		ar, ok1 := new(big.Rat).SetString(an.String())
		br, ok2 := new(big.Rat).SetString(bn.String())
		if ok1 && ok2 {
			return ar.Cmp(br)
		}
	}
	return strings.Compare(stringifyField(a), stringifyField(b))
}

// pageRows applies skip/first to the sorted row set
func pageRows(rows []row, skip, first int) []row {
	if skip >= len(rows) {
		return nil
	}
	rows = rows[skip:]
	if len(rows) > first {
		rows = rows[:first]
	}
	return rows
}
