// Package payload reads optional data out of untyped upstream JSON without failing
// on unexpected shapes.
package payload

import (
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/sgajbi/reporting-aggregation-service/internal/precision"
)

// Map returns v as a map, or an empty map for any other shape.
func Map(v any) map[string]any {
	if m, ok := v.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// List returns v as a list, or nil for any other shape.
func List(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

// String returns v as a string and whether it was one.
func String(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Get resolves a JSONPath expression such as "$.snapshot.overview" against v.
// Missing keys and shape mismatches yield nil.
func Get(v any, path string) any {
	out, err := jsonpath.Get(path, v)
	if err != nil {
		return nil
	}
	return out
}

// Decimal resolves path and parses the result as a number. Absent values,
// booleans and non-numeric strings report false.
func Decimal(v any, path string) (decimal.Decimal, bool) {
	return Number(Get(v, path))
}

// Number parses v as a number, reporting false for nil or anything non-numeric.
func Number(v any) (decimal.Decimal, bool) {
	if v == nil {
		return decimal.Zero, false
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return decimal.Zero, false
	}
	d, err := precision.ToDecimal(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
