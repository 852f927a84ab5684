package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	doc := map[string]any{
		"snapshot": map[string]any{
			"overview": map[string]any{"total_market_value": json.Number("999999.0")},
		},
		"broken": []any{"x"},
	}

	assert.Equal(t, json.Number("999999.0"), Get(doc, "$.snapshot.overview.total_market_value"))
	assert.Nil(t, Get(doc, "$.snapshot.holdings"))
	assert.Nil(t, Get(doc, "$.broken.overview"))
	assert.Nil(t, Get(map[string]any{}, "$.snapshot.overview"))
}

func TestDecimal(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"n": json.Number("4.2"), "s": "bad", "b": true, "str": "7.5"}}

	d, ok := Decimal(doc, "$.a.n")
	assert.True(t, ok)
	assert.Equal(t, "4.2", d.String())

	d, ok = Decimal(doc, "$.a.str")
	assert.True(t, ok)
	assert.Equal(t, "7.5", d.String())

	for _, path := range []string{"$.a.s", "$.a.b", "$.a.missing"} {
		_, ok := Decimal(doc, path)
		assert.False(t, ok, path)
	}
}

func TestShapeAccessors(t *testing.T) {
	assert.Empty(t, Map("x"))
	assert.Empty(t, Map(nil))
	assert.Equal(t, map[string]any{"k": 1}, Map(map[string]any{"k": 1}))

	assert.Nil(t, List(map[string]any{}))
	assert.Len(t, List([]any{1, 2}), 2)

	s, ok := String("P1")
	assert.True(t, ok)
	assert.Equal(t, "P1", s)
	_, ok = String(json.Number("1"))
	assert.False(t, ok)
}
