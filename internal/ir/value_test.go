package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Bool(true)
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}
	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())

	mixed := Object{"a": Int(1), "A": Int(2), "aa": Int(3), "aA": Int(4), "Aa": Int(5), "AA": Int(6)}
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, mixed.SortedKeys())

	assert.Empty(t, Object{}.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"aa", "a", 1},
		{"", "a", -1},
		{"\U00010000", "", -1}, // surrogate 0xD800 sorts before 0xE000
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			result := compareKeysRFC8785(tt.a, tt.b)
			switch {
			case tt.expected < 0:
				assert.Less(t, result, 0)
			case tt.expected > 0:
				assert.Greater(t, result, 0)
			default:
				assert.Equal(t, 0, result)
			}
		})
	}
}

func TestNewObjectAndWith(t *testing.T) {
	obj := NewObject(O("counter", Int(5)), O("label", String("x")))
	assert.Equal(t, Object{"counter": Int(5), "label": String("x")}, obj)

	next := obj.With("counter", Int(6))
	assert.Equal(t, Int(6), next["counter"])
	assert.Equal(t, Int(5), obj["counter"], "With must not modify the receiver")

	n, ok := next.Int("counter")
	assert.True(t, ok)
	assert.Equal(t, int64(6), n)

	_, ok = next.Int("label")
	assert.False(t, ok)
	_, ok = next.Int("missing")
	assert.False(t, ok)
}

func TestMarshalValue(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"nil", nil, "null"},
		{"null", Null{}, "null"},
		{"string", String("hi"), `"hi"`},
		{"int", Int(-3), "-3"},
		{"bool", Bool(false), "false"},
		{"sorted object", Object{"b": Int(1), "a": Null{}}, `{"a":null,"b":1}`},
		{"array", Array{Int(1), Object{}}, `[1,{}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalValue(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestEncodingJSONUsesValueMarshalers(t *testing.T) {
	data, err := json.Marshal(map[string]any{"state": Object{"z": Int(1), "a": Array{Null{}}}})
	require.NoError(t, err)
	assert.Equal(t, `{"state":{"a":[null],"z":1}}`, string(data))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{"string", `"hi"`, String("hi")},
		{"int", `42`, Int(42)},
		{"negative", `-7`, Int(-7)},
		{"bool", `true`, Bool(true)},
		{"null", `null`, Null{}},
		{"whitespace", "  5 \n", Int(5)},
		{"array", `[1,"a",null]`, Array{Int(1), String("a"), Null{}}},
		{"object", `{"counter":5,"nested":{"ok":false}}`, Object{"counter": Int(5), "nested": Object{"ok": Bool(false)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestParseValueRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"float", `3.14`},
		{"exponent", `1e3`},
		{"nested float", `{"counter":1.5}`},
		{"float in array", `[1,2.5]`},
		{"empty", ``},
		{"malformed", `{"a":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseValue([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestMarshalParseRoundTrip(t *testing.T) {
	original := Object{
		"counter": Int(5),
		"tags":    Array{String("a"), Bool(true), Null{}},
		"meta":    Object{"deep": Object{"n": Int(-1)}},
	}

	data, err := MarshalValue(original)
	require.NoError(t, err)

	parsed, err := ParseValue(data)
	require.NoError(t, err)
	assert.True(t, Equal(original, parsed))
}

func TestFromGo(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected Value
	}{
		{"nil", nil, Null{}},
		{"bool", true, Bool(true)},
		{"string", "x", String("x")},
		{"int", 5, Int(5)},
		{"int64", int64(-2), Int(-2)},
		{"uint64", uint64(7), Int(7)},
		{"integral float", float64(6), Int(6)},
		{"json number", json.Number("12"), Int(12)},
		{"value passthrough", Object{"a": Int(1)}, Object{"a": Int(1)}},
		{"nested", map[string]any{"counter": 5, "items": []any{"a", nil}}, Object{"counter": Int(5), "items": Array{String("a"), Null{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestFromGoRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"fractional float", 1.5},
		{"json float", json.Number("1.0")},
		{"nested float", map[string]any{"counter": 2.5}},
		{"unsupported", struct{}{}},
		{"non-string keys", map[int]any{1: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromGo(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestToGo(t *testing.T) {
	v := Object{
		"counter": Int(5),
		"name":    String("n"),
		"ok":      Bool(true),
		"none":    Null{},
		"list":    Array{Int(1)},
	}

	assert.Equal(t, map[string]any{
		"counter": int64(5),
		"name":    "n",
		"ok":      true,
		"none":    nil,
		"list":    []any{int64(1)},
	}, ToGo(v))
	assert.Nil(t, ToGo(nil))
}
