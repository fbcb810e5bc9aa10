package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil and Null", nil, Null{}, true},
		{"Null and Null", Null{}, Null{}, true},
		{"null and zero", Null{}, Int(0), false},
		{"ints", Int(5), Int(5), true},
		{"different ints", Int(5), Int(6), false},
		{"int and string", Int(5), String("5"), false},
		{"bools", Bool(true), Bool(true), true},
		{"strings", String("a"), String("b"), false},
		{"array order matters", Array{Int(1), Int(2)}, Array{Int(2), Int(1)}, false},
		{"array length", Array{Int(1)}, Array{Int(1), Int(1)}, false},
		{"objects ignore construction order", NewObject(O("a", Int(1)), O("b", Int(2))), NewObject(O("b", Int(2)), O("a", Int(1))), true},
		{"object missing key", Object{"a": Int(1)}, Object{"b": Int(1)}, false},
		{"object extra key", Object{"a": Int(1)}, Object{"a": Int(1), "b": Int(2)}, false},
		{"nested", Object{"x": Array{Object{"y": Null{}}}}, Object{"x": Array{Object{"y": nil}}}, true},
		{"nested differs", Object{"x": Array{Object{"y": Int(1)}}}, Object{"x": Array{Object{"y": Int(2)}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a), "Equal must be symmetric")
		})
	}
}
