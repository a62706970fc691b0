package cmpby_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/cmpby"
)

func TestCompareBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b bool
		want int
	}{
		{false, false, 0},
		{true, true, 0},
		{false, true, -1},
		{true, false, +1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cmpby.CompareBool(tt.a, tt.b), "CompareBool(%v, %v)", tt.a, tt.b)
	}
}

func TestEqualComplex128(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	tests := []struct {
		name string
		a, b complex128
		want bool
	}{
		{"equal", complex(1, 2), complex(1, 2), true},
		{"real differs", complex(1, 2), complex(3, 2), false},
		{"imag differs", complex(1, 2), complex(1, 3), false},
		{"NaN real part", complex(nan, 0), complex(nan, 0), true},
		{"NaN imag part", complex(0, nan), complex(0, nan), true},
		{"NaN against number", complex(nan, 0), complex(0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cmpby.EqualComplex128(tt.a, tt.b))
		})
	}
}
