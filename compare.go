package cmpby

import "cmp"

// CompareBool orders false before true.
func CompareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return +1
	}
}

// EqualComplex128 compares the real and the imaginary parts with
// cmp.Compare, so that a NaN part equals itself and -0 equals +0, in line
// with HashComplex128.
func EqualComplex128(a, b complex128) bool {
	return cmp.Compare(real(a), real(b)) == 0 && cmp.Compare(imag(a), imag(b)) == 0
}
