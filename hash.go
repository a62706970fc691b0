package cmpby

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
)

// Hasher is the stateful accumulator generated Hash code feeds its keys
// into. *maphash.Hash, *bytes.Buffer and *strings.Builder all satisfy it.
type Hasher interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
}

// canonicalNaN is fed for every NaN so that NaN keys, which compare equal
// under cmp.Compare, also hash equal.
const canonicalNaN = 0x7ff8000000000001

// HashOrdinal feeds the variant ordinal of a sum type value.
func HashOrdinal(h Hasher, ordinal int) {
	HashInt64(h, int64(ordinal))
}

// HashBool feeds a boolean as a single byte.
func HashBool(h Hasher, v bool) {
	if v {
		_ = h.WriteByte(1)
		return
	}
	_ = h.WriteByte(0)
}

// HashInt64 feeds a signed integer.
func HashInt64(h Hasher, v int64) {
	HashUint64(h, uint64(v))
}

// HashUint64 feeds an unsigned integer in little-endian order.
func HashUint64(h Hasher, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

// HashFloat64 feeds a float. Negative zero is fed as positive zero and all
// NaNs are fed as one value, matching equality under cmp.Compare.
func HashFloat64(h Hasher, v float64) {
	switch {
	case v != v:
		HashUint64(h, canonicalNaN)
	case v == 0:
		HashUint64(h, 0)
	default:
		HashUint64(h, math.Float64bits(v))
	}
}

// HashComplex128 feeds the real part and then the imaginary part.
func HashComplex128(h Hasher, v complex128) {
	HashFloat64(h, real(v))
	HashFloat64(h, imag(v))
}

// HashString feeds the length of s followed by its bytes, so that adjacent
// string keys cannot run into each other.
func HashString(h Hasher, s string) {
	HashUint64(h, uint64(len(s)))
	_, _ = h.WriteString(s)
}

// HashBytes feeds the length of b followed by its contents.
func HashBytes(h Hasher, b []byte) {
	HashUint64(h, uint64(len(b)))
	_, _ = h.Write(b)
}

// HashSlice feeds the length of s followed by every element.
func HashSlice[S ~[]E, E comparable](h Hasher, s S) {
	HashUint64(h, uint64(len(s)))
	for _, e := range s {
		HashValue(h, e)
	}
}

// HashValue feeds any comparable value. Two values that are == feed the
// same bytes. Pointers and channels are fed by address.
func HashValue[T comparable](h Hasher, v T) {
	hashValue(h, reflect.ValueOf(&v).Elem())
}

// HashReflect feeds the value held by v exactly as HashValue feeds a value
// of type v.Type(). It panics if the type is not comparable.
func HashReflect(h Hasher, v reflect.Value) {
	hashValue(h, v)
}

func hashValue(h Hasher, v reflect.Value) {
	switch v.Kind() {
	case reflect.Bool:
		HashBool(h, v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		HashInt64(h, v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		HashUint64(h, v.Uint())
	case reflect.Float32, reflect.Float64:
		HashFloat64(h, v.Float())
	case reflect.Complex64, reflect.Complex128:
		HashComplex128(h, v.Complex())
	case reflect.String:
		HashString(h, v.String())
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		HashUint64(h, uint64(v.Pointer()))
	case reflect.Array:
		for i := range v.Len() {
			hashValue(h, v.Index(i))
		}
	case reflect.Struct:
		t := v.Type()
		for i := range v.NumField() {
			// Blank fields never take part in ==.
			if t.Field(i).Name == "_" {
				continue
			}
			hashValue(h, v.Field(i))
		}
	case reflect.Interface:
		if v.IsNil() {
			HashBool(h, false)
			return
		}
		HashBool(h, true)
		HashString(h, v.Elem().Type().String())
		hashValue(h, v.Elem())
	default:
		panic(fmt.Sprintf("cmpby: cannot hash value of non-comparable type %s", v.Type()))
	}
}
