package gen

import (
	"bytes"
	"cmp"
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/cmpby"
)

// Equal evaluates the synthesized equality on x and y with reflection,
// with the semantics of the generated code. The values must be of the
// described type: the record itself, or any variant of a sum type (nil
// included). Keys read through methods must be exported.
func (l *Logic) Equal(x, y any) bool {
	return l.equal(reflect.ValueOf(x), reflect.ValueOf(y))
}

// Compare evaluates the synthesized ordering on x and y. See Equal.
func (l *Logic) Compare(x, y any) int {
	return l.compare(reflect.ValueOf(x), reflect.ValueOf(y))
}

// Hash evaluates the synthesized hashing of x into h. See Equal.
func (l *Logic) Hash(h cmpby.Hasher, x any) {
	l.hash(h, reflect.ValueOf(x))
}

func (l *Logic) equal(x, y reflect.Value) bool {
	x, y = l.normal(concrete(x)), l.normal(concrete(y))
	ox, oy := l.ordinal(x), l.ordinal(y)
	if ox != oy {
		return false
	}
	if !x.IsValid() {
		return true
	}
	for _, steps := range l.stepsOf(ox) {
		for _, s := range steps {
			if !l.evalEq(s, operandOf(x, s.Key), operandOf(y, s.Key)) {
				return false
			}
		}
	}
	return true
}

func (l *Logic) compare(x, y reflect.Value) int {
	x, y = l.normal(concrete(x)), l.normal(concrete(y))
	ox, oy := l.ordinal(x), l.ordinal(y)
	if c := cmp.Compare(ox, oy); c != 0 {
		return c
	}
	if !x.IsValid() {
		return 0
	}
	for _, steps := range l.stepsOf(ox) {
		for _, s := range steps {
			if c := l.evalCmp(s, operandOf(x, s.Key), operandOf(y, s.Key)); c != 0 {
				return c
			}
		}
	}
	return 0
}

func (l *Logic) hash(h cmpby.Hasher, v reflect.Value) {
	v = l.normal(concrete(v))
	o := l.ordinal(v)
	if l.Plan.Sum() {
		cmpby.HashOrdinal(h, o)
	}
	if !v.IsValid() {
		return
	}
	for _, steps := range l.stepsOf(o) {
		for _, s := range steps {
			l.evalHash(h, s, operandOf(v, s.Key))
		}
	}
}

// stepsOf returns the step lists applying to a value of the given variant
// ordinal, in comparison order.
func (l *Logic) stepsOf(ordinal int) [][]*Step {
	steps := [][]*Step{l.Leading}
	if ordinal >= 0 && ordinal < len(l.Branches) {
		steps = append(steps, l.Branches[ordinal].Steps)
	}
	return append(steps, l.Trailing)
}

// ordinal returns the variant ordinal of v, or -1 for nil and values of
// unknown types.
func (l *Logic) ordinal(v reflect.Value) int {
	if !l.Plan.Sum() {
		return 0
	}
	if !v.IsValid() {
		return -1
	}
	if b := l.branch(v.Type()); b != nil {
		return b.Variant.Ordinal
	}
	return -1
}

// branch returns the branch of the variant of type t, a struct type or a
// pointer to one, or nil.
func (l *Logic) branch(t reflect.Type) *Branch {
	ptr := false
	if t.Kind() == reflect.Pointer {
		t, ptr = t.Elem(), true
	}
	name, _, _ := strings.Cut(t.Name(), "[")
	for _, b := range l.Branches {
		if b.Variant.Name == name && b.Variant.Pointer == ptr {
			return b
		}
	}
	return nil
}

// normal dereferences a pointer to a variant that implements the sum with
// value receivers. A nil pointer becomes the zero Value, like a nil
// interface.
func (l *Logic) normal(v reflect.Value) reflect.Value {
	if !l.Plan.Sum() || !v.IsValid() || v.Kind() != reflect.Pointer {
		return v
	}
	if l.branch(v.Type().Elem()) == nil {
		return v
	}
	if v.IsNil() {
		return reflect.Value{}
	}
	return v.Elem()
}

// dep returns the logic of the named type for EqFunc, CmpFunc and HashFunc
// steps.
func (l *Logic) dep(name string) *Logic {
	if name == l.Plan.Schema.Name {
		return l
	}
	if d, ok := l.deps[name]; ok {
		return d
	}
	panic(fmt.Sprintf("cmpby: no logic linked for %s", name))
}

// concrete unwraps interfaces and returns an addressable copy of v when
// possible, so that pointer methods are reachable.
func concrete(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() || v.CanAddr() || !v.CanInterface() {
		return v
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p.Elem()
}

func operandOf(v reflect.Value, k *Key) reflect.Value {
	if k.Accessor {
		return call(v, k.Name)[0]
	}
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if len(k.Path) > 0 {
		return v.FieldByIndex(k.Path)
	}
	return v.Field(k.Index)
}

func call(v reflect.Value, name string, args ...reflect.Value) []reflect.Value {
	m := v.MethodByName(name)
	if !m.IsValid() && v.CanAddr() {
		m = v.Addr().MethodByName(name)
	}
	if !m.IsValid() {
		panic(fmt.Sprintf("cmpby: method %s of %s is not reachable by reflection", name, v.Type()))
	}
	return m.Call(args)
}

func (l *Logic) evalEq(s *Step, a, b reflect.Value) bool {
	switch s.Eq {
	case EqOperator:
		return a.Equal(b)
	case EqFloat:
		return cmp.Compare(a.Float(), b.Float()) == 0
	case EqMethod:
		return call(a, "Equal", b)[0].Bool()
	case EqCompareMethod:
		return call(a, "Compare", b)[0].Int() == 0
	case EqFunc:
		return l.dep(s.Key.Type.Name).equal(a, b)
	case EqBytes:
		return bytes.Equal(a.Bytes(), b.Bytes())
	case EqSlice:
		if a.Len() != b.Len() {
			return false
		}
		for i := range a.Len() {
			if !a.Index(i).Equal(b.Index(i)) {
				return false
			}
		}
		return true
	case EqSliceCompare, EqArrayCompare:
		return compareSeq(a, b) == 0
	case EqComplex:
		return cmpby.EqualComplex128(a.Complex(), b.Complex())
	}
	panic(fmt.Sprintf("cmpby: no equality for key %s", s.Key.Name))
}

func (l *Logic) evalCmp(s *Step, a, b reflect.Value) int {
	switch s.Cmp {
	case CmpOrdered:
		return compareOrdered(a, b)
	case CmpBool:
		return cmpby.CompareBool(a.Bool(), b.Bool())
	case CmpMethod:
		return int(call(a, "Compare", b)[0].Int())
	case CmpFunc:
		return l.dep(s.Key.Type.Name).compare(a, b)
	case CmpBytes:
		return bytes.Compare(a.Bytes(), b.Bytes())
	case CmpSlice, CmpArray:
		return compareSeq(a, b)
	}
	panic(fmt.Sprintf("cmpby: no ordering for key %s", s.Key.Name))
}

func (l *Logic) evalHash(h cmpby.Hasher, s *Step, v reflect.Value) {
	switch s.Hash {
	case HashBool:
		cmpby.HashBool(h, v.Bool())
	case HashInt:
		cmpby.HashInt64(h, v.Int())
	case HashUint:
		cmpby.HashUint64(h, v.Uint())
	case HashFloat:
		cmpby.HashFloat64(h, v.Float())
	case HashComplex:
		cmpby.HashComplex128(h, v.Complex())
	case HashString:
		cmpby.HashString(h, v.String())
	case HashMethod:
		call(v, "Hash", reflect.ValueOf(h))
	case HashFunc:
		l.dep(s.Key.Type.Name).hash(h, v)
	case HashBytes:
		cmpby.HashBytes(h, v.Bytes())
	case HashSlice:
		cmpby.HashUint64(h, uint64(v.Len()))
		for i := range v.Len() {
			cmpby.HashReflect(h, v.Index(i))
		}
	case HashValue:
		cmpby.HashReflect(h, v)
	default:
		panic(fmt.Sprintf("cmpby: no hash for key %s", s.Key.Name))
	}
}

// compareOrdered compares two values of an ordered kind like cmp.Compare.
func compareOrdered(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	}
	panic(fmt.Sprintf("cmpby: %s is not ordered", a.Type()))
}

// compareSeq compares two slices or arrays like slices.Compare.
func compareSeq(a, b reflect.Value) int {
	n := min(a.Len(), b.Len())
	for i := range n {
		if c := compareOrdered(a.Index(i), b.Index(i)); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Len(), b.Len())
}
