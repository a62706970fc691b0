package gen

import (
	"github.com/syssam/cmpby/compiler/load"
)

// EqOp is the operation testing two key values for equality.
type EqOp uint8

// Equality operations.
const (
	_               EqOp = iota
	EqOperator           // a == b
	EqFloat              // cmp.Compare(a, b) == 0
	EqMethod             // a.Equal(b)
	EqCompareMethod      // a.Compare(b) == 0
	EqFunc               // EqualT(a, b)
	EqBytes              // bytes.Equal(a, b)
	EqSlice              // slices.Equal(a, b)
	EqSliceCompare       // slices.Compare(a, b) == 0
	EqArrayCompare       // slices.Compare(a[:], b[:]) == 0
	EqComplex            // cmpby.EqualComplex128(a, b)
)

var eqOpNames = [...]string{
	EqOperator:      "==",
	EqFloat:         "cmp.Compare==0",
	EqMethod:        "Equal",
	EqCompareMethod: "Compare==0",
	EqFunc:          "EqualFunc",
	EqBytes:         "bytes.Equal",
	EqSlice:         "slices.Equal",
	EqSliceCompare:  "slices.Compare==0",
	EqArrayCompare:  "slices.Compare[:]==0",
	EqComplex:       "cmpby.EqualComplex128",
}

// String implements fmt.Stringer.
func (op EqOp) String() string {
	if int(op) < len(eqOpNames) && eqOpNames[op] != "" {
		return eqOpNames[op]
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (op EqOp) MarshalText() ([]byte, error) { return []byte(op.String()), nil }

// CmpOp is the operation ordering two key values. It yields -1, 0 or +1.
type CmpOp uint8

// Ordering operations.
const (
	_          CmpOp = iota
	CmpOrdered       // cmp.Compare(a, b)
	CmpBool          // cmpby.CompareBool(a, b)
	CmpMethod        // a.Compare(b)
	CmpFunc          // CompareT(a, b)
	CmpBytes         // bytes.Compare(a, b)
	CmpSlice         // slices.Compare(a, b)
	CmpArray         // slices.Compare(a[:], b[:])
)

var cmpOpNames = [...]string{
	CmpOrdered: "cmp.Compare",
	CmpBool:    "cmpby.CompareBool",
	CmpMethod:  "Compare",
	CmpFunc:    "CompareFunc",
	CmpBytes:   "bytes.Compare",
	CmpSlice:   "slices.Compare",
	CmpArray:   "slices.Compare[:]",
}

// String implements fmt.Stringer.
func (op CmpOp) String() string {
	if int(op) < len(cmpOpNames) && cmpOpNames[op] != "" {
		return cmpOpNames[op]
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (op CmpOp) MarshalText() ([]byte, error) { return []byte(op.String()), nil }

// HashOp is the operation feeding a key value into a cmpby.Hasher.
type HashOp uint8

// Hash operations.
const (
	_           HashOp = iota
	HashBool           // cmpby.HashBool(h, bool(a))
	HashInt            // cmpby.HashInt64(h, int64(a))
	HashUint           // cmpby.HashUint64(h, uint64(a))
	HashFloat          // cmpby.HashFloat64(h, float64(a))
	HashComplex        // cmpby.HashComplex128(h, complex128(a))
	HashString         // cmpby.HashString(h, string(a))
	HashMethod         // a.Hash(h)
	HashFunc           // HashT(h, a)
	HashBytes          // cmpby.HashBytes(h, a)
	HashSlice          // cmpby.HashSlice(h, a)
	HashValue          // cmpby.HashValue(h, a)
)

var hashOpNames = [...]string{
	HashBool:    "cmpby.HashBool",
	HashInt:     "cmpby.HashInt64",
	HashUint:    "cmpby.HashUint64",
	HashFloat:   "cmpby.HashFloat64",
	HashComplex: "cmpby.HashComplex128",
	HashString:  "cmpby.HashString",
	HashMethod:  "Hash",
	HashFunc:    "HashFunc",
	HashBytes:   "cmpby.HashBytes",
	HashSlice:   "cmpby.HashSlice",
	HashValue:   "cmpby.HashValue",
}

// String implements fmt.Stringer.
func (op HashOp) String() string {
	if int(op) < len(hashOpNames) && hashOpNames[op] != "" {
		return hashOpNames[op]
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (op HashOp) MarshalText() ([]byte, error) { return []byte(op.String()), nil }

type (
	// Logic is the synthesized equality, ordering and hashing of one type,
	// independent of how it is rendered.
	Logic struct {
		Plan     *Plan
		Leading  []*Step
		Branches []*Branch
		Trailing []*Step
		// Constraints holds the rendered constraint of each type
		// parameter for the generated functions, per capability. It is
		// filled by the bound pass.
		Constraints map[Capability][]*Constraint

		// deps are the logics of sum types referenced by EqFunc, CmpFunc
		// and HashFunc steps, used by the reflective evaluator.
		deps map[string]*Logic
	}

	// Branch holds the steps of one variant.
	Branch struct {
		Variant *VariantPlan
		Steps   []*Step
	}

	// Step compares or hashes one key. Ops are zero for capabilities
	// that were not requested.
	Step struct {
		Key  *Key
		Eq   EqOp
		Cmp  CmpOp
		Hash HashOp
	}
)

// Synthesize derives the operations of every key of the plan. Keys that
// have no operation for a requested capability were already rejected by
// BuildPlan.
func Synthesize(p *Plan) *Logic {
	l := &Logic{Plan: p}
	steps := func(keys []*Key) []*Step {
		out := make([]*Step, 0, len(keys))
		for _, k := range keys {
			s := &Step{Key: k}
			if p.Derive.Equal {
				s.Eq = selectEq(k.Type, k.Addressable())
			}
			if p.Derive.Compare {
				s.Cmp = selectCmp(k.Type, k.Addressable())
			}
			if p.Derive.Hash {
				s.Hash = selectHash(k.Type)
			}
			out = append(out, s)
		}
		return out
	}
	l.Leading = steps(p.Leading)
	for _, v := range p.Variants {
		l.Branches = append(l.Branches, &Branch{Variant: v, Steps: steps(v.Keys)})
	}
	l.Trailing = steps(p.Trailing)
	return l
}

// Steps returns all steps of the logic: leading, per variant, trailing.
func (l *Logic) Steps() []*Step {
	steps := append([]*Step(nil), l.Leading...)
	for _, b := range l.Branches {
		steps = append(steps, b.Steps...)
	}
	return append(steps, l.Trailing...)
}

// Link makes the logics of other types of the package available to the
// evaluator, for keys whose type is one of them.
func (l *Logic) Link(deps ...*Logic) {
	l.deps = make(map[string]*Logic, len(deps))
	for _, d := range deps {
		l.deps[d.Plan.Schema.Name] = d
	}
}

// viaFuncs reports whether the type's capabilities come from generated
// package functions.
func viaFuncs(t *load.TypeRef) bool {
	return t.Caps.Funcs && t.Named()
}

// comparableShape reports whether values of t can be compared with ==,
// given that the type parameters it mentions get the comparable bound.
func comparableShape(t *load.TypeRef) bool {
	if t.Caps.Comparable {
		return true
	}
	return len(t.Params) > 0 && t.Caps.ParamComparable
}

// reflexiveShape reports whether == on t is an equivalence: t is comparable
// and holds no floating-point numbers, which compare unequal to themselves
// when NaN.
func reflexiveShape(t *load.TypeRef) bool {
	return comparableShape(t) && !t.Caps.Floats
}

// orderedShape reports whether t is ordered, given that the type
// parameters it mentions get the cmp.Ordered bound.
func orderedShape(t *load.TypeRef) bool {
	return t.Caps.Ordered || t.Kind == load.ParamType
}

// selectEq picks the equality operation for a key type, or zero if the type
// has none. Float arrays are sliced, which needs an addressable operand.
func selectEq(t *load.TypeRef, addressable bool) EqOp {
	switch {
	case t.Caps.Equal && viaFuncs(t):
		return EqFunc
	case t.Caps.Equal && !t.Caps.Funcs:
		return EqMethod
	case t.Caps.Compare && !t.Caps.Funcs:
		return EqCompareMethod
	case t.Kind == load.ParamType:
		return EqOperator
	case t.Basic == load.Float:
		return EqFloat
	case t.Basic == load.Complex:
		return EqComplex
	case t.Kind == load.ArrayType && t.Caps.Floats:
		if e := t.Elem; addressable && e != nil && e.Basic == load.Float {
			return EqArrayCompare
		}
		return 0
	case t.Kind == load.SliceType:
		switch e := t.Elem; {
		case t.Bytes():
			return EqBytes
		case e == nil:
			return 0
		case e.Caps.Equal || e.Caps.Compare:
			// slices.Equal would bypass the element's own equality.
			return 0
		case e.Basic == load.Float:
			return EqSliceCompare
		case reflexiveShape(e):
			return EqSlice
		}
		return 0
	case reflexiveShape(t):
		return EqOperator
	}
	return 0
}

// selectCmp picks the ordering operation for a key type, or zero if the type
// has no total order. Arrays are sliced, which needs an addressable operand.
func selectCmp(t *load.TypeRef, addressable bool) CmpOp {
	switch {
	case t.Caps.Compare && viaFuncs(t):
		return CmpFunc
	case t.Caps.Compare && !t.Caps.Funcs:
		return CmpMethod
	case t.Kind == load.ParamType:
		return CmpOrdered
	case t.Basic == load.Bool:
		return CmpBool
	case t.Caps.Ordered:
		return CmpOrdered
	case t.Kind == load.SliceType && t.Bytes():
		return CmpBytes
	case t.Kind == load.SliceType && t.Elem != nil && orderedShape(t.Elem):
		return CmpSlice
	case t.Kind == load.ArrayType && addressable && t.Elem != nil && orderedShape(t.Elem):
		return CmpArray
	}
	return 0
}

// selectHash picks the hash operation for a key type, or zero if the type
// cannot be hashed consistently with its equality.
func selectHash(t *load.TypeRef) HashOp {
	switch {
	case t.Caps.Hash && viaFuncs(t):
		return HashFunc
	case t.Caps.Hash && !t.Caps.Funcs:
		return HashMethod
	case t.Caps.Equal || t.Caps.Compare:
		// Equality is defined by a method, hashing the representation
		// could feed different bytes for equal values.
		return 0
	case t.Kind == load.ParamType:
		return HashValue
	}
	switch t.Basic {
	case load.Bool:
		return HashBool
	case load.Int:
		return HashInt
	case load.Uint:
		return HashUint
	case load.Float:
		return HashFloat
	case load.Complex:
		return HashComplex
	case load.String:
		return HashString
	}
	switch {
	case t.Kind == load.SliceType && t.Bytes():
		return HashBytes
	case t.Kind == load.SliceType:
		if e := t.Elem; e != nil && comparableShape(e) && !e.Caps.Equal && !e.Caps.Compare {
			return HashSlice
		}
		return 0
	case comparableShape(t):
		return HashValue
	}
	return 0
}
