package load

import (
	"fmt"
	"go/token"
	"go/types"
	"strconv"
)

// RuntimePath is the import path of the runtime support package that
// generated code depends on.
const RuntimePath = "github.com/syssam/cmpby"

// TypeKind is the shape of a type once named types are unwrapped.
type TypeKind uint8

// Type shapes.
const (
	InvalidType TypeKind = iota
	BasicType
	ParamType
	PointerType
	SliceType
	ArrayType
	MapType
	StructType
	InterfaceType
	FuncType
	ChanType
)

var typeKindNames = [...]string{
	InvalidType:   "invalid",
	BasicType:     "basic",
	ParamType:     "param",
	PointerType:   "pointer",
	SliceType:     "slice",
	ArrayType:     "array",
	MapType:       "map",
	StructType:    "struct",
	InterfaceType: "interface",
	FuncType:      "func",
	ChanType:      "chan",
}

// String implements fmt.Stringer.
func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "TypeKind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (k TypeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TypeKind) UnmarshalText(text []byte) error {
	for i, name := range typeKindNames {
		if name == string(text) {
			*k = TypeKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown type kind %q", text)
}

// Basic is the category of a basic underlying type.
type Basic uint8

// Basic categories.
const (
	NotBasic Basic = iota
	Bool
	Int
	Uint
	Float
	Complex
	String
)

var basicNames = [...]string{
	NotBasic: "",
	Bool:     "bool",
	Int:      "int",
	Uint:     "uint",
	Float:    "float",
	Complex:  "complex",
	String:   "string",
}

// String implements fmt.Stringer.
func (b Basic) String() string {
	if int(b) < len(basicNames) {
		return basicNames[b]
	}
	return "Basic(" + strconv.Itoa(int(b)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (b Basic) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Basic) UnmarshalText(text []byte) error {
	for i, name := range basicNames {
		if name == string(text) {
			*b = Basic(i)
			return nil
		}
	}
	return fmt.Errorf("unknown basic category %q", text)
}

// Caps describes what a type supports. The generator picks the operation
// for each comparison key from these bits.
type Caps struct {
	// Comparable reports whether values can be compared with ==.
	Comparable bool `json:"comparable,omitempty"`
	// Ordered reports whether values can be ordered with <.
	Ordered bool `json:"ordered,omitempty"`
	// Equal, Compare and Hash report whether the type has the method
	// of that name with the signature the generator emits, or the
	// matching package function when Funcs is set.
	Equal   bool `json:"equal,omitempty"`
	Compare bool `json:"compare,omitempty"`
	Hash    bool `json:"hash,omitempty"`
	// Funcs is set for types whose capabilities are provided by the
	// generated package functions EqualT, CompareT and HashT.
	Funcs bool `json:"funcs,omitempty"`
	// Floats reports whether == compares floating-point numbers, held
	// directly or in struct fields and array elements. Such values are
	// not equal to themselves when they hold a NaN.
	Floats bool `json:"floats,omitempty"`
	// ParamComparable reports whether values can be compared with == once
	// every type parameter they mention is comparable.
	ParamComparable bool `json:"param_comparable,omitempty"`
}

// TypeRef is a resolved type expression.
type TypeRef struct {
	// Expr is the type as written in the declaring package.
	Expr  string   `json:"expr"`
	Kind  TypeKind `json:"kind"`
	Basic Basic    `json:"basic,omitempty"`
	// PkgPath and Name identify named types and, for ParamType, Name is
	// the type parameter name.
	PkgPath string `json:"pkg_path,omitempty"`
	Name    string `json:"name,omitempty"`
	// Elem is the element type of pointers, slices and arrays.
	Elem *TypeRef `json:"elem,omitempty"`
	// Args are the type arguments of an instantiated generic type.
	Args []*TypeRef `json:"args,omitempty"`
	// Derived is set for named types of the package that carry a
	// //cmpby:derive directive.
	Derived bool `json:"derived,omitempty"`
	// Params lists the type parameters the type mentions.
	Params []string `json:"params,omitempty"`
	Caps   Caps     `json:"caps"`
}

// Named reports whether the reference is to a named type.
func (t *TypeRef) Named() bool { return t.Name != "" && t.Kind != ParamType }

// Bytes reports whether the type is a []byte.
func (t *TypeRef) Bytes() bool {
	if t.Kind != SliceType || t.Elem == nil {
		return false
	}
	e := t.Elem
	return e.Kind == BasicType && !e.Named() && (e.Expr == "byte" || e.Expr == "uint8")
}

// Pos is a source position.
type Pos struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool { return p.Line > 0 }

// String implements fmt.Stringer.
func (p Pos) String() string {
	pos := token.Position{Filename: p.Filename, Line: p.Line, Column: p.Column}
	return pos.String()
}

// orderedIface is the type set of cmp.Ordered.
var orderedIface = func() *types.Interface {
	kinds := []types.BasicKind{
		types.Int, types.Int8, types.Int16, types.Int32, types.Int64,
		types.Uint, types.Uint8, types.Uint16, types.Uint32, types.Uint64, types.Uintptr,
		types.Float32, types.Float64, types.String,
	}
	terms := make([]*types.Term, 0, len(kinds))
	for _, k := range kinds {
		terms = append(terms, types.NewTerm(true, types.Typ[k]))
	}
	iface := types.NewInterfaceType(nil, []types.Type{types.NewUnion(terms)})
	iface.Complete()
	return iface
}()

// describer turns go/types types into TypeRefs, relative to the package
// being extracted.
type describer struct {
	pkg *types.Package
	// derived holds the capabilities the generator will add to the types
	// annotated in pkg.
	derived map[*types.TypeName]Caps
}

func (d *describer) qualifier(p *types.Package) string {
	if p == d.pkg {
		return ""
	}
	return p.Name()
}

// maxElemDepth bounds the element expansion of recursive types like
// type L []L.
const maxElemDepth = 3

// describe resolves t. Method capabilities are looked up in the method set
// of addressable values when addressable is set.
func (d *describer) describe(t types.Type, addressable bool) *TypeRef {
	return d.describeDepth(t, addressable, 0)
}

func (d *describer) describeDepth(t types.Type, addressable bool, depth int) *TypeRef {
	ref := &TypeRef{
		Expr: types.TypeString(t, d.qualifier),
		Caps: Caps{
			Comparable:      types.Comparable(t),
			Floats:          holdsFloats(t),
			ParamComparable: comparableWithParams(t),
		},
	}
	if b, ok := t.Underlying().(*types.Basic); ok {
		ref.Basic = basicOf(b)
		ref.Caps.Ordered = b.Info()&types.IsOrdered != 0
	}
	elem := func(t types.Type) *TypeRef {
		if depth >= maxElemDepth {
			return nil
		}
		return d.describeDepth(t, true, depth+1)
	}
	switch u := t.Underlying().(type) {
	case *types.Basic:
		ref.Kind = BasicType
	case *types.Pointer:
		ref.Kind = PointerType
		ref.Elem = elem(u.Elem())
	case *types.Slice:
		ref.Kind = SliceType
		ref.Elem = elem(u.Elem())
	case *types.Array:
		ref.Kind = ArrayType
		ref.Elem = elem(u.Elem())
	case *types.Map:
		ref.Kind = MapType
	case *types.Struct:
		ref.Kind = StructType
	case *types.Interface:
		ref.Kind = InterfaceType
	case *types.Signature:
		ref.Kind = FuncType
	case *types.Chan:
		ref.Kind = ChanType
	}
	switch t := types.Unalias(t).(type) {
	case *types.TypeParam:
		ref.Kind = ParamType
		ref.Name = t.Obj().Name()
		ref.Caps.Ordered = types.Satisfies(t, orderedIface)
	case *types.Named:
		obj := t.Origin().Obj()
		ref.Name = obj.Name()
		if obj.Pkg() != nil {
			ref.PkgPath = obj.Pkg().Path()
		}
		if caps, ok := d.derived[obj]; ok {
			ref.Derived = true
			ref.Caps.Equal, ref.Caps.Compare, ref.Caps.Hash = caps.Equal, caps.Compare, caps.Hash
			ref.Caps.Funcs = caps.Funcs
		}
		args := t.TypeArgs()
		for i := 0; i < args.Len(); i++ {
			ref.Args = append(ref.Args, d.arg(args.At(i), depth))
		}
	}
	if !ref.Caps.Funcs {
		ref.Caps.Equal = ref.Caps.Equal || d.hasMethod(t, addressable, "Equal", isBoolResult)
		ref.Caps.Compare = ref.Caps.Compare || d.hasMethod(t, addressable, "Compare", isIntResult)
		ref.Caps.Hash = ref.Caps.Hash || d.hasHashMethod(t, addressable)
	}
	ref.Params = typeParams(t, nil)
	return ref
}

// arg describes a type argument. Past the depth bound only the expression
// is kept.
func (d *describer) arg(t types.Type, depth int) *TypeRef {
	if depth >= maxElemDepth {
		return &TypeRef{Expr: types.TypeString(t, d.qualifier)}
	}
	return d.describeDepth(t, false, depth+1)
}

// holdsFloats reports whether == on values of t compares floating-point or
// complex numbers.
func holdsFloats(t types.Type) bool {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return u.Info()&(types.IsFloat|types.IsComplex) != 0
	case *types.Array:
		return holdsFloats(u.Elem())
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if holdsFloats(u.Field(i).Type()) {
				return true
			}
		}
	}
	return false
}

// comparableWithParams reports whether == applies to values of t when every
// type parameter it mentions is comparable. Unlike types.Comparable it
// assumes the comparable bound for the parameters.
func comparableWithParams(t types.Type) bool {
	if _, ok := types.Unalias(t).(*types.TypeParam); ok {
		return true
	}
	switch u := t.Underlying().(type) {
	case *types.Basic, *types.Pointer, *types.Chan, *types.Interface:
		return true
	case *types.Array:
		return comparableWithParams(u.Elem())
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if !comparableWithParams(u.Field(i).Type()) {
				return false
			}
		}
		return true
	}
	return false
}

func basicOf(b *types.Basic) Basic {
	info := b.Info()
	switch {
	case info&types.IsBoolean != 0:
		return Bool
	case info&types.IsUnsigned != 0:
		return Uint
	case info&types.IsInteger != 0:
		return Int
	case info&types.IsFloat != 0:
		return Float
	case info&types.IsComplex != 0:
		return Complex
	case info&types.IsString != 0:
		return String
	}
	return NotBasic
}

// hasMethod reports whether t has a method name(t) R where R satisfies the
// result predicate.
func (d *describer) hasMethod(t types.Type, addressable bool, name string, result func(types.Type) bool) bool {
	sig := d.method(t, addressable, name)
	if sig == nil || sig.Params().Len() != 1 || sig.Results().Len() != 1 || sig.Variadic() {
		return false
	}
	return types.Identical(sig.Params().At(0).Type(), t) && result(sig.Results().At(0).Type())
}

// hasHashMethod reports whether t has a method Hash(cmpby.Hasher).
func (d *describer) hasHashMethod(t types.Type, addressable bool) bool {
	sig := d.method(t, addressable, "Hash")
	if sig == nil || sig.Params().Len() != 1 || sig.Results().Len() != 0 {
		return false
	}
	named, ok := types.Unalias(sig.Params().At(0).Type()).(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Name() == "Hasher" && obj.Pkg() != nil && obj.Pkg().Path() == RuntimePath
}

func (d *describer) method(t types.Type, addressable bool, name string) *types.Signature {
	obj, _, _ := types.LookupFieldOrMethod(t, addressable, d.pkg, name)
	fn, ok := obj.(*types.Func)
	if !ok {
		return nil
	}
	sig, _ := fn.Type().(*types.Signature)
	return sig
}

func isBoolResult(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Kind() == types.Bool
}

func isIntResult(t types.Type) bool {
	return types.Identical(t, types.Typ[types.Int])
}

// typeParams appends the names of the type parameters mentioned by t.
func typeParams(t types.Type, names []string) []string {
	switch t := types.Unalias(t).(type) {
	case *types.TypeParam:
		name := t.Obj().Name()
		for _, n := range names {
			if n == name {
				return names
			}
		}
		return append(names, name)
	case *types.Named:
		args := t.TypeArgs()
		for i := 0; i < args.Len(); i++ {
			names = typeParams(args.At(i), names)
		}
	case *types.Pointer:
		names = typeParams(t.Elem(), names)
	case *types.Slice:
		names = typeParams(t.Elem(), names)
	case *types.Array:
		names = typeParams(t.Elem(), names)
	case *types.Map:
		names = typeParams(t.Key(), names)
		names = typeParams(t.Elem(), names)
	case *types.Chan:
		names = typeParams(t.Elem(), names)
	case *types.Struct:
		for i := 0; i < t.NumFields(); i++ {
			names = typeParams(t.Field(i).Type(), names)
		}
	}
	return names
}

// hasTypeTerms reports whether the interface restricts its type set with
// type terms, directly or through embedded interfaces.
func hasTypeTerms(iface *types.Interface) bool {
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		switch e := iface.EmbeddedType(i).Underlying().(type) {
		case *types.Interface:
			if hasTypeTerms(e) {
				return true
			}
		default:
			// Unions and single non-interface terms.
			return true
		}
	}
	return false
}
