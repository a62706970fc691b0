package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cmpby/compiler/load"
)

const opsSource = `package model

type Point struct{ X, Y int }

type Vec struct{ X, Y float64 }

type Version struct{ Major, Minor int }

func (v Version) Compare(o Version) int { return 0 }

//cmpby:derive func
type Ref struct{ ID string }

//cmpby:derive eq
type Row struct {
	B    bool
	I    int
	U    uint8
	F    float64
	C    complex128
	S    string
	Raw  []byte
	Ints []int
	Fs   []float64
	Arr  [3]int
	P    *int
	V    Version
	R    Ref
	M    map[string]int
	Pt   Point
	Refs []Ref
	FArr [2]float64
	CArr [2]complex64
	Vec  Vec
	Vecs []Vec
	Any  any
}
`

func fieldTypes(t *testing.T, src, name string) map[string]*load.TypeRef {
	t.Helper()
	s := schemaOf(t, src, name)
	types := make(map[string]*load.TypeRef)
	for _, v := range s.Variants {
		for _, f := range v.Fields {
			types[f.Name] = f.Type
		}
	}
	return types
}

func TestSelectOps(t *testing.T) {
	types := fieldTypes(t, opsSource, "Row")
	tests := []struct {
		field string
		eq    EqOp
		cmp   CmpOp
		hash  HashOp
	}{
		{"B", EqOperator, CmpBool, HashBool},
		{"I", EqOperator, CmpOrdered, HashInt},
		{"U", EqOperator, CmpOrdered, HashUint},
		{"F", EqFloat, CmpOrdered, HashFloat},
		{"C", EqComplex, 0, HashComplex},
		{"S", EqOperator, CmpOrdered, HashString},
		{"Raw", EqBytes, CmpBytes, HashBytes},
		{"Ints", EqSlice, CmpSlice, HashSlice},
		{"Fs", EqSliceCompare, CmpSlice, HashSlice},
		{"Arr", EqOperator, CmpArray, HashValue},
		{"P", EqOperator, 0, HashValue},
		{"V", EqCompareMethod, CmpMethod, 0},
		{"R", EqFunc, CmpFunc, HashFunc},
		{"M", 0, 0, 0},
		{"Pt", EqOperator, 0, HashValue},
		{"Refs", 0, 0, 0},
		{"FArr", EqArrayCompare, CmpArray, HashValue},
		{"CArr", 0, 0, HashValue},
		{"Vec", 0, 0, HashValue},
		{"Vecs", 0, 0, HashSlice},
		{"Any", EqOperator, 0, HashValue},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			typ, ok := types[tt.field]
			require.True(t, ok)
			assert.Equal(t, tt.eq, selectEq(typ, true), "eq of %s", typ.Expr)
			assert.Equal(t, tt.cmp, selectCmp(typ, true), "cmp of %s", typ.Expr)
			assert.Equal(t, tt.hash, selectHash(typ), "hash of %s", typ.Expr)
		})
	}
}

func TestSelectCmpArrayNeedsAddress(t *testing.T) {
	types := fieldTypes(t, opsSource, "Row")
	assert.Equal(t, CmpArray, selectCmp(types["Arr"], true))
	assert.Equal(t, CmpOp(0), selectCmp(types["Arr"], false))
	assert.Equal(t, EqOperator, selectEq(types["Arr"], false))
	assert.Equal(t, EqArrayCompare, selectEq(types["FArr"], true))
	assert.Equal(t, EqOp(0), selectEq(types["FArr"], false))
}

func TestSelectOpsTypeParams(t *testing.T) {
	types := fieldTypes(t, `package model

//cmpby:derive func
type Box[T any] struct {
	V  T
	Vs []T
}
`, "Box")
	v, vs := types["V"], types["Vs"]
	assert.Equal(t, EqOperator, selectEq(v, true))
	assert.Equal(t, CmpOrdered, selectCmp(v, true))
	assert.Equal(t, HashValue, selectHash(v))
	assert.Equal(t, EqSlice, selectEq(vs, true))
	assert.Equal(t, CmpSlice, selectCmp(vs, true))
	assert.Equal(t, HashSlice, selectHash(vs))
}

func TestSelectOpsGenericStructs(t *testing.T) {
	types := fieldTypes(t, `package model

type Wrap[T any] struct{ V T }

type List[T any] struct{ Items []T }

//cmpby:derive func eq hash
type Box[T any] struct {
	W Wrap[T]
	L List[T]
	A [2]Wrap[T]
}
`, "Box")
	tests := []struct {
		field string
		eq    EqOp
		hash  HashOp
	}{
		{"W", EqOperator, HashValue},
		{"L", 0, 0},
		{"A", EqOperator, HashValue},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			typ := types[tt.field]
			require.NotNil(t, typ)
			assert.Equal(t, tt.eq, selectEq(typ, true), "eq of %s", typ.Expr)
			assert.Equal(t, tt.hash, selectHash(typ), "hash of %s", typ.Expr)
		})
	}
}

func TestSynthesize(t *testing.T) {
	s := schemaOf(t, `package model

//cmpby:derive eq
//cmpby:keys Len() _fields
type List struct {
	Name  string
	Items []int
}

func (l List) Len() int { return len(l.Items) }
`, "List")
	l, diags := Process(s)
	require.Empty(t, diags)
	require.Len(t, l.Leading, 1)
	require.Len(t, l.Branches, 1)
	assert.Empty(t, l.Trailing)

	steps := l.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, "Len", steps[0].Key.Name)
	assert.Equal(t, EqOperator, steps[0].Eq)
	assert.Equal(t, EqOperator, steps[1].Eq)
	assert.Equal(t, EqSlice, steps[2].Eq)
	for _, s := range steps {
		assert.Zero(t, s.Cmp, "ordering was not requested")
		assert.Zero(t, s.Hash, "hashing was not requested")
	}
}

func TestOpStrings(t *testing.T) {
	assert.Equal(t, "slices.Equal", EqSlice.String())
	assert.Equal(t, "none", EqOp(0).String())
	assert.Equal(t, "none", EqOp(200).String())
	assert.Equal(t, "cmpby.CompareBool", CmpBool.String())
	assert.Equal(t, "none", CmpOp(0).String())
	assert.Equal(t, "cmpby.HashValue", HashValue.String())
	assert.Equal(t, "none", HashOp(0).String())

	text, err := CmpArray.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "slices.Compare[:]", string(text))
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, AllCapabilities, Capabilities(load.Derive{Equal: true, Compare: true, Hash: true}))
	assert.Equal(t, []Capability{CapabilityHash}, Capabilities(load.Derive{Hash: true}))
	assert.Empty(t, Capabilities(load.Derive{Funcs: true}))
	assert.Equal(t, "CompareEntry", CapabilityCompare.FuncName("Entry"))
	assert.Equal(t, "eq, cmp, hash", CapabilityNames())
	assert.True(t, CapabilityEqual.Enabled(load.Derive{Equal: true}))
	assert.False(t, Capability{Name: "sort"}.Enabled(load.Derive{Equal: true}))
}
