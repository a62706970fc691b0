package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plan(t *testing.T, src, name string) (*Plan, Diagnostics) {
	t.Helper()
	res, diags := Resolve(schemaOf(t, src, name))
	require.Empty(t, diags)
	return BuildPlan(res)
}

func TestBuildPlanOrder(t *testing.T) {
	t.Run("declaration order by default", func(t *testing.T) {
		p, diags := plan(t, `package model

//cmpby:derive
type Pair struct {
	A int
	B string
}
`, "Pair")
		require.Empty(t, diags)
		require.Len(t, p.Variants, 1)
		assert.Equal(t, []string{"A", "B"}, keyNames(p.Variants[0].Keys))
	})

	t.Run("priorities then declaration", func(t *testing.T) {
		p, diags := plan(t, `package model

//cmpby:derive
type Entry struct {
	A int
	B int 'cmp:"5"'
	C int
	D int 'cmp:"-"'
	E int 'cmp:"0"'
}
`, "Entry")
		require.Empty(t, diags)
		assert.Equal(t, []string{"A", "E", "C", "B"}, keyNames(p.Variants[0].Keys))
	})

	t.Run("sum variants keep their ordinals", func(t *testing.T) {
		p, diags := plan(t, `package model

//cmpby:derive
//cmpby:variants Square Circle
type Shape interface{ isShape() }

type Circle struct{ R float64 }

type Square struct{ S float64 }

func (Circle) isShape()  {}
func (*Square) isShape() {}
`, "Shape")
		require.Empty(t, diags)
		require.Len(t, p.Variants, 2)
		assert.Equal(t, "Square", p.Variants[0].Name)
		assert.Equal(t, 0, p.Variants[0].Ordinal)
		assert.True(t, p.Variants[0].Pointer)
		assert.Equal(t, "Circle", p.Variants[1].Name)
		assert.Equal(t, 1, p.Variants[1].Ordinal)
		assert.False(t, p.Variants[1].Pointer)
		assert.True(t, p.Sum())
		assert.True(t, p.Funcs())
		assert.Equal(t, 2, p.NumKeys())
	})
}

func TestBuildPlanErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "compared but not hashed",
			src: `package model

//cmpby:derive
type Entry struct {
	A int 'hash:"-"'
}
`,
			want: []string{"field is compared but excluded from hashing"},
		},
		{
			name: "hashed but not compared",
			src: `package model

//cmpby:derive
type Entry struct {
	A int 'cmp:"-" hash:"include"'
}
`,
			want: []string{"field is hashed but excluded from comparison"},
		},
		{
			name: "map key",
			src: `package model

//cmpby:derive
type Entry struct {
	M map[string]int
}
`,
			want: []string{
				"type map[string]int has no equality",
				"type map[string]int has no total order",
				"type map[string]int cannot be hashed",
			},
		},
		{
			name: "unordered struct key",
			src: `package model

type Point struct{ X, Y int }

//cmpby:derive cmp
type Entry struct {
	P Point
}
`,
			want: []string{"type Point has no total order"},
		},
		{
			name: "own equality without hash",
			src: `package model

type Name struct{ s string }

func (n Name) Equal(o Name) bool { return n.s == o.s }

//cmpby:derive eq hash
type Entry struct {
	N Name
}
`,
			want: []string{"type Name defines its own equality but no Hash(cmpby.Hasher) method"},
		},
		{
			name: "struct holding floats",
			src: `package model

type Vec struct{ X, Y float64 }

//cmpby:derive eq hash
type Entry struct {
	V Vec
}
`,
			want: []string{"type Vec holds floating-point values: == is not reflexive for NaN"},
		},
		{
			name: "complex array",
			src: `package model

//cmpby:derive eq
type Entry struct {
	C [2]complex128
}
`,
			want: []string{"type [2]complex128 holds floating-point values"},
		},
		{
			name: "float array accessor",
			src: `package model

//cmpby:derive eq
//cmpby:keys Coords() _fields
type Entry struct{}

func (Entry) Coords() [2]float64 { return [2]float64{} }
`,
			want: []string{"type [2]float64 holds floating-point values"},
		},
		{
			name: "generic struct with a slice",
			src: `package model

type List[T any] struct{ Items []T }

//cmpby:derive func eq
type Entry[T any] struct {
	L List[T]
}
`,
			want: []string{"type List[T] has no equality"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := plan(t, tt.src, "Entry")
			var errs []error
			for _, d := range diags {
				if d.Severity == SeverityError {
					errs = append(errs, d.Err)
				}
			}
			require.Len(t, errs, len(tt.want), "diagnostics: %v", errorMessages(diags))
			for i, want := range tt.want {
				assert.Contains(t, errs[i].Error(), want)
				assert.True(t, IsPlanError(errs[i]))
			}
		})
	}
}

func TestBuildPlanHashSelectionWithoutHash(t *testing.T) {
	p, diags := plan(t, `package model

//cmpby:derive eq cmp
type Entry struct {
	A int 'hash:"-"'
}
`, "Entry")
	require.Empty(t, diags)
	assert.Equal(t, []string{"A"}, keyNames(p.Variants[0].Keys))
}

func TestBuildPlanWarnings(t *testing.T) {
	t.Run("no keys", func(t *testing.T) {
		_, diags := plan(t, `package model

//cmpby:derive
type Empty struct {
	cache []int 'cmp:"-"'
}
`, "Empty")
		require.Len(t, diags, 1)
		assert.Equal(t, SeverityWarning, diags[0].Severity)
		assert.Contains(t, diags[0].Err.Error(), "type has no comparison keys")
	})

	t.Run("pointer key", func(t *testing.T) {
		_, diags := plan(t, `package model

//cmpby:derive eq
type Ref struct {
	P *int
}
`, "Ref")
		require.Len(t, diags, 1)
		assert.Equal(t, SeverityWarning, diags[0].Severity)
		assert.Contains(t, diags[0].Err.Error(), "key P of type *int is compared by address")
	})

	t.Run("interface key", func(t *testing.T) {
		_, diags := plan(t, `package model

//cmpby:derive eq hash
type Tagged struct {
	V any
	E error
}
`, "Tagged")
		require.Len(t, diags, 2)
		for _, d := range diags {
			assert.Equal(t, SeverityWarning, d.Severity)
		}
		assert.Contains(t, diags[0].Err.Error(), "key V of interface type any panics if its dynamic value is not comparable")
		assert.Contains(t, diags[1].Err.Error(), "key E of interface type error panics")
	})

	t.Run("hashed interface key", func(t *testing.T) {
		_, diags := plan(t, `package model

//cmpby:derive hash
type Tagged struct {
	V any
}
`, "Tagged")
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Err.Error(), "key V of interface type any panics")
	})
}

func TestBuildPlanAccessorKeys(t *testing.T) {
	p, diags := plan(t, `package model

//cmpby:derive
//cmpby:keys Len() _fields Name()
type List struct {
	Items []string
}

func (l List) Len() int      { return len(l.Items) }
func (l *List) Name() string { return "" }
`, "List")
	require.Empty(t, diags)
	assert.Equal(t, []string{"Len"}, keyNames(p.Leading))
	assert.Equal(t, []string{"Items"}, keyNames(p.Variants[0].Keys))
	assert.Equal(t, []string{"Name"}, keyNames(p.Trailing))
	assert.True(t, p.Leading[0].Accessor)
	assert.Equal(t, 3, p.NumKeys())
}

func TestBuildPlanFieldPathKeys(t *testing.T) {
	p, diags := plan(t, `package model

type Meta struct {
	Rev  int
	Note string
}

type Inner struct{ Meta }

//cmpby:derive
//cmpby:keys meta.Rev inner.Note _fields
type Doc struct {
	Title string
	meta  Meta  'cmp:"-"'
	inner Inner 'cmp:"-"'
}
`, "Doc")
	require.Empty(t, diags)
	require.Len(t, p.Leading, 2)

	rev := p.Leading[0]
	assert.Equal(t, "meta.Rev", rev.Name)
	assert.False(t, rev.Accessor)
	assert.True(t, rev.Addressable())
	assert.Equal(t, []int{1, 0}, rev.Path)
	assert.Equal(t, "int", rev.Type.Expr)

	note := p.Leading[1]
	assert.Equal(t, "inner.Note", note.Name)
	assert.Equal(t, []int{2, 0, 1}, note.Path, "promoted fields go through the embedded field")
	assert.Equal(t, []string{"Title"}, keyNames(p.Variants[0].Keys))
}
