package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cmpby/compiler/load"
)

func TestResolveSelections(t *testing.T) {
	s := schemaOf(t, `package model

//cmpby:derive
//cmpby:field Note -
//cmpby:hash Rev include
type Entry struct {
	Key  string 'cmp:"priority=1"'
	Rev  int
	Note string
	Tmp  []byte 'cmp:"-" hash:"-"'
}
`, "Entry")
	res, diags := Resolve(s)
	require.Empty(t, diags)
	assert.Equal(t, load.Derive{Equal: true, Compare: true, Hash: true}, res.Derive)
	require.Len(t, res.Variants, 1)
	fs := res.Variants[0].Fields
	require.Len(t, fs, 4)

	assert.Equal(t, Included{Priority: 1, Explicit: true}, fs[0].Cmp)
	assert.Nil(t, fs[0].Hash)
	assert.Equal(t, Included{Priority: 1}, fs[1].Cmp)
	assert.Equal(t, Included{}, fs[1].Hash)
	assert.Equal(t, Excluded{}, fs[2].Cmp)
	assert.Equal(t, Excluded{}, fs[3].Cmp)
	assert.Equal(t, Excluded{}, fs[3].Hash)
	for i, f := range fs {
		assert.Equal(t, i, f.Decl)
	}
}

func TestResolveDerive(t *testing.T) {
	t.Run("capability words", func(t *testing.T) {
		s := schemaOf(t, `package model

//cmpby:derive eq hash
type Entry struct{ Key string }
`, "Entry")
		res, diags := Resolve(s)
		require.Empty(t, diags)
		assert.Equal(t, load.Derive{Equal: true, Hash: true}, res.Derive)
	})

	t.Run("func mode", func(t *testing.T) {
		s := schemaOf(t, `package model

//cmpby:derive func
type Entry struct{ Key string }
`, "Entry")
		res, diags := Resolve(s)
		require.Empty(t, diags)
		assert.Equal(t, load.Derive{Equal: true, Compare: true, Hash: true, Funcs: true}, res.Derive)
	})

	t.Run("sum types always use functions", func(t *testing.T) {
		s := schemaOf(t, `package model

//cmpby:derive cmp
type Shape interface{ isShape() }

type Circle struct{ R float64 }

func (Circle) isShape() {}
`, "Shape")
		res, diags := Resolve(s)
		require.Empty(t, diags)
		assert.Equal(t, load.Derive{Compare: true, Funcs: true}, res.Derive)
	})
}

func TestResolveVariantTargets(t *testing.T) {
	s := schemaOf(t, `package model

//cmpby:derive
//cmpby:field Circle.R priority=0
//cmpby:hash Rect.W include
type Shape interface{ isShape() }

type Circle struct{ X, R float64 }

type Rect struct{ W, H float64 }

func (Circle) isShape() {}
func (Rect) isShape()   {}
`, "Shape")
	res, diags := Resolve(s)
	require.Empty(t, diags)
	require.Len(t, res.Variants, 2)
	circle, rect := res.Variants[0], res.Variants[1]
	assert.Equal(t, "Circle", circle.Name)
	assert.Equal(t, Included{Priority: 0}, circle.Fields[0].Cmp)
	assert.Equal(t, Included{Priority: 0, Explicit: true}, circle.Fields[1].Cmp)
	assert.Equal(t, Included{}, rect.Fields[0].Hash)
	assert.Nil(t, rect.Fields[1].Hash)
}

func TestResolveKeys(t *testing.T) {
	s := schemaOf(t, `package model

//cmpby:derive
//cmpby:keys Area() _fields Name()
type Shape interface {
	Area() float64
	Name() string
}

type Circle struct{ R float64 }

func (c Circle) Area() float64 { return 3 * c.R * c.R }
func (Circle) Name() string     { return "circle" }
`, "Shape")
	res, diags := Resolve(s)
	require.Empty(t, diags)
	require.Len(t, res.Leading, 1)
	require.Len(t, res.Trailing, 1)
	assert.Equal(t, "Area", res.Leading[0].Name)
	assert.Equal(t, "Name", res.Trailing[0].Name)
}

func TestResolveFieldPathKeys(t *testing.T) {
	s := schemaOf(t, `package model

type Span struct{ Lo, Hi int }

//cmpby:derive
//cmpby:keys span.Hi Len() _fields span
type Range struct {
	Name string
	span Span 'cmp:"-"'
}

func (r Range) Len() int { return r.span.Hi - r.span.Lo }
`, "Range")
	res, diags := Resolve(s)
	require.Empty(t, diags)
	require.Len(t, res.Leading, 2)
	require.Len(t, res.Trailing, 1)
	assert.Equal(t, "span.Hi", res.Leading[0].Name)
	assert.Equal(t, []int{1, 1}, res.Leading[0].Path)
	assert.Equal(t, "Len", res.Leading[1].Name)
	assert.False(t, res.Leading[1].Field())
	assert.Equal(t, "span", res.Trailing[0].Name)
	assert.Equal(t, []int{1}, res.Trailing[0].Path)
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "duplicate priority",
			src: `package model

//cmpby:derive
type Entry struct {
	A int 'cmp:"1"'
	B int 'cmp:"priority=1"'
}
`,
			want: "fields A and B have the same priority 1",
		},
		{
			name: "tag and directive",
			src: `package model

//cmpby:derive
//cmpby:field A -
type Entry struct {
	A int 'cmp:"-"'
}
`,
			want: "field has both a cmp tag and a field directive",
		},
		{
			name: "unknown target",
			src: `package model

//cmpby:derive
//cmpby:field Z -
type Entry struct{ A int }
`,
			want: "directive field targets an unknown field",
		},
		{
			name: "duplicate directive",
			src: `package model

//cmpby:derive
//cmpby:hash A -
//cmpby:hash A include
type Entry struct{ A int }
`,
			want: "duplicate hash directive",
		},
		{
			name: "missing target",
			src: `package model

//cmpby:derive
//cmpby:field
type Entry struct{ A int }
`,
			want: "missing target",
		},
		{
			name: "variants on a record",
			src: `package model

//cmpby:derive
//cmpby:variants A
type Entry struct{ A int }
`,
			want: "variants directive on a record",
		},
		{
			name: "unknown derive capability",
			src: `package model

//cmpby:derive eq sort
type Entry struct{ A int }
`,
			want: `unknown derive capability "sort"`,
		},
		{
			name: "unknown directive",
			src: `package model

//cmpby:derive
//cmpby:order A
type Entry struct{ A int }
`,
			want: `unknown directive "order"`,
		},
		{
			name: "unknown selection option",
			src: `package model

//cmpby:derive
type Entry struct {
	A int 'cmp:"first"'
}
`,
			want: `unknown selection option "first"`,
		},
		{
			name: "hash priority",
			src: `package model

//cmpby:derive
type Entry struct {
	A int 'hash:"2"'
}
`,
			want: "hash selection does not take a priority",
		},
		{
			name: "unknown accessor",
			src: `package model

//cmpby:derive
//cmpby:keys Size() _fields
type Entry struct{ A int }
`,
			want: "unknown accessor",
		},
		{
			name: "unknown field path",
			src: `package model

//cmpby:derive
//cmpby:keys a.missing _fields
type Entry struct{ a struct{ B int } }
`,
			want: "unknown field path",
		},
		{
			name: "field path through a pointer",
			src: `package model

type Inner struct{ B int }

//cmpby:derive
//cmpby:keys in.B _fields
type Entry struct{ in *Inner }
`,
			want: "unknown field path",
		},
		{
			name: "method listed as a field path",
			src: `package model

//cmpby:derive
//cmpby:keys Size _fields
type Entry struct{ A int }

func (Entry) Size() int { return 0 }
`,
			want: "unknown field path",
		},
		{
			name: "fields marker twice",
			src: `package model

//cmpby:derive
//cmpby:keys _fields _fields
type Entry struct{ A int }
`,
			want: "_fields listed twice",
		},
		{
			name: "duplicate keys directive",
			src: `package model

//cmpby:derive
//cmpby:keys _fields
//cmpby:keys _fields
type Entry struct{ A int }
`,
			want: "duplicate keys directive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := Resolve(schemaOf(t, tt.src, "Entry"))
			msgs := errorMessages(diags)
			require.Len(t, msgs, 1, "diagnostics: %v", msgs)
			assert.Contains(t, msgs[0], tt.want)
			assert.True(t, IsAnnotationError(diags[0].Err))
		})
	}
}

func TestResolveRejectedSelectionDefaultsToInclusion(t *testing.T) {
	s := schemaOf(t, `package model

//cmpby:derive
type Entry struct {
	A int 'cmp:"first"'
	B int
}
`, "Entry")
	res, diags := Resolve(s)
	require.True(t, diags.HasErrors())
	assert.Equal(t, Included{Priority: 0}, res.Variants[0].Fields[0].Cmp)
	assert.Equal(t, Included{Priority: 1}, res.Variants[0].Fields[1].Cmp)
}
