package gen

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cmpby/compiler/load"
)

const inspectSource = `package model

//cmpby:derive
type Entry struct {
	Key string 'cmp:"1"'
	Rev int
	Ptr *int 'cmp:"-"'
}

//cmpby:derive
//cmpby:variants Circle Square
type Shape interface{ isShape() }

type Circle struct{ R float64 }

type Square struct{ S int }

func (Circle) isShape()  {}
func (*Square) isShape() {}

//cmpby:derive func eq
type Box[T any] struct{ V T }

//cmpby:derive
type Empty struct{}
`

func TestInspectGolden(t *testing.T) {
	in := Inspect(parse(t, inspectSource))
	out, err := json.MarshalIndent(in, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "inspect_model", append(out, '\n'))
}

func TestSummarize(t *testing.T) {
	l, diags := Process(schemaOf(t, `package model

//cmpby:derive eq hash
//cmpby:keys Size() _fields
type Bag struct {
	Items []string
	// Ties with Items, which comes first.
	Raw []byte 'cmp:"priority=0"'
}

func (b Bag) Size() int { return len(b.Items) }
`, "Bag"))
	require.Empty(t, diags)

	want := &TypeSummary{
		Name:         "Bag",
		Kind:         load.Record,
		Capabilities: []string{"eq", "hash"},
		Leading: []*StepSummary{
			{Key: "Size()", Type: "int", Priority: 0, Eq: EqOperator, Hash: HashInt},
		},
		Variants: []*VariantSummary{{
			Keys: []*StepSummary{
				{Key: "Items", Type: "[]string", Priority: 0, Eq: EqSlice, Hash: HashSlice},
				{Key: "Raw", Type: "[]byte", Priority: 0, Eq: EqBytes, Hash: HashBytes},
			},
		}},
	}
	if diff := cmp.Diff(want, Summarize(l)); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectFailures(t *testing.T) {
	in := Inspect(parse(t, `package model

//cmpby:derive eq
type Entry struct {
	A int 'cmp:"1"'
	B int 'cmp:"1"'
}

//cmpby:derive
type Ok struct{ N int }
`))
	require.Len(t, in.Types, 1)
	require.Equal(t, "Ok", in.Types[0].Name)
	want := []string{
		"model.go:6:2: error: cmpby: annotation error on type Entry at B: fields A and B have the same priority 1",
	}
	if diff := cmp.Diff(want, in.Diagnostics); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}
