package gen

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/cmpby/compiler/load"
)

// moduleImporter imports the standard library from source and the runtime
// support package from the root of this module.
type moduleImporter struct {
	fset    *token.FileSet
	std     types.ImporterFrom
	runtime *types.Package
}

func newModuleImporter(fset *token.FileSet) *moduleImporter {
	return &moduleImporter{
		fset: fset,
		std:  importer.ForCompiler(fset, "source", nil).(types.ImporterFrom),
	}
}

func (m *moduleImporter) Import(path string) (*types.Package, error) {
	return m.ImportFrom(path, "", 0)
}

func (m *moduleImporter) ImportFrom(path, dir string, mode types.ImportMode) (*types.Package, error) {
	if path != load.RuntimePath {
		return m.std.ImportFrom(path, dir, mode)
	}
	if m.runtime != nil {
		return m.runtime, nil
	}
	names, err := filepath.Glob(filepath.Join("..", "..", "*.go"))
	if err != nil {
		return nil, err
	}
	var files []*ast.File
	for _, name := range names {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(m.fset, name, nil, 0)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	conf := types.Config{Importer: m.std}
	pkg, err := conf.Check(load.RuntimePath, m.fset, files, nil)
	if err != nil {
		return nil, err
	}
	m.runtime = pkg
	return pkg, nil
}

// typeCheck generates the code for every annotated type of src and
// type-checks it together with src. It returns the type errors.
func typeCheck(t *testing.T, src string) []string {
	t.Helper()
	pkg := parse(t, src)
	logics, diags := ProcessPackage(pkg)
	require.Empty(t, errorMessages(diags))
	require.NotEmpty(t, logics)

	f := NewFile(pkg.PkgPath, pkg.Name, "")
	for _, l := range logics {
		Emit(f, l)
	}
	out := f.GoString()

	fset := token.NewFileSet()
	model, err := parser.ParseFile(fset, "model.go", source(src), 0)
	require.NoError(t, err)
	generated, err := parser.ParseFile(fset, "model_cmpby.go", out, 0)
	require.NoError(t, err, out)

	var errs []string
	conf := types.Config{
		Importer: newModuleImporter(fset),
		Error:    func(err error) { errs = append(errs, err.Error()) },
	}
	_, _ = conf.Check(pkg.PkgPath, fset, []*ast.File{model, generated}, nil)
	if len(errs) > 0 {
		t.Logf("generated code:\n%s", out)
	}
	return errs
}

func TestGeneratedCodeTypeChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("type-checks the standard library from source")
	}
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "record methods",
			src: `package model

//cmpby:derive
type Entry struct {
	Key  string 'cmp:"1"'
	Rev  int    'cmp:"2"'
	Temp float64
	Raw  []byte 'cmp:"-"'
	On   bool
	IDs  [3]int
}
`,
		},
		{
			name: "record funcs",
			src: `package model

//cmpby:derive func
type Pair struct {
	Name  string
	Items []int
	Raw   []byte 'cmp:"-"'
	Flag  bool
}
`,
		},
		{
			name: "generic records",
			src: `package model

//cmpby:derive func
type Box[T any] struct{ V T }

//cmpby:derive func
type Pair[T any, U any] struct {
	B  Box[T]
	Us []U
}

//cmpby:derive
type Ints struct{ P Pair[int, string] }
`,
		},
		{
			name: "sums",
			src: `package model

//cmpby:derive
type Shape interface{ isShape() }

type Circle struct{ R float64 }

type Square struct{ S int }

type Dot struct{}

func (Circle) isShape()  {}
func (*Square) isShape() {}
func (Dot) isShape()     {}

//cmpby:derive
type Scene struct {
	Name string
	Main Shape
}
`,
		},
		{
			name: "nested sums",
			src: `package model

//cmpby:derive
type Expr interface{ isExpr() }

type Lit struct{ V int }

type Neg struct{ X Expr }

func (Lit) isExpr() {}
func (Neg) isExpr() {}
`,
		},
		{
			name: "generic sums",
			src: `package model

//cmpby:derive
type Expr[T any] interface{ isExpr() }

type Lit[T any] struct{ V T }

type Neg[T any] struct{ X Expr[T] }

func (Lit[T]) isExpr()  {}
func (*Neg[T]) isExpr() {}

//cmpby:derive
type Holder struct{ E Expr[int] }
`,
		},
		{
			name: "floating-point keys",
			src: `package model

//cmpby:derive eq hash
type Sample struct {
	V  [2]float64
	C  complex128
	C6 complex64
	F  []float32
}
`,
		},
		{
			name: "accessors and field paths",
			src: `package model

type Span struct{ Lo, Hi int }

//cmpby:derive
//cmpby:keys Len() span.Hi _fields
type Range struct {
	Name  string
	Items []string 'cmp:"-"'
	span  Span     'cmp:"-"'
}

func (r Range) Len() int { return len(r.Items) }
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Empty(t, typeCheck(t, tt.src))
		})
	}
}
