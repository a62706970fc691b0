// Package load extracts the structural description of the types annotated
// with //cmpby:derive from Go packages.
package load

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// BuildTag is set while loading packages. Generated files are constrained
// with //go:build !cmpbygen so stale output never takes part in extraction.
const BuildTag = "cmpbygen"

type (
	// Config holds the configuration for loading packages.
	Config struct {
		// Dir is the directory the build tool runs in. Empty means the
		// current directory.
		Dir string
		// BuildFlags are passed to the build tool, next to the cmpbygen tag.
		BuildFlags []string
	}

	// Package is a loaded package with its annotated declarations.
	Package struct {
		Name    string `json:"name"`
		PkgPath string `json:"pkg_path"`
		// Dir is the directory holding the package sources.
		Dir     string    `json:"dir"`
		Schemas []*Schema `json:"schemas"`
		// Failures are annotated declarations that could not be described.
		Failures []*Failure `json:"failures,omitempty"`
	}

	// Failure reports an annotated declaration the extractor rejected.
	Failure struct {
		Type    string `json:"type"`
		Pos     Pos    `json:"pos"`
		Message string `json:"message"`
	}
)

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Type, f.Message)
}

// Load loads the packages matching the patterns and extracts their
// annotated declarations.
func (c *Config) Load(ctx context.Context, patterns ...string) ([]*Package, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	flags := append([]string{"-tags=" + BuildTag}, c.BuildFlags...)
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Dir:        c.Dir,
		BuildFlags: flags,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages %v: %w", patterns, err)
	}
	var errs []error
	out := make([]*Package, 0, len(pkgs))
	for _, p := range pkgs {
		for _, e := range p.Errors {
			// Type errors are expected: the package may call the methods
			// that the excluded generated file declares.
			if e.Kind != packages.TypeError {
				errs = append(errs, fmt.Errorf("%s: %s", p.PkgPath, e))
			}
		}
		if p.Types == nil || len(p.GoFiles) == 0 {
			continue
		}
		pkg := Extract(p.Fset, p.Syntax, p.Types, p.TypesInfo)
		pkg.Dir = filepath.Dir(p.GoFiles[0])
		out = append(out, pkg)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// ParseSource type-checks a single source file with the standard library
// importer and extracts its annotated declarations. The src argument is
// handled like in parser.ParseFile.
func ParseSource(filename string, src any) (*Package, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	info := &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
	}
	conf := types.Config{
		Importer: importer.ForCompiler(fset, "source", nil),
		// See Load for why type errors are tolerated.
		Error: func(error) {},
	}
	tpkg, _ := conf.Check(f.Name.Name, fset, []*ast.File{f}, info)
	if tpkg == nil {
		return nil, fmt.Errorf("type-checking %s failed", filename)
	}
	pkg := Extract(fset, []*ast.File{f}, tpkg, info)
	pkg.Dir = filepath.Dir(filename)
	return pkg, nil
}

// Extract describes the annotated declarations of a type-checked package.
func Extract(fset *token.FileSet, files []*ast.File, pkg *types.Package, info *types.Info) *Package {
	x := &extractor{
		fset: fset,
		pkg:  pkg,
		info: info,
		describer: &describer{
			pkg:     pkg,
			derived: make(map[*types.TypeName]Caps),
		},
	}
	x.collect(files)
	out := &Package{Name: pkg.Name(), PkgPath: pkg.Path()}
	for _, d := range x.decls {
		if !d.annotated() {
			continue
		}
		s, err := x.schema(d)
		if err != nil {
			out.Failures = append(out.Failures, err)
			continue
		}
		out.Schemas = append(out.Schemas, s)
	}
	return out
}

type (
	extractor struct {
		*describer
		fset  *token.FileSet
		pkg   *types.Package
		info  *types.Info
		decls []*decl
	}

	// decl is a type declaration of the package, in source order.
	decl struct {
		obj        *types.TypeName
		spec       *ast.TypeSpec
		directives []*Directive
	}
)

func (d *decl) annotated() bool {
	return len(Lookup(d.directives, DirectiveDerive)) > 0
}

// collect gathers the type declarations and records the capabilities that
// the annotated ones will get.
func (x *extractor) collect(files []*ast.File) {
	files = append([]*ast.File(nil), files...)
	sort.SliceStable(files, func(i, j int) bool {
		return x.fset.Position(files[i].Pos()).Filename < x.fset.Position(files[j].Pos()).Filename
	})
	for _, f := range files {
		for _, d := range f.Decls {
			gd, ok := d.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				obj, ok := x.info.Defs[ts.Name].(*types.TypeName)
				if !ok || obj.IsAlias() {
					continue
				}
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				x.decls = append(x.decls, &decl{obj: obj, spec: ts, directives: parseDirectives(x.fset, doc)})
			}
		}
	}
	for _, d := range x.decls {
		if !d.annotated() {
			continue
		}
		derive, _ := ParseDerive(Lookup(d.directives, DirectiveDerive))
		caps := Caps{Equal: derive.Equal, Compare: derive.Compare, Hash: derive.Hash, Funcs: derive.Funcs}
		if _, ok := d.obj.Type().Underlying().(*types.Interface); ok {
			caps.Funcs = true
		}
		x.derived[d.obj] = caps
	}
}

func (x *extractor) fail(d *decl, format string, args ...any) *Failure {
	return &Failure{Type: d.obj.Name(), Pos: position(x.fset, d.spec.Name.Pos()), Message: fmt.Sprintf(format, args...)}
}

func (x *extractor) schema(d *decl) (*Schema, *Failure) {
	s := &Schema{
		Name:       d.obj.Name(),
		PkgPath:    x.pkg.Path(),
		Directives: d.directives,
		Pos:        position(x.fset, d.spec.Name.Pos()),
	}
	named, ok := d.obj.Type().(*types.Named)
	if !ok {
		return nil, x.fail(d, "not a defined type")
	}
	tparams := named.TypeParams()
	for i := 0; i < tparams.Len(); i++ {
		tp := tparams.At(i)
		constraint := x.describe(tp.Constraint(), false)
		iface, _ := tp.Constraint().Underlying().(*types.Interface)
		s.TypeParams = append(s.TypeParams, &TypeParam{
			Name:       tp.Obj().Name(),
			Constraint: constraint,
			Terms:      iface != nil && hasTypeTerms(iface),
			Caps:       x.describe(tp, true).Caps,
		})
	}
	switch u := named.Underlying().(type) {
	case *types.Struct:
		s.Kind = Record
		fields, err := x.fields(d, u)
		if err != nil {
			return nil, err
		}
		s.Variants = []*Variant{{Fields: fields, Pos: s.Pos}}
		s.Accessors = x.accessors(types.NewMethodSet(types.NewPointer(named)))
		s.Accessors = append(s.Accessors, x.fieldPaths(d, named)...)
	case *types.Interface:
		s.Kind = Sum
		if u.NumMethods() == 0 {
			return nil, x.fail(d, "sum interface declares no methods, so its variants cannot be sealed")
		}
		variants, err := x.variants(d, named, u)
		if err != nil {
			return nil, err
		}
		s.Variants = variants
		s.Accessors = x.accessors(types.NewMethodSet(named))
	default:
		return nil, x.fail(d, "cannot derive for %s: only struct and interface types are supported", u)
	}
	return s, nil
}

func (x *extractor) fields(d *decl, st *types.Struct) ([]*Field, *Failure) {
	var fields []*Field
	for i := 0; i < st.NumFields(); i++ {
		v, tag := st.Field(i), reflect.StructTag(st.Tag(i))
		if v.Name() == "_" {
			_, cmpOK := tag.Lookup("cmp")
			_, hashOK := tag.Lookup("hash")
			if cmpOK || hashOK {
				return nil, x.fail(d, "blank field at index %d carries a selection directive", i)
			}
			continue
		}
		fields = append(fields, &Field{
			Name:     v.Name(),
			Index:    i,
			Embedded: v.Embedded(),
			Type:     x.describe(v.Type(), true),
			Tag:      st.Tag(i),
			Pos:      position(x.fset, v.Pos()),
		})
	}
	return fields, nil
}

// accessors returns the methods of the set that take no arguments and
// return one result, in method set order.
func (x *extractor) accessors(ms *types.MethodSet) []*Accessor {
	var as []*Accessor
	for i := 0; i < ms.Len(); i++ {
		fn, ok := ms.At(i).Obj().(*types.Func)
		if !ok {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if sig.Params().Len() != 0 || sig.Results().Len() != 1 {
			continue
		}
		as = append(as, &Accessor{
			Name: fn.Name(),
			Type: x.describe(sig.Results().At(0).Type(), false),
			Pos:  position(x.fset, fn.Pos()),
		})
	}
	return as
}

// fieldPaths resolves the field selectors listed by //cmpby:keys, like a or
// a.b, against the record type. Selectors that do not reach a field without
// a pointer indirection are left out, and reported by the generator.
func (x *extractor) fieldPaths(d *decl, t types.Type) []*Accessor {
	var (
		as   []*Accessor
		seen = make(map[string]bool)
	)
	for _, dir := range Lookup(d.directives, DirectiveKeys) {
		for _, arg := range dir.Args {
			if arg == FieldsMarker || strings.HasSuffix(arg, "()") || seen[arg] {
				continue
			}
			seen[arg] = true
			if a := x.fieldPath(t, arg, dir.Pos); a != nil {
				as = append(as, a)
			}
		}
	}
	return as
}

func (x *extractor) fieldPath(t types.Type, sel string, pos Pos) *Accessor {
	var path []int
	for _, name := range strings.Split(sel, ".") {
		if !token.IsIdentifier(name) {
			return nil
		}
		obj, index, indirect := types.LookupFieldOrMethod(t, false, x.pkg, name)
		v, ok := obj.(*types.Var)
		if !ok || !v.IsField() || indirect {
			return nil
		}
		path = append(path, index...)
		t = v.Type()
	}
	return &Accessor{Name: sel, Path: path, Type: x.describe(t, true), Pos: pos}
}

// variants resolves the variants of a sum interface. An explicit
// //cmpby:variants list fixes them and their order. Otherwise every struct
// type of the package implementing the interface is a variant, in source
// order.
func (x *extractor) variants(d *decl, named *types.Named, iface *types.Interface) ([]*Variant, *Failure) {
	var (
		variants []*Variant
		explicit = Lookup(d.directives, DirectiveVariants)
	)
	add := func(obj *types.TypeName, pos Pos) *Failure {
		st, ptr, ok := x.implements(obj, named, iface)
		if !ok {
			return x.fail(d, "variant %s does not implement %s", obj.Name(), d.obj.Name())
		}
		fields, err := x.fields(d, st)
		if err != nil {
			return err
		}
		variants = append(variants, &Variant{
			Name:    obj.Name(),
			Ordinal: len(variants),
			Pointer: ptr,
			Fields:  fields,
			Pos:     pos,
		})
		return nil
	}
	if len(explicit) > 0 {
		seen := make(map[string]bool)
		for _, dir := range explicit {
			for _, name := range dir.Args {
				if seen[name] {
					return nil, x.fail(d, "variant %s listed twice", name)
				}
				seen[name] = true
				obj, ok := x.pkg.Scope().Lookup(name).(*types.TypeName)
				if !ok {
					return nil, x.fail(d, "unknown variant %s", name)
				}
				if err := add(obj, position(x.fset, obj.Pos())); err != nil {
					return nil, err
				}
			}
		}
	} else {
		for _, c := range x.decls {
			if c.obj == d.obj {
				continue
			}
			if _, ok := c.obj.Type().Underlying().(*types.Struct); !ok {
				continue
			}
			if _, _, ok := x.implements(c.obj, named, iface); !ok {
				continue
			}
			if err := add(c.obj, position(x.fset, c.spec.Name.Pos())); err != nil {
				return nil, err
			}
		}
	}
	if len(variants) == 0 {
		return nil, x.fail(d, "sum type has no variants")
	}
	return variants, nil
}

// implements reports whether the struct type obj, or a pointer to it,
// implements the sum interface. Generic variants are instantiated with the
// type parameters of the interface, and the returned struct is the
// instantiated one so that field types mention the interface's parameters.
func (x *extractor) implements(obj *types.TypeName, sum *types.Named, iface *types.Interface) (*types.Struct, bool, bool) {
	var t types.Type = obj.Type()
	vnamed, ok := t.(*types.Named)
	if !ok {
		return nil, false, false
	}
	sumParams := sum.TypeParams()
	switch {
	case vnamed.TypeParams().Len() != sumParams.Len():
		return nil, false, false
	case sumParams.Len() > 0:
		args := make([]types.Type, sumParams.Len())
		for i := range args {
			args[i] = sumParams.At(i)
		}
		inst, err := types.Instantiate(nil, vnamed, args, false)
		if err != nil {
			return nil, false, false
		}
		t = inst
	}
	st, ok := t.Underlying().(*types.Struct)
	if !ok {
		return nil, false, false
	}
	switch {
	case types.Implements(t, iface):
		return st, false, true
	case types.Implements(types.NewPointer(t), iface):
		return st, true, true
	}
	return nil, false, false
}
