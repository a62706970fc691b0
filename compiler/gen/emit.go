package gen

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/cmpby/compiler/load"
)

// Header is the first line of every generated file.
const Header = "Code generated by cmpbygen. DO NOT EDIT."

// NewFile creates a jennifer file for the package with the generated-code
// header and the build constraint that hides it from extraction. A header
// that is not a generated-code marker is followed by the default one.
func NewFile(pkgPath, pkgName, header string) *jen.File {
	if header == "" {
		header = Header
	}
	f := jen.NewFilePathName(pkgPath, pkgName)
	f.HeaderComment(header)
	if !IsGeneratedHeader(header) {
		f.HeaderComment(Header)
	}
	f.HeaderComment("//go:build !" + load.BuildTag)
	return f
}

// Emit renders the equality, ordering and hashing of a processed type into
// f. The logic must come from Process without errors.
func Emit(f *jen.File, l *Logic) {
	e := &emitter{f: f, l: l, p: l.Plan, s: l.Plan.Schema}
	switch {
	case e.p.Sum():
		e.sum()
	case e.p.Funcs():
		e.recordFuncs()
	default:
		e.recordMethods()
	}
}

type emitter struct {
	f *jen.File
	l *Logic
	p *Plan
	s *load.Schema
}

// typeArgs returns the type parameter names as type arguments.
func (e *emitter) typeArgs() []jen.Code {
	args := make([]jen.Code, len(e.s.TypeParams))
	for i, tp := range e.s.TypeParams {
		args[i] = jen.Id(tp.Name)
	}
	return args
}

// named returns the instantiated type expression of a declaration of the
// package, like Box[T] for a generic type.
func (e *emitter) named(name string) *jen.Statement {
	if len(e.s.TypeParams) == 0 {
		return jen.Id(name)
	}
	return jen.Id(name).Types(e.typeArgs()...)
}

func (e *emitter) variantType(v *VariantPlan) *jen.Statement {
	if v.Pointer {
		return jen.Op("*").Add(e.named(v.Name))
	}
	return e.named(v.Name)
}

// typeParams returns the type parameter declarations with the constraints
// the bound pass computed for the capability. The zero capability yields
// the declared constraints.
func (e *emitter) typeParams(c Capability) []jen.Code {
	cons := e.l.Constraints[c]
	params := make([]jen.Code, len(e.s.TypeParams))
	for i, tp := range e.s.TypeParams {
		con := &Constraint{Param: tp.Name, Declared: tp.Constraint}
		if i < len(cons) {
			con = cons[i]
		}
		params[i] = jen.Id(tp.Name).Add(e.constraint(con))
	}
	return params
}

func (e *emitter) constraint(c *Constraint) jen.Code {
	declared := e.typeRef(c.Declared)
	open := c.Declared.Expr == "any" || c.Declared.Expr == "interface{}"
	switch {
	case c.Add == 0:
		return declared
	case c.Add&BoundOrdered != 0:
		if open || c.Declared.Expr == "comparable" {
			return jen.Qual("cmp", "Ordered")
		}
		return jen.Interface(declared, jen.Qual("cmp", "Ordered"))
	case open:
		return jen.Id("comparable")
	default:
		return jen.Interface(declared, jen.Id("comparable"))
	}
}

// typeRef renders a type reference. Named types of other packages are
// qualified so that jennifer tracks their imports.
func (e *emitter) typeRef(t *load.TypeRef) jen.Code {
	if t.Named() && t.PkgPath != "" && t.PkgPath != e.s.PkgPath && !strings.Contains(t.Expr, "[") {
		return jen.Qual(t.PkgPath, t.Name)
	}
	return jen.Id(t.Expr)
}

// decl starts a generated function, with type parameters if the type is
// generic.
func (e *emitter) decl(c Capability) *jen.Statement {
	s := jen.Func().Id(c.FuncName(e.s.Name))
	if len(e.s.TypeParams) > 0 {
		s = s.Types(e.typeParams(c)...)
	}
	return s
}

func operand(recv string, k *Key) *jen.Statement {
	s := jen.Id(recv)
	switch {
	case k.Accessor:
		return s.Dot(k.Name).Call()
	case len(k.Path) > 0:
		for _, name := range strings.Split(k.Name, ".") {
			s = s.Dot(name)
		}
		return s
	}
	return s.Dot(k.Name)
}

// funcRef returns the generated function of the capability for a key type,
// instantiated with the type arguments of the key type. Go cannot infer
// them from an interface-typed argument.
func (e *emitter) funcRef(c Capability, t *load.TypeRef) *jen.Statement {
	fn := jen.Id(c.FuncName(t.Name))
	if len(t.Args) == 0 {
		return fn
	}
	args := make([]jen.Code, len(t.Args))
	for i, a := range t.Args {
		args[i] = e.typeRef(a)
	}
	return fn.Types(args...)
}

func (e *emitter) eq(s *Step, x, y string) *jen.Statement {
	a, b := operand(x, s.Key), operand(y, s.Key)
	switch s.Eq {
	case EqOperator:
		return a.Op("==").Add(b)
	case EqFloat:
		return jen.Qual("cmp", "Compare").Call(a, b).Op("==").Lit(0)
	case EqMethod:
		return a.Dot("Equal").Call(b)
	case EqCompareMethod:
		return a.Dot("Compare").Call(b).Op("==").Lit(0)
	case EqFunc:
		return e.funcRef(CapabilityEqual, s.Key.Type).Call(a, b)
	case EqBytes:
		return jen.Qual("bytes", "Equal").Call(a, b)
	case EqSlice:
		return jen.Qual("slices", "Equal").Call(a, b)
	case EqSliceCompare:
		return jen.Qual("slices", "Compare").Call(a, b).Op("==").Lit(0)
	case EqArrayCompare:
		return jen.Qual("slices", "Compare").Call(a.Index(jen.Empty(), jen.Empty()), b.Index(jen.Empty(), jen.Empty())).Op("==").Lit(0)
	case EqComplex:
		if s.Key.Type.Expr != "complex128" {
			a, b = jen.Id("complex128").Call(a), jen.Id("complex128").Call(b)
		}
		return jen.Qual(load.RuntimePath, "EqualComplex128").Call(a, b)
	}
	panic(fmt.Sprintf("cmpby: no equality for key %s", s.Key.Name))
}

func (e *emitter) cmp(s *Step, x, y string) *jen.Statement {
	a, b := operand(x, s.Key), operand(y, s.Key)
	switch s.Cmp {
	case CmpOrdered:
		return jen.Qual("cmp", "Compare").Call(a, b)
	case CmpBool:
		return jen.Qual(load.RuntimePath, "CompareBool").Call(a, b)
	case CmpMethod:
		return a.Dot("Compare").Call(b)
	case CmpFunc:
		return e.funcRef(CapabilityCompare, s.Key.Type).Call(a, b)
	case CmpBytes:
		return jen.Qual("bytes", "Compare").Call(a, b)
	case CmpSlice:
		return jen.Qual("slices", "Compare").Call(a, b)
	case CmpArray:
		return jen.Qual("slices", "Compare").Call(a.Index(jen.Empty(), jen.Empty()), b.Index(jen.Empty(), jen.Empty()))
	}
	panic(fmt.Sprintf("cmpby: no ordering for key %s", s.Key.Name))
}

// hashConversions maps the basic hash operations to their helper and the
// parameter type of the helper.
var hashConversions = map[HashOp][2]string{
	HashBool:    {"HashBool", "bool"},
	HashInt:     {"HashInt64", "int64"},
	HashUint:    {"HashUint64", "uint64"},
	HashFloat:   {"HashFloat64", "float64"},
	HashComplex: {"HashComplex128", "complex128"},
	HashString:  {"HashString", "string"},
}

func (e *emitter) hash(s *Step, h, v string) *jen.Statement {
	a := operand(v, s.Key)
	if conv, ok := hashConversions[s.Hash]; ok {
		if s.Key.Type.Expr != conv[1] {
			a = jen.Id(conv[1]).Call(a)
		}
		return jen.Qual(load.RuntimePath, conv[0]).Call(jen.Id(h), a)
	}
	switch s.Hash {
	case HashMethod:
		return a.Dot("Hash").Call(jen.Id(h))
	case HashFunc:
		return e.funcRef(CapabilityHash, s.Key.Type).Call(jen.Id(h), a)
	case HashBytes:
		return jen.Qual(load.RuntimePath, "HashBytes").Call(jen.Id(h), a)
	case HashSlice:
		return jen.Qual(load.RuntimePath, "HashSlice").Call(jen.Id(h), a)
	case HashValue:
		return jen.Qual(load.RuntimePath, "HashValue").Call(jen.Id(h), a)
	}
	panic(fmt.Sprintf("cmpby: no hash for key %s", s.Key.Name))
}

// conj joins the equality of the steps with &&. It returns nil for no
// steps.
func (e *emitter) conj(steps []*Step, x, y string) *jen.Statement {
	var c *jen.Statement
	for _, s := range steps {
		if c == nil {
			c = e.eq(s, x, y)
			continue
		}
		c = c.Op("&&").Add(e.eq(s, x, y))
	}
	return c
}

// and joins two optional conditions, defaulting to true.
func and(a, b *jen.Statement) *jen.Statement {
	switch {
	case a == nil && b == nil:
		return jen.True()
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return a.Op("&&").Add(b)
}

// compares emits an early return for every step whose ordering is not zero.
func (e *emitter) compares(steps []*Step, x, y string) []jen.Code {
	stmts := make([]jen.Code, 0, len(steps))
	for _, s := range steps {
		stmts = append(stmts, jen.If(jen.Id("c").Op(":=").Add(e.cmp(s, x, y)), jen.Id("c").Op("!=").Lit(0)).Block(
			jen.Return(jen.Id("c")),
		))
	}
	return stmts
}

func (e *emitter) hashes(steps []*Step, h, v string) []jen.Code {
	stmts := make([]jen.Code, 0, len(steps))
	for _, s := range steps {
		stmts = append(stmts, e.hash(s, h, v))
	}
	return stmts
}

// recordSteps returns the steps of a record in comparison order.
func (e *emitter) recordSteps() []*Step {
	steps := append([]*Step(nil), e.l.Leading...)
	for _, b := range e.l.Branches {
		steps = append(steps, b.Steps...)
	}
	return append(steps, e.l.Trailing...)
}

func (e *emitter) recordMethods() {
	var (
		steps = e.recordSteps()
		recv  = func() *jen.Statement { return jen.Params(jen.Id("x").Add(e.named(e.s.Name))) }
	)
	if e.p.Derive.Equal {
		e.f.Comment("Equal reports whether x and y are equal on their comparison keys.")
		e.f.Func().Add(recv()).Id("Equal").Params(jen.Id("y").Add(e.named(e.s.Name))).Bool().Block(
			jen.Return(and(e.conj(steps, "x", "y"), nil)),
		)
	}
	if e.p.Derive.Compare {
		e.f.Comment("Compare orders x and y by their comparison keys. It returns -1, 0 or +1.")
		e.f.Func().Add(recv()).Id("Compare").Params(jen.Id("y").Add(e.named(e.s.Name))).Int().Block(
			append(e.compares(steps, "x", "y"), jen.Return(jen.Lit(0)))...,
		)
	}
	if e.p.Derive.Hash {
		e.f.Comment("Hash feeds the comparison keys of x into h.")
		e.f.Func().Add(recv()).Id("Hash").Params(jen.Id("h").Qual(load.RuntimePath, "Hasher")).Block(
			e.hashes(steps, "h", "x")...,
		)
	}
}

func (e *emitter) recordFuncs() {
	steps := e.recordSteps()
	name := e.s.Name
	if e.p.Derive.Equal {
		e.f.Commentf("%s reports whether x and y are equal on their comparison keys.", CapabilityEqual.FuncName(name))
		e.f.Add(e.decl(CapabilityEqual)).Params(jen.List(jen.Id("x"), jen.Id("y")).Add(e.named(name))).Bool().Block(
			jen.Return(and(e.conj(steps, "x", "y"), nil)),
		)
	}
	if e.p.Derive.Compare {
		e.f.Commentf("%s orders x and y by their comparison keys. It returns -1, 0 or +1.", CapabilityCompare.FuncName(name))
		e.f.Add(e.decl(CapabilityCompare)).Params(jen.List(jen.Id("x"), jen.Id("y")).Add(e.named(name))).Int().Block(
			append(e.compares(steps, "x", "y"), jen.Return(jen.Lit(0)))...,
		)
	}
	if e.p.Derive.Hash {
		e.f.Commentf("%s feeds the comparison keys of x into h.", CapabilityHash.FuncName(name))
		e.f.Add(e.decl(CapabilityHash)).Params(jen.Id("h").Qual(load.RuntimePath, "Hasher"), jen.Id("x").Add(e.named(name))).Block(
			e.hashes(steps, "h", "x")...,
		)
	}
}

// ordinalFunc returns the name of the generated variant ordinal function.
func (e *emitter) ordinalFunc() string {
	r, n := utf8.DecodeRuneInString(e.s.Name)
	return string(unicode.ToLower(r)) + e.s.Name[n:] + "Ordinal"
}

// normalFunc returns the name of the generated function dereferencing
// pointers to value-receiver variants.
func (e *emitter) normalFunc() string {
	r, n := utf8.DecodeRuneInString(e.s.Name)
	return string(unicode.ToLower(r)) + e.s.Name[n:] + "Normal"
}

// call calls a generated generic helper of the sum with its own type
// parameters as type arguments.
func (e *emitter) call(fn string, args ...jen.Code) *jen.Statement {
	s := jen.Id(fn)
	if len(e.s.TypeParams) > 0 {
		s = s.Types(e.typeArgs()...)
	}
	return s.Call(args...)
}

// valueVariants returns the variants implementing the sum with value
// receivers. Pointers to them implement the sum too.
func (e *emitter) valueVariants() []*VariantPlan {
	var vs []*VariantPlan
	for _, b := range e.l.Branches {
		if !b.Variant.Pointer {
			vs = append(vs, b.Variant)
		}
	}
	return vs
}

// helperDecl starts an unexported helper of the sum, with the declared type
// parameters.
func (e *emitter) helperDecl(name string) *jen.Statement {
	s := jen.Func().Id(name)
	if len(e.s.TypeParams) > 0 {
		s = s.Types(e.typeParams(Capability{})...)
	}
	return s
}

// sumParams returns the parameters x, y of the sum type.
func (e *emitter) sumParams() *jen.Statement {
	return jen.Params(jen.List(jen.Id("x"), jen.Id("y")).Add(e.named(e.s.Name)))
}

// hasKeys reports whether any variant has keys of its own.
func (e *emitter) hasKeys() bool {
	for _, b := range e.l.Branches {
		if len(b.Steps) > 0 {
			return true
		}
	}
	return false
}

func (e *emitter) sum() {
	var (
		name      = e.s.Name
		ordinal   = e.ordinalFunc()
		normal    = e.normalFunc()
		values    = e.valueVariants()
		accessors = len(e.l.Leading)+len(e.l.Trailing) > 0
		hasKeys   = e.hasKeys()
	)
	cases := make([]jen.Code, 0, len(e.l.Branches))
	for _, b := range e.l.Branches {
		cases = append(cases, jen.Case(e.variantType(b.Variant)).Block(jen.Return(jen.Lit(b.Variant.Ordinal))))
	}
	e.f.Commentf("%s returns the variant ordinal of v, or -1 for nil and unknown types.", ordinal)
	e.f.Add(e.helperDecl(ordinal)).Params(jen.Id("v").Add(e.named(name))).Int().Block(
		jen.Switch(jen.Id("v").Assert(jen.Type())).Block(cases...),
		jen.Return(jen.Lit(-1)),
	)
	// normalize rebinds the parameters to the values that pointers to
	// value-receiver variants point to.
	normalize := func(params ...string) []jen.Code {
		if len(values) == 0 {
			return nil
		}
		lhs := make([]jen.Code, len(params))
		rhs := make([]jen.Code, len(params))
		for i, p := range params {
			lhs[i], rhs[i] = jen.Id(p), e.call(normal, jen.Id(p))
		}
		return []jen.Code{jen.List(lhs...).Op("=").List(rhs...)}
	}
	if len(values) > 0 {
		cases := make([]jen.Code, 0, len(values))
		for _, v := range values {
			cases = append(cases, jen.Case(jen.Op("*").Add(e.named(v.Name))).Block(
				jen.If(jen.Id("vv").Op("==").Nil()).Block(jen.Return(jen.Nil())),
				jen.Return(jen.Op("*").Id("vv")),
			))
		}
		e.f.Commentf("%s returns the variant a pointer to a value-receiver variant points to, nil for a nil pointer, and v otherwise.", normal)
		e.f.Add(e.helperDecl(normal)).Params(jen.Id("v").Add(e.named(name))).Add(e.named(name)).Block(
			jen.Switch(jen.Id("vv").Op(":=").Id("v").Assert(jen.Type())).Block(cases...),
			jen.Return(jen.Id("v")),
		)
	}

	if e.p.Derive.Equal {
		body := normalize("x", "y")
		body = append(body,
			jen.If(e.call(ordinal, jen.Id("x")).Op("!=").Add(e.call(ordinal, jen.Id("y")))).Block(jen.Return(jen.False())),
		)
		if accessors {
			body = append(body, jen.If(jen.Id("x").Op("==").Nil()).Block(jen.Return(jen.True())))
		}
		if lead := e.conj(e.l.Leading, "x", "y"); lead != nil {
			body = append(body, jen.If(jen.Op("!").Parens(lead)).Block(jen.Return(jen.False())))
		}
		if hasKeys {
			var cases []jen.Code
			for _, b := range e.l.Branches {
				if len(b.Steps) == 0 {
					continue
				}
				cases = append(cases, jen.Case(e.variantType(b.Variant)).Block(
					jen.Id("yv").Op(":=").Id("y").Assert(e.variantType(b.Variant)),
					jen.Return(and(e.conj(b.Steps, "xv", "yv"), e.conj(e.l.Trailing, "x", "y"))),
				))
			}
			body = append(body, jen.Switch(jen.Id("xv").Op(":=").Id("x").Assert(jen.Type())).Block(cases...))
		}
		body = append(body, jen.Return(and(e.conj(e.l.Trailing, "x", "y"), nil)))
		e.f.Commentf("%s reports whether x and y are the same variant and equal on its comparison keys.", CapabilityEqual.FuncName(name))
		e.f.Add(e.decl(CapabilityEqual)).Add(e.sumParams()).Bool().Block(body...)
	}

	if e.p.Derive.Compare {
		body := normalize("x", "y")
		body = append(body,
			jen.If(
				jen.Id("c").Op(":=").Qual("cmp", "Compare").Call(e.call(ordinal, jen.Id("x")), e.call(ordinal, jen.Id("y"))),
				jen.Id("c").Op("!=").Lit(0),
			).Block(jen.Return(jen.Id("c"))),
		)
		if accessors {
			body = append(body, jen.If(jen.Id("x").Op("==").Nil()).Block(jen.Return(jen.Lit(0))))
		}
		body = append(body, e.compares(e.l.Leading, "x", "y")...)
		if hasKeys {
			var cases []jen.Code
			for _, b := range e.l.Branches {
				if len(b.Steps) == 0 {
					continue
				}
				block := []jen.Code{jen.Id("yv").Op(":=").Id("y").Assert(e.variantType(b.Variant))}
				cases = append(cases, jen.Case(e.variantType(b.Variant)).Block(append(block, e.compares(b.Steps, "xv", "yv")...)...))
			}
			body = append(body, jen.Switch(jen.Id("xv").Op(":=").Id("x").Assert(jen.Type())).Block(cases...))
		}
		body = append(body, e.compares(e.l.Trailing, "x", "y")...)
		body = append(body, jen.Return(jen.Lit(0)))
		e.f.Commentf("%s orders x and y by variant, then by the comparison keys of the variant. It returns -1, 0 or +1.", CapabilityCompare.FuncName(name))
		e.f.Add(e.decl(CapabilityCompare)).Add(e.sumParams()).Int().Block(body...)
	}

	if e.p.Derive.Hash {
		body := normalize("v")
		body = append(body,
			jen.Qual(load.RuntimePath, "HashOrdinal").Call(jen.Id("h"), e.call(ordinal, jen.Id("v"))),
		)
		if accessors {
			body = append(body, jen.If(jen.Id("v").Op("==").Nil()).Block(jen.Return()))
		}
		body = append(body, e.hashes(e.l.Leading, "h", "v")...)
		if hasKeys {
			var cases []jen.Code
			for _, b := range e.l.Branches {
				if len(b.Steps) == 0 {
					continue
				}
				cases = append(cases, jen.Case(e.variantType(b.Variant)).Block(e.hashes(b.Steps, "h", "vv")...))
			}
			body = append(body, jen.Switch(jen.Id("vv").Op(":=").Id("v").Assert(jen.Type())).Block(cases...))
		}
		body = append(body, e.hashes(e.l.Trailing, "h", "v")...)
		e.f.Commentf("%s feeds the variant ordinal and the comparison keys of v into h.", CapabilityHash.FuncName(name))
		e.f.Add(e.decl(CapabilityHash)).Params(jen.Id("h").Qual(load.RuntimePath, "Hasher"), jen.Id("v").Add(e.named(name))).Block(body...)
	}
}
