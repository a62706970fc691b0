// Package cmpby is the runtime support package for code generated by
// cmpbygen.
//
// cmpbygen reads struct and sealed-interface declarations annotated with
// //cmpby: directives and generates equality, ordering and hashing code that
// only looks at the selected comparison keys:
//
//	//cmpby:derive
//	type Entry struct {
//	    Key   string `cmp:"priority=1"`
//	    Rev   int    `cmp:"priority=2"`
//	    cache []byte `cmp:"-"`
//	}
//
// The generated methods are
//
//	func (x Entry) Equal(y Entry) bool
//	func (x Entry) Compare(y Entry) int
//	func (x Entry) Hash(h cmpby.Hasher)
//
// Sum types are interfaces whose variants are the struct types implementing
// them. Values of different variants order by variant declaration order:
//
//	//cmpby:derive
//	//cmpby:variants Circle Square
//	type Shape interface{ isShape() }
//
// For sum types cmpbygen emits the package-level functions EqualShape,
// CompareShape and HashShape.
//
// This package holds the pieces generated code calls into: the [Hasher]
// accumulator interface and the typed feed helpers, plus [CompareBool].
// It implements no hash algorithm; any [Hasher] works, *maphash.Hash being
// the usual choice.
package cmpby
