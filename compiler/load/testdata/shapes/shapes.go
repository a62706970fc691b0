package shapes

import "github.com/syssam/cmpby"

// Build is compared and hashed by its own methods.
type Build struct{ N int }

func (b Build) Equal(o Build) bool  { return b.N == o.N }
func (b Build) Hash(h cmpby.Hasher) { cmpby.HashInt64(h, int64(b.N)) }

//cmpby:derive eq hash
type Version struct {
	Major int
	Build Build
}

// Same calls a generated method. The generated file is excluded while
// loading, so this does not type-check during extraction.
func (v Version) Same(o Version) bool { return v.Equal(o) }

//cmpby:derive
type Shape interface{ isShape() }

type Circle struct{ R float64 }

type Square struct{ S float64 }

func (Circle) isShape() {}
func (Square) isShape() {}
