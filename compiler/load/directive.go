package load

import (
	"go/ast"
	"go/token"
	"strings"
)

// DirectivePrefix starts every comment directive understood by cmpbygen.
const DirectivePrefix = "//cmpby:"

// Type-level directive names.
const (
	// DirectiveDerive marks a type for generation: //cmpby:derive [eq] [cmp] [hash] [func].
	DirectiveDerive = "derive"
	// DirectiveVariants lists the variants of a sum type in order.
	DirectiveVariants = "variants"
	// DirectiveField sets the comparison selection of a field that cannot
	// carry a struct tag: //cmpby:field Circle.Radius priority=2.
	DirectiveField = "field"
	// DirectiveHash sets the hash selection of a field.
	DirectiveHash = "hash"
	// DirectiveKeys lists accessor keys around the _fields marker.
	DirectiveKeys = "keys"
)

// FieldsMarker stands for the field keys inside a //cmpby:keys list.
const FieldsMarker = "_fields"

// Directive is one //cmpby: comment line attached to a type declaration.
type Directive struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
	Pos  Pos      `json:"pos"`
}

// String renders the directive as written.
func (d *Directive) String() string {
	if len(d.Args) == 0 {
		return DirectivePrefix + d.Name
	}
	return DirectivePrefix + d.Name + " " + strings.Join(d.Args, " ")
}

// Derive is the set of capabilities requested by //cmpby:derive.
type Derive struct {
	Equal   bool `json:"equal,omitempty"`
	Compare bool `json:"compare,omitempty"`
	Hash    bool `json:"hash,omitempty"`
	// Funcs requests package functions instead of methods. It is implied
	// for sum types.
	Funcs bool `json:"funcs,omitempty"`
}

// Any reports whether at least one capability is requested.
func (d Derive) Any() bool { return d.Equal || d.Compare || d.Hash }

// ParseDerive merges the words of the given derive directives. A directive
// without capability words requests all of them. Unknown words are returned
// as they were written.
func ParseDerive(ds []*Directive) (Derive, []string) {
	var (
		d       Derive
		unknown []string
	)
	for _, dir := range ds {
		named := false
		for _, w := range dir.Args {
			switch w {
			case "eq":
				d.Equal, named = true, true
			case "cmp":
				d.Compare, named = true, true
			case "hash":
				d.Hash, named = true, true
			case "func":
				d.Funcs = true
			default:
				unknown = append(unknown, w)
			}
		}
		if !named {
			d.Equal, d.Compare, d.Hash = true, true, true
		}
	}
	return d, unknown
}

// parseDirectives returns the //cmpby: lines of the comment group.
func parseDirectives(fset *token.FileSet, cg *ast.CommentGroup) []*Directive {
	if cg == nil {
		return nil
	}
	var ds []*Directive
	for _, c := range cg.List {
		rest, ok := strings.CutPrefix(c.Text, DirectivePrefix)
		if !ok {
			continue
		}
		words := strings.FieldsFunc(rest, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
		d := &Directive{Pos: position(fset, c.Slash)}
		if len(words) > 0 {
			d.Name = words[0]
		}
		if len(words) > 1 {
			d.Args = words[1:]
		}
		ds = append(ds, d)
	}
	return ds
}

// Lookup returns the directives with the given name.
func Lookup(ds []*Directive, name string) []*Directive {
	var found []*Directive
	for _, d := range ds {
		if d.Name == name {
			found = append(found, d)
		}
	}
	return found
}

func position(fset *token.FileSet, p token.Pos) Pos {
	if !p.IsValid() {
		return Pos{}
	}
	tp := fset.Position(p)
	return Pos{Filename: tp.Filename, Line: tp.Line, Column: tp.Column}
}
