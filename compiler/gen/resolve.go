package gen

import (
	"reflect"
	"strings"

	"github.com/syssam/cmpby/compiler/load"
)

type (
	// Resolution is the outcome of directive resolution for one type.
	Resolution struct {
		Schema   *load.Schema
		Derive   load.Derive
		Variants []*ResolvedVariant
		// Leading and Trailing are the accessor and field path keys listed
		// before and after the _fields marker of //cmpby:keys.
		Leading, Trailing []*load.Accessor
	}

	// ResolvedVariant holds the field decisions of one variant.
	ResolvedVariant struct {
		*load.Variant
		Fields []*ResolvedField
	}

	// ResolvedField is a field with its selection decisions.
	ResolvedField struct {
		*load.Field
		// Decl is the declaration index of the field in its variant.
		Decl int
		// Cmp selects the field for equality and ordering.
		Cmp Decision
		// Hash selects the field for hashing. Nil means it follows Cmp.
		Hash Decision
	}
)

// target returns the name type-level directives use to address the field.
func (v *ResolvedVariant) target(f *load.Field) string {
	if v.Name == "" {
		return f.Name
	}
	return v.Name + "." + f.Name
}

// resolver holds the type-level directives of one schema while resolving
// its fields.
type resolver struct {
	s     *load.Schema
	diags Diagnostics
	// field and hash map a target to its //cmpby:field or //cmpby:hash
	// directive. Entries are deleted once matched.
	field map[string]*load.Directive
	hash  map[string]*load.Directive
}

// Resolve turns the raw directives of a schema into selection decisions.
// Errors are collected; the returned resolution is complete even when some
// directives were rejected, with rejected selections defaulting to the
// unannotated policy.
func Resolve(s *load.Schema) (*Resolution, Diagnostics) {
	r := &resolver{
		s:     s,
		field: make(map[string]*load.Directive),
		hash:  make(map[string]*load.Directive),
	}
	res := &Resolution{Schema: s}
	r.directives(res)
	for _, v := range s.Variants {
		res.Variants = append(res.Variants, r.variant(v))
	}
	for _, m := range []map[string]*load.Directive{r.field, r.hash} {
		for target, d := range m {
			r.errorf(target, d.Pos, "directive %s targets an unknown field", d.Name)
		}
	}
	r.diags.Sort()
	return res, r.diags
}

func (r *resolver) errorf(target string, pos load.Pos, format string, args ...any) {
	r.diags = append(r.diags, errorDiag(NewAnnotationError(r.s.Name, target, pos, format, args...)))
}

// directives resolves the type-level directives.
func (r *resolver) directives(res *Resolution) {
	var derives []*load.Directive
	keysSeen := false
	for _, d := range r.s.Directives {
		switch d.Name {
		case load.DirectiveDerive:
			derives = append(derives, d)
		case load.DirectiveVariants:
			if r.s.Kind != load.Sum {
				r.errorf(d.String(), d.Pos, "variants directive on a record")
			}
		case load.DirectiveField, load.DirectiveHash:
			m := r.field
			if d.Name == load.DirectiveHash {
				m = r.hash
			}
			if len(d.Args) == 0 {
				r.errorf(d.String(), d.Pos, "missing target")
				continue
			}
			target := d.Args[0]
			if _, dup := m[target]; dup {
				r.errorf(target, d.Pos, "duplicate %s directive", d.Name)
				continue
			}
			m[target] = d
		case load.DirectiveKeys:
			if keysSeen {
				r.errorf(d.String(), d.Pos, "duplicate keys directive")
				continue
			}
			keysSeen = true
			res.Leading, res.Trailing = r.keys(d)
		default:
			r.errorf(d.String(), d.Pos, "unknown directive %q", d.Name)
		}
	}
	derive, unknown := load.ParseDerive(derives)
	for _, w := range unknown {
		r.errorf(w, r.s.Pos, "unknown derive capability %q", w)
	}
	if r.s.Kind == load.Sum {
		derive.Funcs = true
	}
	res.Derive = derive
}

// keys resolves a //cmpby:keys directive into the accessors placed before
// and after the field keys. Arguments ending in () name methods, the others
// are field paths.
func (r *resolver) keys(d *load.Directive) (leading, trailing []*load.Accessor) {
	fields := false
	for _, arg := range d.Args {
		if arg == load.FieldsMarker {
			if fields {
				r.errorf(arg, d.Pos, "%s listed twice", load.FieldsMarker)
			}
			fields = true
			continue
		}
		var a *load.Accessor
		if name, method := strings.CutSuffix(arg, "()"); method {
			if a = r.s.Accessor(name); a == nil {
				r.errorf(arg, d.Pos, "unknown accessor: expected a method without arguments and a single result")
				continue
			}
		} else if a = r.s.FieldPath(arg); a == nil {
			r.errorf(arg, d.Pos, "unknown field path: expected a field or a selector like a.b through struct fields without pointers")
			continue
		}
		if fields {
			trailing = append(trailing, a)
		} else {
			leading = append(leading, a)
		}
	}
	return leading, trailing
}

func (r *resolver) variant(v *load.Variant) *ResolvedVariant {
	rv := &ResolvedVariant{Variant: v}
	explicit := make(map[int]*ResolvedField)
	for i, f := range v.Fields {
		target := rv.target(f)
		rf := &ResolvedField{
			Field: f,
			Decl:  i,
			Cmp:   r.selection(target, f, "cmp", r.field, true),
			Hash:  r.selection(target, f, "hash", r.hash, false),
		}
		if rf.Cmp == nil {
			rf.Cmp = Included{}
		}
		if inc, ok := rf.Cmp.(Included); ok {
			if inc.Explicit {
				if prev, dup := explicit[inc.Priority]; dup {
					r.errorf(target, f.Pos, "fields %s and %s have the same priority %d", prev.Name, f.Name, inc.Priority)
				} else {
					explicit[inc.Priority] = rf
				}
			} else {
				inc.Priority = i
				rf.Cmp = inc
			}
		}
		rv.Fields = append(rv.Fields, rf)
	}
	return rv
}

// selection resolves the decision of one field for one concern from its
// struct tag and the type-level directive targeting it. It returns nil if
// the field carries neither, or if the selection was rejected.
func (r *resolver) selection(target string, f *load.Field, key string, directives map[string]*load.Directive, allowPriority bool) Decision {
	tag, hasTag := reflect.StructTag(f.Tag).Lookup(key)
	d, hasDirective := directives[target]
	if hasDirective {
		delete(directives, target)
	}
	pos := f.Pos
	switch {
	case hasTag && hasDirective:
		r.errorf(target, d.Pos, "field has both a %s tag and a %s directive", key, d.Name)
		return nil
	case hasDirective:
		tag, pos = strings.Join(d.Args[1:], ","), d.Pos
	case !hasTag:
		return nil
	}
	dec, err := parseSelection(tag, allowPriority)
	if err != nil {
		r.errorf(target, pos, "%v", err)
		return nil
	}
	return dec
}
