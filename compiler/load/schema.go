package load

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind classifies an annotated declaration.
type Kind uint8

const (
	// Record is a struct type. It has exactly one, unnamed variant.
	Record Kind = iota + 1
	// Sum is a sealed interface whose variants are struct types.
	Sum
)

var kindNames = map[Kind]string{Record: "record", Sum: "sum"}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("invalid kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", text)
}

// Schema is the structural description of one annotated type declaration,
// as extracted from a loaded package.
type Schema struct {
	Name       string       `json:"name"`
	PkgPath    string       `json:"pkg_path,omitempty"`
	Kind       Kind         `json:"kind"`
	TypeParams []*TypeParam `json:"type_params,omitempty"`
	Variants   []*Variant   `json:"variants"`
	Accessors  []*Accessor  `json:"accessors,omitempty"`
	Directives []*Directive `json:"directives,omitempty"`
	Pos        Pos          `json:"pos"`
}

// Variant is one alternative of a sum type. A record has a single variant
// with an empty name.
type Variant struct {
	Name    string `json:"name,omitempty"`
	Ordinal int    `json:"ordinal"`
	// Pointer is set when the variant implements the sum interface through
	// its pointer type.
	Pointer bool     `json:"pointer,omitempty"`
	Fields  []*Field `json:"fields"`
	Pos     Pos      `json:"pos"`
}

// Field is a struct field of a variant.
type Field struct {
	Name string `json:"name"`
	// Index is the position of the field in its struct.
	Index    int      `json:"index"`
	Embedded bool     `json:"embedded,omitempty"`
	Type     *TypeRef `json:"type"`
	// Tag is the raw struct tag, selection directives included.
	Tag string `json:"tag,omitempty"`
	Pos Pos    `json:"pos"`
}

// Accessor is a method without arguments and with a single result, or a
// field selector like a.b listed by the //cmpby:keys directive. Either may
// be a comparison key.
type Accessor struct {
	Name string `json:"name"`
	// Path is the field index path of a field selector, embedded fields
	// included. It is empty for methods.
	Path []int    `json:"path,omitempty"`
	Type *TypeRef `json:"type"`
	Pos  Pos      `json:"pos"`
}

// Field reports whether the accessor selects a field rather than calling
// a method.
func (a *Accessor) Field() bool { return len(a.Path) > 0 }

// TypeParam is a type parameter of a generic declaration.
type TypeParam struct {
	Name       string   `json:"name"`
	Constraint *TypeRef `json:"constraint"`
	// Terms reports whether the constraint restricts the type set with
	// type terms (~int | string), as opposed to methods or comparable only.
	Terms bool `json:"terms,omitempty"`
	// Caps holds what the constraint guarantees for every type argument.
	Caps Caps `json:"caps"`
}

// Variant returns the variant with the given name, or nil.
func (s *Schema) Variant(name string) *Variant {
	for _, v := range s.Variants {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Accessor returns the accessor method with the given name, or nil.
func (s *Schema) Accessor(name string) *Accessor {
	for _, a := range s.Accessors {
		if a.Name == name && !a.Field() {
			return a
		}
	}
	return nil
}

// FieldPath returns the resolved field selector, like a.b, or nil.
func (s *Schema) FieldPath(sel string) *Accessor {
	for _, a := range s.Accessors {
		if a.Name == sel && a.Field() {
			return a
		}
	}
	return nil
}

// TypeParam returns the type parameter with the given name, or nil.
func (s *Schema) TypeParam(name string) *TypeParam {
	for _, tp := range s.TypeParams {
		if tp.Name == name {
			return tp
		}
	}
	return nil
}

// Generic reports whether the declaration has type parameters.
func (s *Schema) Generic() bool { return len(s.TypeParams) > 0 }

// MarshalSchema encodes the schema into a JSON that can be decoded by
// UnmarshalSchema. It lets an external front end hand declarations to the
// generator.
func MarshalSchema(s *Schema) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSchema decodes the given buffer to a schema and checks its
// structural invariants.
func UnmarshalSchema(buf []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(buf, s); err != nil {
		return nil, err
	}
	if err := s.check(); err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}
	return s, nil
}

func (s *Schema) check() error {
	switch s.Kind {
	case Record:
		if len(s.Variants) != 1 {
			return fmt.Errorf("record must have exactly one variant, got %d", len(s.Variants))
		}
	case Sum:
		if len(s.Variants) == 0 {
			return fmt.Errorf("sum type has no variants")
		}
	default:
		return fmt.Errorf("missing kind")
	}
	for i, v := range s.Variants {
		if v.Ordinal != i {
			return fmt.Errorf("variant %q has ordinal %d, expected %d", v.Name, v.Ordinal, i)
		}
		for _, f := range v.Fields {
			if f.Type == nil {
				return fmt.Errorf("missing type info for field %q", f.Name)
			}
		}
	}
	return nil
}
