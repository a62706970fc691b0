package gen

import (
	"strings"

	"github.com/syssam/cmpby/compiler/load"
)

// Capability is a behavior the generator derives for an annotated type.
type Capability struct {
	// Name is the word selecting the capability in //cmpby:derive.
	Name string
	// Method is the name of the generated method. Generated functions
	// append the type name to it.
	Method      string
	Description string
}

var (
	// CapabilityEqual derives equality on the comparison keys.
	CapabilityEqual = Capability{
		Name:        "eq",
		Method:      "Equal",
		Description: "Equal reports whether two values are equal on their comparison keys",
	}

	// CapabilityCompare derives a lexicographic ordering on the comparison
	// keys, after the variant ordinal for sum types.
	CapabilityCompare = Capability{
		Name:        "cmp",
		Method:      "Compare",
		Description: "Compare orders two values by their comparison keys and returns -1, 0 or +1",
	}

	// CapabilityHash derives hashing of the comparison keys into a
	// cmpby.Hasher.
	CapabilityHash = Capability{
		Name:        "hash",
		Method:      "Hash",
		Description: "Hash feeds the comparison keys of a value into a cmpby.Hasher",
	}

	// AllCapabilities holds the capabilities in generation order.
	AllCapabilities = []Capability{
		CapabilityEqual,
		CapabilityCompare,
		CapabilityHash,
	}
)

// Enabled reports whether the derive directive requests the capability.
func (c Capability) Enabled(d load.Derive) bool {
	switch c.Name {
	case CapabilityEqual.Name:
		return d.Equal
	case CapabilityCompare.Name:
		return d.Compare
	case CapabilityHash.Name:
		return d.Hash
	}
	return false
}

// FuncName returns the name of the generated function for the type.
func (c Capability) FuncName(typeName string) string {
	return c.Method + typeName
}

// String implements fmt.Stringer.
func (c Capability) String() string { return c.Name }

// MarshalText implements encoding.TextMarshaler.
func (c Capability) MarshalText() ([]byte, error) { return []byte(c.Name), nil }

// Capabilities returns the capabilities requested by d.
func Capabilities(d load.Derive) []Capability {
	var cs []Capability
	for _, c := range AllCapabilities {
		if c.Enabled(d) {
			cs = append(cs, c)
		}
	}
	return cs
}

// CapabilityNames returns the directive words of all capabilities, for
// usage texts.
func CapabilityNames() string {
	names := make([]string, len(AllCapabilities))
	for i, c := range AllCapabilities {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
