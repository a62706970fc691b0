package gen

import (
	"fmt"
	"strconv"
	"strings"
)

// Decision is the resolved selection of a field for one concern, comparison
// or hashing. It is either Included or Excluded.
type Decision interface {
	decision()
}

// Included selects the field as a key. Keys are ordered by ascending
// Priority, ties broken by declaration order.
type Included struct {
	Priority int
	// Explicit reports whether the priority was written in a directive.
	// Two explicit priorities may not collide.
	Explicit bool
}

// Excluded leaves the field out.
type Excluded struct{}

func (Included) decision() {}
func (Excluded) decision() {}

// isIncluded reports whether d selects the field.
func isIncluded(d Decision) bool {
	_, ok := d.(Included)
	return ok
}

// parseSelection parses the value of a cmp or hash struct tag, or the
// selection part of a //cmpby:field or //cmpby:hash directive. The grammar
// is "-" for exclusion, or a comma separated list of "include", "N" and
// "priority=N". An empty selection includes the field.
func parseSelection(text string, allowPriority bool) (Decision, error) {
	text = strings.TrimSpace(text)
	if text == "-" {
		return Excluded{}, nil
	}
	var (
		d        = Included{}
		priority string
	)
	for _, part := range strings.Split(text, ",") {
		switch part = strings.TrimSpace(part); {
		case part == "", part == "include":
		case strings.HasPrefix(part, "priority="):
			priority = strings.TrimPrefix(part, "priority=")
		case isDigits(part):
			priority = part
		case part == "-":
			return nil, fmt.Errorf("exclusion %q cannot be combined with other options", text)
		default:
			return nil, fmt.Errorf("unknown selection option %q", part)
		}
	}
	if priority == "" {
		return d, nil
	}
	if !allowPriority {
		return nil, fmt.Errorf("hash selection does not take a priority")
	}
	n, err := strconv.Atoi(priority)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid priority %q", priority)
	}
	d.Priority, d.Explicit = n, true
	return d, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
