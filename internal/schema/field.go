package schema

// Package schema defines the dynamic form schema of an enrollment: a tree of
// typed field definitions configured as data, not as compile-time structure.
// The same Subscription exposes a different attribute surface per enrollment,
// so everything here is driven by these definitions at access time.

// Kind is the closed set of field types. Adding a kind requires adding a
// coercion case in Coerce.
type Kind string

const (
	KindSection Kind = "section"
	KindBoolean Kind = "boolean"
	KindString  Kind = "string"
	KindJson    Kind = "json"
	KindDate    Kind = "date"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSection, KindBoolean, KindString, KindJson, KindDate:
		return true
	}
	return false
}

// Field is one node of an enrollment's form schema. A Section aggregates
// children and holds no answer itself; any node with a non-empty Name is an
// addressable attribute on subscriptions of the owning enrollment.
type Field struct {
	ID        string   `json:"id"`
	Kind      Kind     `json:"kind"`
	Name      string   `json:"name,omitempty"`
	HumanName string   `json:"human_name,omitempty"`
	Label     string   `json:"label,omitempty"`
	Required  bool     `json:"required"`
	Fields    []*Field `json:"fields,omitempty"`
}

// Addressable reports whether the field can carry an answer. Unnamed
// sections are pure containers.
func (f *Field) Addressable() bool {
	return f.Name != ""
}

// Flatten walks the tree depth-first and returns every addressable field
// reachable from the roots, each at most once (deduplicated by ID). Unnamed
// sections are traversed but excluded from the result; a section that itself
// carries a name is included like any other node. Cyclic trees are a
// configuration error and are not handled here.
func Flatten(roots []*Field) []*Field {
	seen := make(map[string]bool)
	var out []*Field
	var walk func(f *Field)
	walk = func(f *Field) {
		if f == nil || seen[f.ID] {
			return
		}
		seen[f.ID] = true
		if f.Addressable() {
			out = append(out, f)
		}
		for _, child := range f.Fields {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return out
}

// FindByName returns the first flattened field with the given name, or nil.
func FindByName(roots []*Field, name string) *Field {
	for _, f := range Flatten(roots) {
		if f.Name == name {
			return f
		}
	}
	return nil
}
