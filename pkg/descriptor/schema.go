package descriptor

import (
	"fmt"
	"sort"
)

// FieldType identifies the declared type of a configurable field.
type FieldType string

const (
	// FieldString is a free-form string field.
	FieldString FieldType = "string"

	// FieldBool is a boolean field.
	FieldBool FieldType = "bool"

	// FieldMap is a string-keyed map field.
	FieldMap FieldType = "map"

	// FieldList is a list-of-strings field.
	FieldList FieldType = "list"
)

// Validate checks if the field type is valid.
func (t FieldType) Validate() error {
	switch t {
	case FieldString, FieldBool, FieldMap, FieldList:
		return nil
	default:
		return fmt.Errorf("invalid field type: %s", t)
	}
}

// FieldSpec declares a single configurable field of a managed resource.
type FieldSpec struct {
	// Type is the declared field type.
	Type FieldType

	// Description is a human-readable field description.
	Description string

	// Default is the value applied when the configuration omits the field.
	// A nil Default means the field stays absent from the payload.
	Default interface{}

	// UpdateAllowed marks fields that may change without recreating the
	// resource.
	UpdateAllowed bool

	// OwnerOnly marks fields that only privileged callers may supply. The
	// restriction is enforced by the policy layer, not by projection.
	OwnerOnly bool

	// Derived marks fields whose value falls back to a generated physical
	// name when the configuration leaves them unset.
	Derived bool

	// Inline marks map fields whose entries are flattened into the payload
	// instead of being sent as a nested object.
	Inline bool

	// Internal marks fields consumed by the controller itself and never
	// sent to the control plane.
	Internal bool
}

// Config is a resolved configuration: field name to value, already validated
// against the descriptor by the caller.
type Config map[string]interface{}

// Descriptor is the immutable schema of a managed resource type.
type Descriptor struct {
	// Resource is the resource type name.
	Resource string

	// Fields maps field name to its spec. Map keys make field names unique
	// by construction.
	Fields map[string]FieldSpec

	// Attributes lists the read-only attribute names resolvable from an
	// observed snapshot.
	Attributes []string
}

// Validate checks the descriptor for structural soundness.
func (d *Descriptor) Validate() error {
	if d.Resource == "" {
		return fmt.Errorf("descriptor has no resource name")
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("descriptor %s declares no fields", d.Resource)
	}
	for name, spec := range d.Fields {
		if err := spec.Type.Validate(); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		if spec.Internal && spec.Inline {
			return fmt.Errorf("field %s: internal fields cannot be inlined", name)
		}
	}
	return nil
}

// FieldNames returns the declared field names in sorted order.
func (d *Descriptor) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for name := range d.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OwnerOnlyFields returns the sorted names of fields restricted to
// privileged callers.
func (d *Descriptor) OwnerOnlyFields() []string {
	var names []string
	for name, spec := range d.Fields {
		if spec.OwnerOnly {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// HasAttribute reports whether the named read-only attribute is declared.
func (d *Descriptor) HasAttribute(name string) bool {
	for _, attr := range d.Attributes {
		if attr == name {
			return true
		}
	}
	return false
}
