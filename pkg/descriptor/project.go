package descriptor

import (
	"github.com/openvnet/openvnet/pkg/netplane"
)

// Projector converts resolved configurations into control-plane payloads.
// Projection is a pure transform: it applies defaults, substitutes the
// physical name for derived fields, flattens inline maps, and strips
// controller-internal fields into a side channel.
type Projector struct {
	desc *Descriptor
}

// NewProjector creates a projector for the given descriptor.
func NewProjector(desc *Descriptor) *Projector {
	return &Projector{desc: desc}
}

// ProjectCreate resolves every field to its final value and returns the
// creation payload together with the stripped agent identifiers. The agent
// slice is nil when the configuration did not supply the scheduling field.
func (p *Projector) ProjectCreate(cfg Config, physicalName string) (netplane.Payload, []string) {
	payload := make(netplane.Payload)
	var agents []string

	for name, spec := range p.desc.Fields {
		value, supplied := cfg[name]
		if !supplied {
			value = spec.Default
		}

		if spec.Internal {
			if supplied {
				agents = toStringSlice(value)
			}
			continue
		}

		if value == nil {
			if spec.Derived {
				payload[name] = physicalName
			}
			continue
		}

		if spec.Inline {
			inlineInto(payload, value)
			continue
		}
		payload[name] = value
	}

	return payload, agents
}

// ProjectUpdate projects a sparse diff into an update payload. Only fields
// present in the diff appear in the payload; defaults are not re-applied.
// The returned agent slice and flag report the stripped scheduling field:
// the flag is true whenever the field was present in the diff, and an
// explicitly empty value yields an empty, non-nil slice (desired set is
// empty, meaning full removal).
func (p *Projector) ProjectUpdate(diff Config) (netplane.Payload, []string, bool) {
	payload := make(netplane.Payload)
	var agents []string
	agentsPresent := false

	for name, value := range diff {
		spec, declared := p.desc.Fields[name]
		if !declared {
			continue
		}

		if spec.Internal {
			agentsPresent = true
			agents = toStringSlice(value)
			if agents == nil {
				agents = []string{}
			}
			continue
		}

		if value == nil {
			continue
		}
		if spec.Inline {
			inlineInto(payload, value)
			continue
		}
		payload[name] = value
	}

	return payload, agents, agentsPresent
}

// inlineInto merges the entries of a map value into the payload.
func inlineInto(payload netplane.Payload, value interface{}) {
	switch m := value.(type) {
	case map[string]interface{}:
		for k, v := range m {
			payload[k] = v
		}
	case map[string]string:
		for k, v := range m {
			payload[k] = v
		}
	}
}

// toStringSlice normalizes a list value to a string slice. Decoded YAML and
// JSON deliver []interface{}; native callers pass []string.
func toStringSlice(value interface{}) []string {
	switch list := value.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
