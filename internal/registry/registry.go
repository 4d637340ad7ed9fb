// Package registry holds the static field/provider capability table: which
// provider can serve which (field, instrument class), in what priority order.
// Loaded once at startup, read-only afterwards.
package registry

import (
	"fmt"

	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/provider"
)

// ConfigurationError means a field has no capable provider. This is fatal at
// startup, never a runtime condition.
type ConfigurationError struct {
	Field string
	Class string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no capable provider for field %q (class %q)", e.Field, e.Class)
}

// Field couples a spec with its provider priority lists.
type Field struct {
	Spec model.FieldSpec

	// Priority is the default ordered provider list; ClassPriority overrides
	// it per instrument class.
	Priority      []string
	ClassPriority map[string][]string
}

// Registry is the immutable capability table.
type Registry struct {
	fields  map[string]Field
	caps    map[string]provider.Capability
	classes []string
}

// New validates the field table against the adapters' declared capabilities
// and fails fast when a non-computed field has zero capable providers for any
// declared instrument class.
func New(fields []Field, adapters []provider.Adapter, classes []string) (*Registry, error) {
	caps := make(map[string]provider.Capability, len(adapters))
	for _, a := range adapters {
		caps[a.Name()] = a.DeclaredCoverage()
	}

	r := &Registry{
		fields:  make(map[string]Field, len(fields)),
		caps:    caps,
		classes: classes,
	}
	for _, f := range fields {
		r.fields[f.Spec.Name] = f
	}

	for _, f := range fields {
		if f.Spec.Policy == model.Computed {
			for _, dep := range f.Spec.ComputeFrom {
				if _, ok := r.fields[dep]; !ok {
					return nil, fmt.Errorf("computed field %q depends on undeclared field %q", f.Spec.Name, dep)
				}
			}
			continue
		}
		for _, class := range classes {
			list := f.Priority
			if override, ok := f.ClassPriority[class]; ok {
				list = override
			}
			// An explicitly empty priority list means the field is not
			// offered for this class at all.
			if len(list) == 0 {
				continue
			}
			if len(r.PriorityFor(f.Spec.Name, class)) == 0 {
				return nil, &ConfigurationError{Field: f.Spec.Name, Class: class}
			}
		}
	}
	return r, nil
}

// Spec returns the field spec by canonical name.
func (r *Registry) Spec(field string) (model.FieldSpec, bool) {
	f, ok := r.fields[field]
	return f.Spec, ok
}

// Fields returns all declared field names.
func (r *Registry) Fields() []string {
	out := make([]string, 0, len(r.fields))
	for name := range r.fields {
		out = append(out, name)
	}
	return out
}

// PriorityFor returns the ordered provider IDs capable of serving a field for
// an instrument class. Providers in the priority list whose declared
// capability does not cover the pair are dropped.
func (r *Registry) PriorityFor(field, class string) []string {
	f, ok := r.fields[field]
	if !ok {
		return nil
	}
	list := f.Priority
	if override, ok := f.ClassPriority[class]; ok {
		list = override
	}
	out := make([]string, 0, len(list))
	for _, id := range list {
		if r.Capable(id, field, class) {
			out = append(out, id)
		}
	}
	return out
}

// Capable reports whether a provider's declared capability covers the pair.
func (r *Registry) Capable(providerID, field, class string) bool {
	cap, ok := r.caps[providerID]
	if !ok {
		return false
	}
	return cap.Serves(field, class)
}

// Capability returns a provider's declared coverage.
func (r *Registry) Capability(providerID string) (provider.Capability, bool) {
	c, ok := r.caps[providerID]
	return c, ok
}
