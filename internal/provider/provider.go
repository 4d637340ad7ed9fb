package provider

import (
	"context"

	"github.com/lihao-quant/equidata/internal/model"
)

// Capability declares what an adapter can serve: which canonical fields, which
// instrument classes, and from which earliest date.
type Capability struct {
	Fields   []string
	Classes  []string
	Earliest model.Date // zero = no lower bound
}

// Serves reports whether the capability covers a field for an instrument class.
func (c Capability) Serves(field, class string) bool {
	okField := false
	for _, f := range c.Fields {
		if f == field {
			okField = true
			break
		}
	}
	if !okField {
		return false
	}
	for _, cl := range c.Classes {
		if cl == class {
			return true
		}
	}
	return false
}

// Adapter is implemented once per external data source.
//
//go:generate mockgen -package=provider -destination=mock_adapter.go -source=provider.go Adapter
type Adapter interface {
	// Name returns the stable provider ID used in priority lists and provenance.
	Name() string

	// Fetch returns normalized records for the instrument over the inclusive
	// date range, restricted to the requested canonical fields. Providers
	// typically return supersets cheaply; extra fields are allowed and the
	// caller filters. Failures carry a *provider.Error.
	Fetch(ctx context.Context, inst model.Instrument, r model.DateRange, fields []string) ([]model.RawRecord, error)

	// HealthProbe performs a cheap liveness check against the source.
	HealthProbe(ctx context.Context) bool

	// DeclaredCoverage reports the adapter's static capability map.
	DeclaredCoverage() Capability
}
