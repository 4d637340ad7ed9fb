// Package provider defines the adapter contract every external data source
// implements, the provider error taxonomy, and process-wide provider health
// tracking.
//
// Adapters normalize provider-native responses into model.RawRecord with
// canonical field names; everything above this package depends only on the
// Adapter interface, never on a concrete provider type.
package provider
