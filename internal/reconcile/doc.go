// Package reconcile merges the outputs of multiple provider fetches for the
// same (instrument, date) into one canonical, provenance-tagged record.
//
// Field conflicts resolve by provider priority (or fetch recency under the
// latest-non-null policy); material numeric disagreements beyond a per-field
// tolerance are recorded as conflicts but never block a value from being
// produced. Computed fields are derived fresh from their merged components so
// a ratio and its inputs are always internally consistent within one record.
package reconcile
