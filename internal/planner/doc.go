// Package planner turns a sync request into an ordered list of fetch tasks.
//
// For every requested field it resolves the provider priority list, computes
// the missing sub-ranges against committed coverage, and assigns each
// sub-range to the highest-priority healthy provider whose declared
// capability covers it. Ranges no provider can serve degrade to permanent
// gaps; they are surfaced to the caller, never fabricated.
//
// Tasks for independent (provider, instrument) pairs carry no mutual order.
// Tasks against the same provider for one instrument are sequenced
// chronologically so provider-side pagination cursors stay valid.
package planner
