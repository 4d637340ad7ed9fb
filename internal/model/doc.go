// Package model defines shared data types used across the sync engine.
//
// Conventions:
//   - Dates: Date is whole days since the Unix epoch (UTC); daily data has no
//     intraday component
//   - DateRange bounds are inclusive on both ends
//   - Field names are canonical (post adapter mapping), e.g. "close", "pe_ttm"
//   - Every merged field carries provenance (the provider that supplied it)
package model
