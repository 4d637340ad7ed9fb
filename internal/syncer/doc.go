// Package syncer orchestrates a sync run end to end: plan fetch tasks per
// instrument, execute them against provider adapters with bounded
// concurrency and explicit retries, merge the results into canonical
// records, and commit each reconciled day atomically.
//
// Concurrency model: instruments are processed by a bounded worker pool.
// Within one instrument, tasks against the same provider run sequentially in
// plan order while different providers proceed in parallel, each gated by a
// per-provider in-flight semaphore shared across the whole run. Merging for
// an instrument starts only after every one of its tasks has finished.
package syncer
