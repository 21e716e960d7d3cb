// Package endpoint normalizes request paths into low-cardinality labels and
// classifies them by operational risk.
//
// Normalization keeps metric label sets bounded: raw numeric ids, UUIDs and
// long hex tokens never appear in a normalized label. Results are memoized in
// a small LRU cache keyed by the raw path.
package endpoint
