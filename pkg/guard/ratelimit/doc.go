// Package ratelimit implements a fixed-window, per-endpoint rate limiter.
//
// Endpoints are classified into three categories (import, heavy read,
// default), each with its own per-window limit. Counting is per normalized
// endpoint label within a fixed window; windows reset fully at the boundary.
// The limiter fails closed on internal errors unless configured otherwise.
package ratelimit
