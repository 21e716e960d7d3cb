// Package middleware composes the guard components into an http.Handler
// chain with a fixed evaluation order.
//
// The order is: kill switch, rate limiter, circuit breaker pre-check, guard
// decision layer, drift guard, then the wrapped handler. The first denial
// short-circuits. The whole chain sits behind a recovery boundary that fails
// open: a defect in the guard layer must never take the service down.
package middleware
