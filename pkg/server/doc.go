// Package server assembles the HTTP front: the guarded reverse proxy to the
// upstream service, the operator API, metrics, and health probes.
//
// Proxied traffic passes the full guard chain; local endpoints (/admin,
// /metrics, /healthz, /readyz) bypass it.
package server
