// Package telemetry groups the observability subpackages: structured
// logging, Prometheus metrics, and health probes.
package telemetry
