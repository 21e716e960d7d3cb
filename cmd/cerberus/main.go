// Cerberus is a runtime admission and resilience guard for HTTP services.
//
// It sits in front of an upstream service as a reverse proxy and applies a
// fixed guard chain to every request: operator kill switches, per-endpoint
// rate limiting, circuit breaker pre-checks, an admission decision layer,
// and a drift guard.
//
// Usage:
//
//	# Start with default configuration
//	cerberus run
//
//	# Start with custom configuration file
//	cerberus run --config /etc/cerberus/config.yaml
//
//	# Validate a configuration file without starting
//	cerberus validate --config config.yaml
//
//	# Show version information
//	cerberus version
package main

func main() {
	Execute()
}
