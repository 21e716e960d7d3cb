// Package sweep runs periodic guard maintenance on a cron schedule: idle
// rate-limit buckets are dropped, breaker state gauges are refreshed, and
// old audit records are pruned.
package sweep
