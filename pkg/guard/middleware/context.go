package middleware

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey stores the unique request ID.
	RequestIDKey contextKey = "request_id"

	// TenantKey stores the tenant id extracted from the tenant header.
	TenantKey contextKey = "tenant"
)
