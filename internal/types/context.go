package types

import "context"

// ContextKey is the type used for all values stashed in request contexts.
type ContextKey string

const (
	CtxTenantID      ContextKey = "ctx_tenant_id"
	CtxUserID        ContextKey = "ctx_user_id"
	CtxEnvironmentID ContextKey = "ctx_environment_id"
	CtxRequestID     ContextKey = "ctx_request_id"

	// DefaultTenantID is used when a request carries no tenant, e.g. webhook
	// deliveries and internal jobs.
	DefaultTenantID = "00000000-0000-0000-0000-000000000000"
)

// GetTenantID returns the tenant ID from the context, falling back to the
// default tenant.
func GetTenantID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxTenantID).(string); ok && id != "" {
		return id
	}
	return DefaultTenantID
}

// GetUserID returns the acting user ID from the context, if any.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxUserID).(string); ok {
		return id
	}
	return ""
}

// GetEnvironmentID returns the environment ID from the context, if any.
func GetEnvironmentID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxEnvironmentID).(string); ok {
		return id
	}
	return ""
}

// GetRequestID returns the request ID from the context, if any.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxRequestID).(string); ok {
		return id
	}
	return ""
}

// SetTenantID returns a child context carrying the tenant ID.
func SetTenantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxTenantID, id)
}

// SetUserID returns a child context carrying the acting user ID.
func SetUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxUserID, id)
}

// SetEnvironmentID returns a child context carrying the environment ID.
func SetEnvironmentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxEnvironmentID, id)
}

// SetRequestID returns a child context carrying the request ID.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxRequestID, id)
}
