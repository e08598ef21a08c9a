package types

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// LockScope represents the scope of a database advisory lock
type LockScope string

const (
	// LockScopeDiscountQueue serialises queue position assignment per account.
	LockScopeDiscountQueue LockScope = "discount_queue"
)

// GenerateLockKey generates a lock key from a scope and parameters.
// Automatically extracts tenant_id and environment_id from context and
// includes them in the key, so locks never collide across tenants. The key is
// a deterministic string that Postgres will hash internally.
func GenerateLockKey(ctx context.Context, scope LockScope, params map[string]interface{}) string {
	merged := make(map[string]interface{})
	if tenantID := GetTenantID(ctx); tenantID != "" {
		merged["tenant_id"] = tenantID
	}
	if environmentID := GetEnvironmentID(ctx); environmentID != "" {
		merged["environment_id"] = environmentID
	}
	for k, v := range params {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, merged[k]))
	}
	return b.String()
}
