package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope namespaces idempotency keys by the operation they protect.
type Scope string

const (
	// ScopeMarketingEvent dedupes fire-and-forget CRM/marketing deliveries.
	ScopeMarketingEvent Scope = "marketing_event"
	// ScopeProrationCharge keys the gateway charge of a subscription upgrade
	// so a retried request cannot double-charge.
	ScopeProrationCharge Scope = "proration_charge"
)

// Generator produces deterministic keys from a scope and parameters. The same
// inputs always produce the same key regardless of map iteration order.
type Generator interface {
	GenerateKey(scope Scope, params map[string]interface{}) string
}

type generator struct{}

// NewGenerator creates a new idempotency key generator
func NewGenerator() Generator {
	return &generator{}
}

func (g *generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(string(scope))
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("|%s=%v", k, params[k]))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%s_%s", scope, hex.EncodeToString(sum[:])[:32])
}
