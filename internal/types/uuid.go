package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID prefixes keep identifiers self-describing across logs and audits.
const (
	UUIDPrefixProcessedEvent = "ldgr"
	UUIDPrefixDiscountGrant  = "disc"
	UUIDPrefixMarketingEvent = "mkt"
)

// GenerateUUID returns a lowercase ULID using a cryptographically secure
// entropy source. ULIDs sort lexicographically by creation time, which keeps
// ledger and queue scans in insertion order.
func GenerateUUID() string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), ulid.DefaultEntropy()).String())
}

// GenerateUUIDWithPrefix returns a prefixed ULID, e.g. "draw_01hv...".
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
