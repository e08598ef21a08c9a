package marketing

import (
	"time"

	"github.com/drawcard/drawcard/internal/types"
)

// EventName identifies a marketing/CRM track event.
type EventName string

const (
	EventPackagePurchased    EventName = "package.purchased"
	EventEntriesAdded        EventName = "entries.added"
	EventSubscriptionChanged EventName = "subscription.changed"
)

// Event is one fire-and-forget track call to the marketing sink. Delivery is
// best effort and must never roll back or block a core operation.
type Event struct {
	ID        string                 `json:"id"`
	Name      EventName              `json:"name"`
	AccountID string                 `json:"account_id"`
	// IdempotencyKey lets the sink dedupe redelivered events.
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
	Properties     map[string]interface{} `json:"properties,omitempty"`
	OccurredAt     time.Time              `json:"occurred_at"`
}

// NewEvent builds a track event with a generated ID and timestamp.
func NewEvent(name EventName, accountID string, properties map[string]interface{}) *Event {
	return &Event{
		ID:         types.GenerateUUIDWithPrefix(types.UUIDPrefixMarketingEvent),
		Name:       name,
		AccountID:  accountID,
		Properties: properties,
		OccurredAt: time.Now().UTC(),
	}
}
