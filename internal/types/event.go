package types

// PaymentEventKind is the event kind reported by the payment gateway webhook.
// The ledger keys on (transaction_id, event_kind): the same transaction may
// legitimately arrive once per kind, but never twice for the same kind.
type PaymentEventKind string

const (
	PaymentEventSucceeded      PaymentEventKind = "succeeded"
	PaymentEventProcessing     PaymentEventKind = "processing"
	PaymentEventRequiresAction PaymentEventKind = "requires_action"
	PaymentEventFailed         PaymentEventKind = "failed"
)

func (k PaymentEventKind) String() string {
	return string(k)
}

// GrantsBenefits reports whether this event kind triggers benefit granting.
// Only settled payments do; the rest are acknowledged and ignored.
func (k PaymentEventKind) GrantsBenefits() bool {
	return k == PaymentEventSucceeded
}
