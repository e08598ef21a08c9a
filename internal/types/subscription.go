package types

// BillingStatus reflects the billing system's view of a subscription.
type BillingStatus string

const (
	BillingStatusActive   BillingStatus = "active"
	BillingStatusPastDue  BillingStatus = "past_due"
	BillingStatusCanceled BillingStatus = "canceled"
)

// PendingChangeKind tags the optional in-flight change on a subscription.
// At most one change is populated at a time: either an upgrade being charged
// or a downgrade's benefit-preservation window.
type PendingChangeKind string

const (
	PendingChangeNone      PendingChangeKind = "none"
	PendingChangeUpgrade   PendingChangeKind = "upgrade"
	PendingChangeDowngrade PendingChangeKind = "downgrade"
)
