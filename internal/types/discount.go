package types

// DiscountGrantStatus is the lifecycle of a purchased partner-discount block.
// Grants are created queued (position assigned, no window), become active
// strictly in queue order once nothing earlier is running, and expire when
// their window elapses. At most one grant per account is active at a time.
type DiscountGrantStatus string

const (
	DiscountGrantStatusQueued  DiscountGrantStatus = "queued"
	DiscountGrantStatusActive  DiscountGrantStatus = "active"
	DiscountGrantStatusExpired DiscountGrantStatus = "expired"
)

// DiscountSourceKind identifies what backs the currently-active discount
// period reported to the account surface.
type DiscountSourceKind string

const (
	// DiscountSourceSubscription: an active subscription provides open-ended
	// partner access; purchased grants are suspended, not consumed.
	DiscountSourceSubscription DiscountSourceKind = "subscription"
	// DiscountSourceGrant: a purchased one-time/mini-draw grant window.
	DiscountSourceGrant DiscountSourceKind = "grant"
)
