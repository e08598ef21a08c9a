package types

import "time"

// DefaultLockTimeout bounds how long a transaction waits on an advisory lock.
const DefaultLockTimeout = 30 * time.Second

// LockRequest describes an advisory lock to take inside a transaction.
type LockRequest struct {
	// Key is hashed into the postgres advisory lock space.
	Key string
	// Timeout overrides the default wait. Zero or negative means fail-fast.
	Timeout *time.Duration
}

// GetTimeout returns the effective timeout for the request.
func (r LockRequest) GetTimeout() time.Duration {
	if r.Timeout == nil {
		return DefaultLockTimeout
	}
	return *r.Timeout
}
