package usecase

import "time"

const (
	// MaxAccountNumberAttempts bounds the collision-retry loop when
	// generating account numbers. Exceeding it surfaces
	// domain.ErrAccountNumberSpaceExhausted instead of looping forever.
	MaxAccountNumberAttempts = 5

	// DefaultLockWait is the maximum time an operation waits for an
	// account lock before failing with domain.ErrLockTimeout.
	DefaultLockWait = 3 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)
