package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// AccountCodeCacheTTL bounds how long a code to ID mapping stays cached.
	AccountCodeCacheTTL = 1 * time.Hour

	// FloatSyncLockKey serialises float sync runs across instances.
	FloatSyncLockKey = "lock:gl:float-sync"

	// DefaultFloatClearingCode is the contra account for float sync entries.
	DefaultFloatClearingCode = "2999"
)
