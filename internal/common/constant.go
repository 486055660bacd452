package common

import "time"

// Plain storage keys. Values stored under these keys are not sensitive.
const (
	ActiveAccountIDKey = "activeAccountId"
	AccountListKey     = "accountList"
	HashKeyExpireAtKey = "hashKeyExpireAt"
)

// Secure storage keys.
const (
	HashKeyKey        = "hashKey"
	HashKeySaltKey    = "hashKeySalt"
	TemporaryStoreKey = "temporaryStore"
)

const (
	// SessionTTL is how long a freshly derived hash key stays valid.
	SessionTTL = 24 * time.Hour

	// MinSessionTTL is the lower bound for developer TTL overrides.
	MinSessionTTL = 60 * time.Second
)
