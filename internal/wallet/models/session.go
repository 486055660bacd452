package models

// HashKeyMaterial is the session key, its salt and the absolute expiry in
// milliseconds since the Unix epoch.
type HashKeyMaterial struct {
	HashKey     []byte
	Salt        []byte
	ExpiresAtMs int64
}

// TemporaryStore is the plaintext of the sealed session blob.
// PrivateKeys maps account id to secret seed.
type TemporaryStore struct {
	Expiration     int64
	PrivateKeys    map[string]string
	MnemonicPhrase string
}

// State is the coarse lifecycle of the session controller.
type State int32

const (
	StateSignedOut State = iota
	StateAuthenticating
	StateAuthenticated
	StateError
)

func (s State) String() string {
	switch s {
	case StateSignedOut:
		return "signed-out"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// AuthStatus is what a lock screen needs to decide which prompt to show.
type AuthStatus int

const (
	// AuthNotAuthenticated means no account exists yet.
	AuthNotAuthenticated AuthStatus = iota
	// AuthHashKeyExpired means accounts exist but the session is not valid.
	AuthHashKeyExpired
	AuthAuthenticated
)

func (s AuthStatus) String() string {
	switch s {
	case AuthNotAuthenticated:
		return "not-authenticated"
	case AuthHashKeyExpired:
		return "hash-key-expired"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
