// Package common defines shared constants and sentinel errors used across
// the wallet session layer. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrStorageIO = errors.New("storage i/o error")
	// ErrUndecryptable means a value was read but its device-level sealing
	// could not be opened (tampered row or a replaced device key).
	ErrUndecryptable = errors.New("stored value cannot be decrypted")

	// Vault (key custodian) errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")

	// Session errors.
	ErrInvalidPassword         = errors.New("invalid password")
	ErrNoActiveAccount         = errors.New("no active account")
	ErrAccountNotFound         = errors.New("account not found")
	ErrMnemonicNotFound        = errors.New("mnemonic phrase not found")
	ErrPrivateKeyNotFound      = errors.New("private key not found")
	ErrSessionExpired          = errors.New("session expired")
	ErrCorruptSessionState     = errors.New("corrupt session state")
	ErrHashKeyDerivationFailed = errors.New("hash key derivation failed")

	// ErrRegistryVaultMismatch is reported together with ErrAccountNotFound
	// when the account registry and the vault disagree about an account.
	ErrRegistryVaultMismatch = errors.New("account registry and vault disagree")

	// Validation errors.
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrInvalidMnemonic    = errors.New("invalid mnemonic phrase")
	ErrInvalidSecretKey   = errors.New("invalid secret key")
	ErrAccountExists      = errors.New("account already exists")
)
