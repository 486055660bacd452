// Package vault is the password-protected key custodian. Each stored key is
// encrypted under the user password with scrypt + NaCl secretbox; only the
// public key is kept in clear so the registry can be cross-checked.
package vault

import (
	"context"

	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
)

// KeyCustodian stores and retrieves password-protected key pairs.
//
// LoadKey fails with common.ErrInvalidCredentials when the password does not
// open the record and with common.ErrNotFound when the id is unknown.
type KeyCustodian interface {
	StoreKey(ctx context.Context, password []byte, kp models.KeyPair, md models.KeyMetadata) (string, error)
	LoadKey(ctx context.Context, id string, password []byte) (models.StoredKey, error)
	RemoveAll(ctx context.Context) error

	// ChangePassword re-encrypts every key. It is all or nothing.
	ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error
}
