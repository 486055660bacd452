// Package models defines the account, key and session types shared by the
// wallet session layer.
package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophwallet/internal/common"
)

// Account is a registry entry. ID is the keystore id returned by the key
// custodian; Name is the only field that may change after creation.
// FromSecretKey marks accounts that were not derived from a mnemonic.
type Account struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PublicKey     string `json:"publicKey"`
	Imported      bool   `json:"imported"`
	FromSecretKey bool   `json:"importedFromSecretKey,omitempty"`
}

const maxAccountNameLen = 64

// DefaultAccountName returns the name given to the n-th account (1-based).
func DefaultAccountName(n int) string {
	return fmt.Sprintf("Account %d", n)
}

// NormalizeAccountName trims the name and rejects empty or oversized values.
func NormalizeAccountName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxAccountNameLen {
		return "", common.ErrInvalidAccountName
	}
	return name, nil
}

// KeyPair holds a strkey-encoded public key ("G...") and secret seed ("S...").
type KeyPair struct {
	PublicKey  string
	PrivateKey string
}

// KeyMetadata travels with a key into the custodian. MnemonicPhrase is
// required: login re-seals the session store from it.
type KeyMetadata struct {
	Imported       bool   `json:"imported"`
	MnemonicPhrase string `json:"mnemonicPhrase"`
}

// StoredKey is what the custodian returns for a successful LoadKey.
type StoredKey struct {
	ID         string
	PublicKey  string
	PrivateKey string
	Metadata   KeyMetadata
}

// ActiveAccount is the decrypted view handed to signing code.
type ActiveAccount struct {
	ID          string
	PublicKey   string
	PrivateKey  string
	AccountName string
}
