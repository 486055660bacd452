package cryptox

import (
	"errors"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// ScryptParams controls the cost of PasswordBox key derivation.
type ScryptParams struct {
	N int
	R int
	P int
}

// DefaultScryptParams matches the interactive-login recommendation for scrypt.
var DefaultScryptParams = ScryptParams{N: 1 << 15, R: 8, P: 1}

var ErrPasswordBoxOpen = errors.New("password box: decryption failed")

// PasswordBox is a password-encrypted payload: scrypt(password, salt) keys a
// NaCl secretbox.
type PasswordBox struct {
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// SealWithPassword encrypts plaintext under password.
func SealWithPassword(password, plaintext []byte, p ScryptParams) (*PasswordBox, error) {
	salt := common.GenerateRandByteArray(32)

	key, err := passwordKey(password, salt, p)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key[:])

	var nonce [24]byte
	copy(nonce[:], common.GenerateRandByteArray(len(nonce)))

	ct := secretbox.Seal(nil, plaintext, &nonce, key)
	return &PasswordBox{Salt: salt, Nonce: nonce[:], Ciphertext: ct}, nil
}

// OpenWithPassword decrypts a PasswordBox. A wrong password yields
// ErrPasswordBoxOpen.
func OpenWithPassword(password []byte, box *PasswordBox, p ScryptParams) ([]byte, error) {
	if len(box.Nonce) != 24 {
		return nil, ErrPasswordBoxOpen
	}

	key, err := passwordKey(password, box.Salt, p)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key[:])

	var nonce [24]byte
	copy(nonce[:], box.Nonce)

	out, ok := secretbox.Open(nil, box.Ciphertext, &nonce, key)
	if !ok {
		return nil, ErrPasswordBoxOpen
	}
	return out, nil
}

func passwordKey(password, salt []byte, p ScryptParams) (*[32]byte, error) {
	raw, err := scrypt.Key(password, salt, p.N, p.R, p.P, 32)
	if err != nil {
		return nil, err
	}
	var key [32]byte
	copy(key[:], raw)
	common.WipeByteArray(raw)
	return &key, nil
}
