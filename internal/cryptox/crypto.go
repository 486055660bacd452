// Package cryptox holds the symmetric primitives used by the wallet session
// layer: password stretching, subkey derivation and authenticated encryption.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"io"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Argon2id parameters for the session hash key.
const (
	HashKeyTime    = 1
	HashKeyMemory  = 64 * 1024
	HashKeyThreads = 4
	HashKeyLen     = 32

	SaltLen = 16

	// DeviceKeyLen is the size of the key sealing the secure SQLite store.
	DeviceKeyLen = chacha20poly1305.KeySize
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveHashKey stretches password with salt using Argon2id.
func DeriveHashKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, HashKeyTime, HashKeyMemory, HashKeyThreads, HashKeyLen)
}

// DeriveSubkey expands secret into a 32-byte key bound to salt and info
// using HKDF-SHA256.
func DeriveSubkey(secret, salt []byte, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, salt, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// SealAESGCM encrypts plaintext with AES-GCM and returns nonce||ciphertext.
// A fresh random nonce is used for every call. aad is authenticated but not
// encrypted and must be passed unchanged to OpenAESGCM.
func SealAESGCM(key, plaintext, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())

	out := make([]byte, 0, len(nonce)+len(plaintext)+aesgcm.Overhead())
	out = append(out, nonce...)
	return aesgcm.Seal(out, nonce, plaintext, aad), nil
}

// OpenAESGCM reverses SealAESGCM.
func OpenAESGCM(key, sealed, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	ns := aesgcm.NonceSize()
	if len(sealed) < ns+aesgcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	return aesgcm.Open(nil, sealed[:ns], sealed[ns:], aad)
}

// SealXChaCha encrypts plaintext with XChaCha20-Poly1305 and returns
// nonce||ciphertext. key must be 32 bytes.
func SealXChaCha(key, plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(aead.NonceSize())

	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, aad), nil
}

// OpenXChaCha reverses SealXChaCha.
func OpenXChaCha(key, sealed, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	ns := aead.NonceSize()
	if len(sealed) < ns+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	return aead.Open(nil, sealed[:ns], sealed[ns:], aad)
}
