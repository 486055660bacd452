// Package tempstore seals the session's temporary store (private keys and
// mnemonic) under a key derived from the session hash key.
//
// Blob layout: version(1) || nonce(12) || AES-256-GCM ciphertext. The
// plaintext is deterministic CBOR; the AES key is HKDF-SHA256 of the hash
// key with the hash-key salt, and the salt is also bound as associated data.
package tempstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/storage"
	"github.com/fxamacker/cbor/v2"
)

const (
	blobVersion byte = 0x01
	subkeyInfo       = "gophwallet temporary store v1"
)

var errBadBlob = errors.New("unsupported temporary store blob")

// wireStore mirrors models.TemporaryStore with pointer fields so a missing
// field can be told apart from a zero value.
type wireStore struct {
	Expiration     *int64             `cbor:"expiration"`
	PrivateKeys    *map[string]string `cbor:"privateKeys"`
	MnemonicPhrase *string            `cbor:"mnemonicPhrase"`
}

type Codec struct {
	secure storage.Storage
	enc    cbor.EncMode
	dec    cbor.DecMode
}

func NewCodec(secure storage.Storage) (*Codec, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor enc mode: %w", err)
	}
	dec, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor dec mode: %w", err)
	}
	return &Codec{secure: secure, enc: enc, dec: dec}, nil
}

func sessionKey(material models.HashKeyMaterial) ([]byte, error) {
	if len(material.HashKey) == 0 || len(material.Salt) == 0 {
		return nil, errors.New("empty hash key material")
	}
	return cryptox.DeriveSubkey(material.HashKey, material.Salt, subkeyInfo)
}

// Seal encrypts store and writes it to the temporary store slot, replacing
// whatever was there.
func (c *Codec) Seal(ctx context.Context, material models.HashKeyMaterial, store models.TemporaryStore) error {
	keys := store.PrivateKeys
	if keys == nil {
		keys = map[string]string{}
	}
	plain, err := c.enc.Marshal(wireStore{
		Expiration:     &store.Expiration,
		PrivateKeys:    &keys,
		MnemonicPhrase: &store.MnemonicPhrase,
	})
	if err != nil {
		return fmt.Errorf("failed to encode temporary store: %w", err)
	}
	defer common.WipeByteArray(plain)

	key, err := sessionKey(material)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	ct, err := cryptox.SealAESGCM(key, plain, material.Salt)
	if err != nil {
		return fmt.Errorf("failed to encrypt temporary store: %w", err)
	}

	blob := make([]byte, 0, 1+len(ct))
	blob = append(blob, blobVersion)
	blob = append(blob, ct...)
	return c.secure.Set(ctx, common.TemporaryStoreKey, blob)
}

// Unseal reads and decrypts the temporary store. Every failure, from a
// missing slot to a shape mismatch, is reported as ErrCorruptSessionState.
func (c *Codec) Unseal(ctx context.Context, material models.HashKeyMaterial) (models.TemporaryStore, error) {
	store, err := c.unseal(ctx, material)
	if err != nil {
		return models.TemporaryStore{}, fmt.Errorf("%w: %w", common.ErrCorruptSessionState, err)
	}
	return store, nil
}

func (c *Codec) unseal(ctx context.Context, material models.HashKeyMaterial) (models.TemporaryStore, error) {
	blob, err := c.secure.Get(ctx, common.TemporaryStoreKey)
	if err != nil {
		return models.TemporaryStore{}, err
	}
	if len(blob) < 2 || blob[0] != blobVersion {
		return models.TemporaryStore{}, errBadBlob
	}

	key, err := sessionKey(material)
	if err != nil {
		return models.TemporaryStore{}, err
	}
	defer common.WipeByteArray(key)

	plain, err := cryptox.OpenAESGCM(key, blob[1:], material.Salt)
	if err != nil {
		return models.TemporaryStore{}, err
	}
	defer common.WipeByteArray(plain)

	var w wireStore
	if err := c.dec.Unmarshal(plain, &w); err != nil {
		return models.TemporaryStore{}, err
	}
	if w.Expiration == nil || w.PrivateKeys == nil || *w.PrivateKeys == nil || w.MnemonicPhrase == nil {
		return models.TemporaryStore{}, errors.New("temporary store is missing fields")
	}

	return models.TemporaryStore{
		Expiration:     *w.Expiration,
		PrivateKeys:    *w.PrivateKeys,
		MnemonicPhrase: *w.MnemonicPhrase,
	}, nil
}

// Clear removes the temporary store slot.
func (c *Codec) Clear(ctx context.Context) error {
	return c.secure.Remove(ctx, common.TemporaryStoreKey)
}
