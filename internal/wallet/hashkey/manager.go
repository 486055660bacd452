// Package hashkey manages the session hash key: an Argon2id stretch of the
// user password that unlocks the sealed temporary store for a bounded time.
//
// The key and its salt live in secure storage; the expiry timestamp lives in
// plain storage as a decimal count of milliseconds since the Unix epoch.
package hashkey

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/storage"
)

// KDF stretches a password with a salt into a fixed-size key.
type KDF func(password, salt []byte) []byte

type Manager struct {
	secure storage.Storage
	plain  storage.Storage
	ttl    time.Duration
	now    func() time.Time
	kdf    KDF
}

type Option func(*Manager)

// WithTTL sets the session lifetime. Values below common.MinSessionTTL are
// raised to it.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = max(ttl, common.MinSessionTTL)
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithKDF replaces Argon2id. Intended for tests.
func WithKDF(kdf KDF) Option {
	return func(m *Manager) { m.kdf = kdf }
}

func NewManager(secure, plain storage.Storage, opts ...Option) *Manager {
	m := &Manager{
		secure: secure,
		plain:  plain,
		ttl:    common.SessionTTL,
		now:    time.Now,
		kdf:    cryptox.DeriveHashKey,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// DeriveAndPersist derives a fresh hash key under a new random salt and
// replaces any prior material. On failure nothing partial is left behind
// (best effort) and ErrHashKeyDerivationFailed is returned.
func (m *Manager) DeriveAndPersist(ctx context.Context, password []byte) (models.HashKeyMaterial, error) {
	salt := common.GenerateRandByteArray(cryptox.SaltLen)
	key := m.kdf(password, salt)
	if len(key) == 0 {
		return models.HashKeyMaterial{}, fmt.Errorf("%w: empty key", common.ErrHashKeyDerivationFailed)
	}
	material := models.HashKeyMaterial{
		HashKey:     key,
		Salt:        salt,
		ExpiresAtMs: m.now().Add(m.ttl).UnixMilli(),
	}

	if err := m.persist(ctx, material); err != nil {
		if cerr := m.Clear(ctx); cerr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", cerr))
		}
		return models.HashKeyMaterial{}, fmt.Errorf("%w: %w", common.ErrHashKeyDerivationFailed, err)
	}
	return material, nil
}

func (m *Manager) persist(ctx context.Context, material models.HashKeyMaterial) error {
	if err := m.secure.Set(ctx, common.HashKeyKey, material.HashKey); err != nil {
		return err
	}
	if err := m.secure.Set(ctx, common.HashKeySaltKey, material.Salt); err != nil {
		return err
	}
	return m.plain.Set(ctx, common.HashKeyExpireAtKey, []byte(strconv.FormatInt(material.ExpiresAtMs, 10)))
}

// secureGet reads a secure slot. A value that exists but cannot be opened
// is session corruption, not an I/O failure.
func (m *Manager) secureGet(ctx context.Context, key string) ([]byte, error) {
	v, err := m.secure.Get(ctx, key)
	if errors.Is(err, common.ErrUndecryptable) {
		return nil, fmt.Errorf("%w: %w", common.ErrCorruptSessionState, err)
	}
	return v, err
}

// Load returns the stored material. ok is false when the key or the salt is
// missing; a partial pair counts as absent. A missing or unreadable expiry
// is reported as 0, which is always in the past.
func (m *Manager) Load(ctx context.Context) (material models.HashKeyMaterial, ok bool, err error) {
	key, err := m.secureGet(ctx, common.HashKeyKey)
	if err != nil {
		return models.HashKeyMaterial{}, false, err
	}
	salt, err := m.secureGet(ctx, common.HashKeySaltKey)
	if err != nil {
		return models.HashKeyMaterial{}, false, err
	}
	if len(key) == 0 || len(salt) == 0 {
		return models.HashKeyMaterial{}, false, nil
	}

	expiresAt, _, err := m.ExpiresAt(ctx)
	if err != nil {
		return models.HashKeyMaterial{}, false, err
	}

	return models.HashKeyMaterial{HashKey: key, Salt: salt, ExpiresAtMs: expiresAt}, true, nil
}

// ExpiresAt reads the expiry timestamp from plain storage.
func (m *Manager) ExpiresAt(ctx context.Context) (int64, bool, error) {
	raw, err := m.plain.Get(ctx, common.HashKeyExpireAtKey)
	if err != nil {
		return 0, false, err
	}
	if len(raw) == 0 {
		return 0, false, nil
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return ms, true, nil
}

// IsValid reports whether a session could be resumed: key, salt, sealed
// store and expiry are all present and the expiry lies in the future. It
// never decrypts the store itself; a slot the secure backend cannot open
// is reported as ErrCorruptSessionState.
func (m *Manager) IsValid(ctx context.Context) (bool, error) {
	material, ok, err := m.Load(ctx)
	if err != nil || !ok {
		return false, err
	}

	blob, err := m.secureGet(ctx, common.TemporaryStoreKey)
	if err != nil {
		return false, err
	}
	if len(blob) == 0 {
		return false, nil
	}

	return m.now().UnixMilli() < material.ExpiresAtMs, nil
}

// ClearKey removes the hash key and its salt.
func (m *Manager) ClearKey(ctx context.Context) error {
	if err := m.secure.Remove(ctx, common.HashKeyKey); err != nil {
		return err
	}
	return m.secure.Remove(ctx, common.HashKeySaltKey)
}

// ClearExpiry removes the expiry timestamp.
func (m *Manager) ClearExpiry(ctx context.Context) error {
	return m.plain.Remove(ctx, common.HashKeyExpireAtKey)
}

// Clear removes key, salt and expiry. Callers that also hold a sealed
// store must remove it between ClearKey and ClearExpiry instead.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.ClearKey(ctx); err != nil {
		return err
	}
	return m.ClearExpiry(ctx)
}
