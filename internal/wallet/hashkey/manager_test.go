package hashkey

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cheapKDF(password, salt []byte) []byte {
	sum := sha256.Sum256(append(append([]byte{}, password...), salt...))
	return sum[:]
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

// failingSet fails Set for one key and delegates everything else.
type failingSet struct {
	storage.Storage
	key string
}

func (f failingSet) Set(ctx context.Context, key string, value []byte) error {
	if key == f.key {
		return common.ErrStorageIO
	}
	return f.Storage.Set(ctx, key, value)
}

// stuckStorage fails every Remove.
type stuckStorage struct {
	storage.Storage
}

func (stuckStorage) Remove(context.Context, string) error {
	return errors.New("remove refused")
}

// undecryptable reports every present value as unopenable, like a sealed
// store after the device key changed.
type undecryptable struct {
	storage.Storage
}

func (u undecryptable) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := u.Storage.Get(ctx, key)
	if err != nil || v == nil {
		return v, err
	}
	return nil, fmt.Errorf("%w: %s", common.ErrUndecryptable, key)
}

func newManager(t *testing.T) (*Manager, *storage.Memory, *storage.Memory, *clock) {
	t.Helper()
	secure, plain := storage.NewMemory(), storage.NewMemory()
	c := &clock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	return NewManager(secure, plain, WithKDF(cheapKDF), WithClock(c.now)), secure, plain, c
}

func TestDeriveAndPersist_WritesMaterial(t *testing.T) {
	ctx := context.Background()
	m, secure, plain, c := newManager(t)

	material, err := m.DeriveAndPersist(ctx, []byte("pw"))
	require.NoError(t, err)
	assert.Len(t, material.Salt, 16)
	assert.Equal(t, c.t.Add(24*time.Hour).UnixMilli(), material.ExpiresAtMs)

	key, _ := secure.Get(ctx, common.HashKeyKey)
	assert.Equal(t, material.HashKey, key)
	salt, _ := secure.Get(ctx, common.HashKeySaltKey)
	assert.Equal(t, material.Salt, salt)
	exp, _ := plain.Get(ctx, common.HashKeyExpireAtKey)
	assert.Equal(t, strconv.FormatInt(material.ExpiresAtMs, 10), string(exp))
}

func TestDeriveAndPersist_FreshSaltEachTime(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newManager(t)

	a, err := m.DeriveAndPersist(ctx, []byte("pw"))
	require.NoError(t, err)
	b, err := m.DeriveAndPersist(ctx, []byte("pw"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.HashKey, b.HashKey)

	loaded, ok, err := m.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b, loaded)
}

func TestDeriveAndPersist_DefaultKDFIsArgon2id(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemory(), storage.NewMemory())

	material, err := m.DeriveAndPersist(ctx, []byte("pw"))
	require.NoError(t, err)
	assert.Len(t, material.HashKey, 32)
}

func TestDeriveAndPersist_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	secure, plain := storage.NewMemory(), storage.NewMemory()
	m := NewManager(secure, failingSet{Storage: plain, key: common.HashKeyExpireAtKey}, WithKDF(cheapKDF))

	_, err := m.DeriveAndPersist(ctx, []byte("pw"))
	require.True(t, errors.Is(err, common.ErrHashKeyDerivationFailed), "got %v", err)
	assert.Equal(t, 0, secure.Len(), "key and salt must be rolled back")

	_, ok, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeriveAndPersist_RollbackFailureIsReported(t *testing.T) {
	ctx := context.Background()
	secure := stuckStorage{Storage: storage.NewMemory()}
	plain := failingSet{Storage: storage.NewMemory(), key: common.HashKeyExpireAtKey}
	m := NewManager(secure, plain, WithKDF(cheapKDF))

	_, err := m.DeriveAndPersist(ctx, []byte("pw"))
	require.True(t, errors.Is(err, common.ErrHashKeyDerivationFailed), "got %v", err)
	assert.True(t, errors.Is(err, common.ErrStorageIO))
	assert.Contains(t, err.Error(), "remove refused")
}

func TestIsValid_UnopenableSlotIsCorrupt(t *testing.T) {
	ctx := context.Background()
	secure, plain := storage.NewMemory(), storage.NewMemory()
	m := NewManager(secure, plain, WithKDF(cheapKDF))
	_, err := m.DeriveAndPersist(ctx, []byte("pw"))
	require.NoError(t, err)
	require.NoError(t, secure.Set(ctx, common.TemporaryStoreKey, []byte{1, 2, 3}))

	restored := NewManager(undecryptable{Storage: secure}, plain, WithKDF(cheapKDF))

	ok, err := restored.IsValid(ctx)
	require.True(t, errors.Is(err, common.ErrCorruptSessionState), "got %v", err)
	assert.False(t, ok)

	_, _, err = restored.Load(ctx)
	require.True(t, errors.Is(err, common.ErrCorruptSessionState), "got %v", err)
}

func TestLoad_PartialPairIsAbsent(t *testing.T) {
	ctx := context.Background()
	m, secure, _, _ := newManager(t)

	require.NoError(t, secure.Set(ctx, common.HashKeyKey, []byte("k")))
	_, ok, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsValid_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m, secure, _, c := newManager(t)

	valid, err := m.IsValid(ctx)
	require.NoError(t, err)
	assert.False(t, valid, "nothing stored")

	_, err = m.DeriveAndPersist(ctx, []byte("pw"))
	require.NoError(t, err)

	valid, err = m.IsValid(ctx)
	require.NoError(t, err)
	assert.False(t, valid, "no sealed store yet")

	require.NoError(t, secure.Set(ctx, common.TemporaryStoreKey, []byte{1}))
	valid, err = m.IsValid(ctx)
	require.NoError(t, err)
	assert.True(t, valid)

	c.advance(24*time.Hour - time.Millisecond)
	valid, _ = m.IsValid(ctx)
	assert.True(t, valid)

	c.advance(time.Millisecond)
	valid, _ = m.IsValid(ctx)
	assert.False(t, valid, "expiry is exclusive")
}

func TestIsValid_GarbageExpiry(t *testing.T) {
	ctx := context.Background()
	m, secure, plain, _ := newManager(t)

	_, err := m.DeriveAndPersist(ctx, []byte("pw"))
	require.NoError(t, err)
	require.NoError(t, secure.Set(ctx, common.TemporaryStoreKey, []byte{1}))
	require.NoError(t, plain.Set(ctx, common.HashKeyExpireAtKey, []byte("tomorrow")))

	valid, err := m.IsValid(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	m, secure, plain, _ := newManager(t)

	_, err := m.DeriveAndPersist(ctx, []byte("pw"))
	require.NoError(t, err)

	require.NoError(t, m.ClearKey(ctx))
	assert.Equal(t, 0, secure.Len())
	assert.Equal(t, 1, plain.Len(), "expiry survives ClearKey")

	require.NoError(t, m.ClearExpiry(ctx))
	assert.Equal(t, 0, plain.Len())

	require.NoError(t, m.Clear(ctx), "clearing twice is fine")
}

func TestWithTTL_Floor(t *testing.T) {
	m := NewManager(storage.NewMemory(), storage.NewMemory(), WithTTL(time.Second))
	assert.Equal(t, common.MinSessionTTL, m.TTL())

	m = NewManager(storage.NewMemory(), storage.NewMemory(), WithTTL(2*time.Hour))
	assert.Equal(t, 2*time.Hour, m.TTL())
}
