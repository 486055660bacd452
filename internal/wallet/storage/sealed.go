package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
)

// Sealed encrypts every value with XChaCha20-Poly1305 under a device key
// before handing it to the inner store. The key name is bound as associated
// data so a value copied to another key fails to open.
//
// Get reports a value that fails to open as common.ErrUndecryptable, not as
// an I/O error: the row is readable but its content is unusable.
type Sealed struct {
	inner Storage
	key   []byte
}

func NewSealed(inner Storage, deviceKey []byte) (*Sealed, error) {
	if len(deviceKey) != cryptox.DeviceKeyLen {
		return nil, fmt.Errorf("device key must be %d bytes, got %d", cryptox.DeviceKeyLen, len(deviceKey))
	}
	k := make([]byte, len(deviceKey))
	copy(k, deviceKey)
	return &Sealed{inner: inner, key: k}, nil
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil || sealed == nil {
		return nil, err
	}
	plain, err := cryptox.OpenXChaCha(s.key, sealed, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open sealed value[%s]: %w", common.ErrUndecryptable, key, err)
	}
	return plain, nil
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := cryptox.SealXChaCha(s.key, value, []byte(key))
	if err != nil {
		return fmt.Errorf("%w: failed to seal value[%s]: %w", common.ErrStorageIO, key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *Sealed) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}
