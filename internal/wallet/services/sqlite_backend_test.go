package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/db"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/hashkey"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/registry"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/storage"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/tempstore"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqliteWallet is the sqlite backend as the CLI wires it: plain and
// device-sealed secure tables in one database plus the scrypt vault.
type sqliteWallet struct {
	ctrl      SessionController
	rawSecure *storage.SQLiteStorage
	registry  *registry.Registry
	hashKeys  *hashkey.Manager
}

func sqliteConn(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func openSQLiteWallet(t *testing.T, conn *sql.DB, deviceKey []byte) *sqliteWallet {
	t.Helper()

	plain, err := storage.NewSQLiteStorage(conn, storage.PlainTable)
	require.NoError(t, err)
	rawSecure, err := storage.NewSQLiteStorage(conn, storage.SecureTable)
	require.NoError(t, err)
	secure, err := storage.NewSealed(rawSecure, deviceKey)
	require.NoError(t, err)

	codec, err := tempstore.NewCodec(secure)
	require.NoError(t, err)
	log, err := logging.New(logging.FormatJSON, "error", io.Discard)
	require.NoError(t, err)

	w := &sqliteWallet{
		rawSecure: rawSecure,
		registry:  registry.New(plain),
		hashKeys:  hashkey.NewManager(secure, plain, hashkey.WithKDF(cheapKDF)),
	}
	custodian := vault.NewSQLiteVault(conn, vault.WithScryptParams(cryptox.ScryptParams{N: 1 << 10, R: 8, P: 1}))
	w.ctrl = NewSessionController(w.registry, custodian, w.hashKeys, codec, log)
	return w
}

func deviceKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, cryptox.DeviceKeyLen)
}

func TestSQLiteBackend_TamperedRowSelfHeals(t *testing.T) {
	for _, slot := range []string{common.TemporaryStoreKey, common.HashKeyKey, common.HashKeySaltKey} {
		t.Run(slot, func(t *testing.T) {
			ctx := context.Background()
			w := openSQLiteWallet(t, sqliteConn(t), deviceKey(7))
			require.NoError(t, w.ctrl.SignUp(ctx, mnemonic1, []byte("p1")))
			before, err := w.registry.List(ctx)
			require.NoError(t, err)

			raw, err := w.rawSecure.Get(ctx, slot)
			require.NoError(t, err)
			require.NoError(t, w.rawSecure.Set(ctx, slot, raw[:len(raw)/2]))

			_, err = w.ctrl.GetActiveAccount(ctx)
			require.True(t, errors.Is(err, common.ErrCorruptSessionState), "got %v", err)
			assert.False(t, errors.Is(err, common.ErrStorageIO))

			ok, err := w.hashKeys.IsValid(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			after, err := w.registry.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after)

			_, err = w.ctrl.GetActiveAccount(ctx)
			assert.True(t, errors.Is(err, common.ErrSessionExpired), "got %v", err)

			require.NoError(t, w.ctrl.Login(ctx, []byte("p1")))
			got, err := w.ctrl.GetActiveAccount(ctx)
			require.NoError(t, err)
			assert.Equal(t, derive(t, mnemonic1).PublicKey, got.PublicKey)
		})
	}
}

func TestSQLiteBackend_NewDeviceKeyDegradesToSignedOut(t *testing.T) {
	ctx := context.Background()
	conn := sqliteConn(t)

	w := openSQLiteWallet(t, conn, deviceKey(7))
	require.NoError(t, w.ctrl.SignUp(ctx, mnemonic1, []byte("p1")))

	// same database, device key regenerated after a restore
	restored := openSQLiteWallet(t, conn, deviceKey(8))

	status, err := restored.ctrl.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.AuthHashKeyExpired, status)

	_, err = restored.ctrl.GetActiveAccount(ctx)
	assert.True(t, errors.Is(err, common.ErrSessionExpired), "got %v", err)

	require.NoError(t, restored.ctrl.Login(ctx, []byte("p1")))
	status, err = restored.ctrl.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.AuthAuthenticated, status)
}
