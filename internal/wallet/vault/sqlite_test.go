package vault

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/db"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cheapParams = cryptox.ScryptParams{N: 1 << 10, R: 8, P: 1}

func setupVault(t *testing.T) *SQLiteVault {
	t.Helper()
	conn, err := db.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewSQLiteVault(conn, WithScryptParams(cheapParams))
}

func TestStoreAndLoad(t *testing.T) {
	ctx := context.Background()
	v := setupVault(t)

	kp := models.KeyPair{PublicKey: "GABC", PrivateKey: "SXYZ"}
	md := models.KeyMetadata{Imported: true, MnemonicPhrase: "alpha beta gamma"}

	id, err := v.StoreKey(ctx, []byte("pw"), kp, md)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := v.LoadKey(ctx, id, []byte("pw"))
	require.NoError(t, err)

	want := models.StoredKey{ID: id, PublicKey: "GABC", PrivateKey: "SXYZ", Metadata: md}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stored key mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadKey_WrongPassword(t *testing.T) {
	ctx := context.Background()
	v := setupVault(t)

	id, err := v.StoreKey(ctx, []byte("right"), models.KeyPair{PublicKey: "G", PrivateKey: "S"}, models.KeyMetadata{MnemonicPhrase: "m"})
	require.NoError(t, err)

	_, err = v.LoadKey(ctx, id, []byte("wrong"))
	assert.True(t, errors.Is(err, common.ErrInvalidCredentials), "got %v", err)
}

func TestLoadKey_UnknownID(t *testing.T) {
	_, err := setupVault(t).LoadKey(context.Background(), "missing", []byte("pw"))
	assert.True(t, errors.Is(err, common.ErrNotFound), "got %v", err)
}

func TestStoreKey_IDsAreUnique(t *testing.T) {
	ctx := context.Background()
	v := setupVault(t)

	kp := models.KeyPair{PublicKey: "G", PrivateKey: "S"}
	id1, err := v.StoreKey(ctx, []byte("pw"), kp, models.KeyMetadata{})
	require.NoError(t, err)
	id2, err := v.StoreKey(ctx, []byte("pw"), kp, models.KeyMetadata{})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestRemoveAll(t *testing.T) {
	ctx := context.Background()
	v := setupVault(t)

	id, err := v.StoreKey(ctx, []byte("pw"), models.KeyPair{PublicKey: "G", PrivateKey: "S"}, models.KeyMetadata{})
	require.NoError(t, err)

	require.NoError(t, v.RemoveAll(ctx))

	n, err := v.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = v.LoadKey(ctx, id, []byte("pw"))
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	v := setupVault(t)

	md := models.KeyMetadata{MnemonicPhrase: "m"}
	id1, err := v.StoreKey(ctx, []byte("old"), models.KeyPair{PublicKey: "G1", PrivateKey: "S1"}, md)
	require.NoError(t, err)
	id2, err := v.StoreKey(ctx, []byte("old"), models.KeyPair{PublicKey: "G2", PrivateKey: "S2"}, md)
	require.NoError(t, err)

	require.NoError(t, v.ChangePassword(ctx, []byte("old"), []byte("new")))

	for id, want := range map[string]string{id1: "S1", id2: "S2"} {
		got, err := v.LoadKey(ctx, id, []byte("new"))
		require.NoError(t, err)
		assert.Equal(t, want, got.PrivateKey)

		_, err = v.LoadKey(ctx, id, []byte("old"))
		assert.True(t, errors.Is(err, common.ErrInvalidCredentials))
	}
}

func TestChangePassword_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	v := setupVault(t)

	kp := models.KeyPair{PublicKey: "G", PrivateKey: "S"}
	idA, err := v.StoreKey(ctx, []byte("pw"), kp, models.KeyMetadata{})
	require.NoError(t, err)
	idB, err := v.StoreKey(ctx, []byte("other"), kp, models.KeyMetadata{})
	require.NoError(t, err)

	err = v.ChangePassword(ctx, []byte("pw"), []byte("new"))
	require.True(t, errors.Is(err, common.ErrInvalidCredentials), "got %v", err)

	_, err = v.LoadKey(ctx, idA, []byte("pw"))
	require.NoError(t, err, "first record must be rolled back")
	_, err = v.LoadKey(ctx, idB, []byte("other"))
	require.NoError(t, err)
}
