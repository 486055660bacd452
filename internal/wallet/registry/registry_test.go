package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStorage struct{}

func (brokenStorage) Get(context.Context, string) ([]byte, error) {
	return nil, common.ErrStorageIO
}
func (brokenStorage) Set(context.Context, string, []byte) error { return common.ErrStorageIO }
func (brokenStorage) Remove(context.Context, string) error      { return common.ErrStorageIO }

func TestList_EmptyWhenNeverInitialised(t *testing.T) {
	r := New(storage.NewMemory())
	got, err := r.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAppend_KeepsOrder(t *testing.T) {
	ctx := context.Background()
	r := New(storage.NewMemory())

	a1 := models.Account{ID: "id-1", Name: "Account 1", PublicKey: "GA"}
	a2 := models.Account{ID: "id-2", Name: "Account 2", PublicKey: "GB", Imported: true}
	require.NoError(t, r.Append(ctx, a1))
	require.NoError(t, r.Append(ctx, a2))

	got, err := r.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]models.Account{a1, a2}, got); diff != "" {
		t.Fatalf("accounts mismatch (-want +got):\n%s", diff)
	}
}

func TestSetActive_RequiresExistingAccount(t *testing.T) {
	ctx := context.Background()
	r := New(storage.NewMemory())

	err := r.SetActive(ctx, "ghost")
	require.True(t, errors.Is(err, common.ErrAccountNotFound))

	id, err := r.ActiveID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, r.Append(ctx, models.Account{ID: "id-1", Name: "Account 1"}))
	require.NoError(t, r.SetActive(ctx, "id-1"))

	id, err = r.ActiveID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	r := New(storage.NewMemory())
	require.NoError(t, r.Append(ctx, models.Account{ID: "id-1", Name: "Account 1", PublicKey: "GA"}))

	require.NoError(t, r.Rename(ctx, "id-1", "  Savings  "))
	got, err := r.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, models.Account{ID: "id-1", Name: "Savings", PublicKey: "GA"}, got)

	assert.True(t, errors.Is(r.Rename(ctx, "id-1", ""), common.ErrInvalidAccountName))
	assert.True(t, errors.Is(r.Rename(ctx, "nope", "x"), common.ErrAccountNotFound))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	r := New(storage.NewMemory())
	require.NoError(t, r.Append(ctx, models.Account{ID: "id-1"}))
	require.NoError(t, r.SetActive(ctx, "id-1"))

	require.NoError(t, r.Clear(ctx))

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	id, err := r.ActiveID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestCorruptListIsStorageIO(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, common.AccountListKey, []byte("{not json")))

	_, err := New(mem).List(ctx)
	assert.True(t, errors.Is(err, common.ErrStorageIO))
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	r := New(brokenStorage{})

	_, err := r.List(ctx)
	assert.True(t, errors.Is(err, common.ErrStorageIO))
	assert.True(t, errors.Is(r.Append(ctx, models.Account{ID: "x"}), common.ErrStorageIO))
	_, err = r.ActiveID(ctx)
	assert.True(t, errors.Is(err, common.ErrStorageIO))
	assert.True(t, errors.Is(r.Clear(ctx), common.ErrStorageIO))
}
