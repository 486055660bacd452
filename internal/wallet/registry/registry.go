// Package registry keeps the ordered list of wallet accounts and the pointer
// to the active one in plain (unencrypted) storage. Nothing secret is stored
// here: entries carry only ids, names and public keys.
package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/storage"
)

type Registry struct {
	store storage.Storage
}

func New(store storage.Storage) *Registry {
	return &Registry{store: store}
}

// List returns accounts in creation order. A registry that was never
// written yields an empty slice.
func (r *Registry) List(ctx context.Context) ([]models.Account, error) {
	raw, err := r.store.Get(ctx, common.AccountListKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []models.Account{}, nil
	}

	var accounts []models.Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("%w: failed to decode account list: %w", common.ErrStorageIO, err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

func (r *Registry) save(ctx context.Context, accounts []models.Account) error {
	raw, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("%w: failed to encode account list: %w", common.ErrStorageIO, err)
	}
	return r.store.Set(ctx, common.AccountListKey, raw)
}

// Append adds the account at the end of the list.
func (r *Registry) Append(ctx context.Context, account models.Account) error {
	accounts, err := r.List(ctx)
	if err != nil {
		return err
	}
	return r.save(ctx, append(accounts, account))
}

// Get looks an account up by id.
func (r *Registry) Get(ctx context.Context, id string) (models.Account, error) {
	accounts, err := r.List(ctx)
	if err != nil {
		return models.Account{}, err
	}
	for _, a := range accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Account{}, fmt.Errorf("account %s: %w", id, common.ErrAccountNotFound)
}

// Rename changes the display name of an account.
func (r *Registry) Rename(ctx context.Context, id, name string) error {
	name, err := models.NormalizeAccountName(name)
	if err != nil {
		return err
	}

	accounts, err := r.List(ctx)
	if err != nil {
		return err
	}
	for i := range accounts {
		if accounts[i].ID == id {
			accounts[i].Name = name
			return r.save(ctx, accounts)
		}
	}
	return fmt.Errorf("account %s: %w", id, common.ErrAccountNotFound)
}

// SetActive points the registry at an existing account.
func (r *Registry) SetActive(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.store.Set(ctx, common.ActiveAccountIDKey, []byte(id))
}

// ActiveID returns the active account id or "" when none is set.
func (r *Registry) ActiveID(ctx context.Context) (string, error) {
	raw, err := r.store.Get(ctx, common.ActiveAccountIDKey)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Clear drops the account list and the active pointer.
func (r *Registry) Clear(ctx context.Context) error {
	if err := r.store.Remove(ctx, common.AccountListKey); err != nil {
		return err
	}
	return r.store.Remove(ctx, common.ActiveAccountIDKey)
}
