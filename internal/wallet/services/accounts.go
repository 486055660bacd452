package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/hdwallet"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
)

// maxDerivationWindow bounds how far past the expected index a mnemonic is
// searched, both for the next free index and for a selected account.
const maxDerivationWindow = 50

func hasPublicKey(accounts []models.Account, publicKey string) bool {
	for _, a := range accounts {
		if a.PublicKey == publicKey {
			return true
		}
	}
	return false
}

// nextDerived picks the key pair for a new mnemonic account. The start
// index counts derived accounts only; indexes already in use are skipped.
func nextDerived(mnemonic string, accounts []models.Account) (models.KeyPair, error) {
	var index uint32
	for _, a := range accounts {
		if !a.FromSecretKey {
			index++
		}
	}

	for range maxDerivationWindow {
		kp, err := hdwallet.DeriveKeyPair(mnemonic, index)
		if err != nil {
			return models.KeyPair{}, err
		}
		if !hasPublicKey(accounts, kp.PublicKey) {
			return kp, nil
		}
		index++
	}
	return models.KeyPair{}, common.ErrAccountExists
}

// openStore is readStore for callers holding the write lock: corrupt
// material is dropped on the spot.
func (c *sessionController) openStore(ctx context.Context) (models.HashKeyMaterial, models.TemporaryStore, error) {
	material, store, err := c.readStore(ctx)
	switch {
	case errors.Is(err, common.ErrCorruptSessionState):
		c.reportCorruption(ctx, err)
		c.dropSession(ctx)
	case errors.Is(err, common.ErrSessionExpired):
		c.state.CompareAndSwap(int32(models.StateAuthenticated), int32(models.StateSignedOut))
	}
	return material, store, err
}

// SelectAccount makes id the active account. The session must be open. A
// derived account whose secret is not yet in the session is derived from
// the session mnemonic and sealed in.
func (c *sessionController) SelectAccount(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	account, err := c.registry.Get(ctx, id)
	if err != nil {
		return err
	}

	material, store, err := c.openStore(ctx)
	if err != nil {
		return err
	}

	if _, ok := store.PrivateKeys[id]; !ok {
		if account.FromSecretKey || store.MnemonicPhrase == "" {
			return fmt.Errorf("account %s: %w", id, common.ErrPrivateKeyNotFound)
		}
		kp, _, found, err := hdwallet.FindIndex(store.MnemonicPhrase, account.PublicKey, maxDerivationWindow)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("account %s: %w", id, common.ErrPrivateKeyNotFound)
		}
		store.PrivateKeys[id] = kp.PrivateKey
		if err := c.reseal(ctx, material, store); err != nil {
			return err
		}
	}

	if err := c.registry.SetActive(ctx, id); err != nil {
		return err
	}
	c.log.Info(ctx, "account selected", "account_id", id)
	return nil
}

// CreateAccount derives the next account from the session mnemonic, stores
// it under password and makes it active.
func (c *sessionController) CreateAccount(ctx context.Context, password []byte) (models.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	material, store, err := c.unlockedStore(ctx, password)
	if err != nil {
		return models.Account{}, err
	}

	accounts, err := c.registry.List(ctx)
	if err != nil {
		return models.Account{}, err
	}
	kp, err := nextDerived(store.MnemonicPhrase, accounts)
	if err != nil {
		return models.Account{}, err
	}

	account, err := c.addAccount(ctx, password, kp, len(accounts), false, material, store)
	if err != nil {
		return models.Account{}, err
	}
	c.log.Info(ctx, "account derived", "account_id", account.ID)
	return account, nil
}

// ImportSecretKey adds an account for a bare "S..." secret and makes it
// active.
func (c *sessionController) ImportSecretKey(ctx context.Context, secret string, password []byte) (models.Account, error) {
	kp, err := hdwallet.KeyPairFromSecret(strings.TrimSpace(secret))
	if err != nil {
		return models.Account{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	material, store, err := c.unlockedStore(ctx, password)
	if err != nil {
		return models.Account{}, err
	}

	accounts, err := c.registry.List(ctx)
	if err != nil {
		return models.Account{}, err
	}
	if hasPublicKey(accounts, kp.PublicKey) {
		return models.Account{}, common.ErrAccountExists
	}

	account, err := c.addAccount(ctx, password, kp, len(accounts), true, material, store)
	if err != nil {
		return models.Account{}, err
	}
	c.log.Info(ctx, "secret key imported", "account_id", account.ID)
	return account, nil
}

// unlockedStore opens the session store and checks password against the
// active account's vault entry.
func (c *sessionController) unlockedStore(ctx context.Context, password []byte) (models.HashKeyMaterial, models.TemporaryStore, error) {
	active, err := c.activeAccount(ctx)
	if err != nil {
		return models.HashKeyMaterial{}, models.TemporaryStore{}, err
	}

	material, store, err := c.openStore(ctx)
	if err != nil {
		return models.HashKeyMaterial{}, models.TemporaryStore{}, err
	}
	if store.MnemonicPhrase == "" {
		return models.HashKeyMaterial{}, models.TemporaryStore{}, common.ErrMnemonicNotFound
	}

	if _, err := c.unlock(ctx, active.ID, password); err != nil {
		return models.HashKeyMaterial{}, models.TemporaryStore{}, err
	}
	return material, store, nil
}

// addAccount stores kp in the vault, registers it as account n+1, makes it
// active and seals its secret into the current session without refreshing
// the hash key.
func (c *sessionController) addAccount(
	ctx context.Context,
	password []byte,
	kp models.KeyPair,
	n int,
	fromSecret bool,
	material models.HashKeyMaterial,
	store models.TemporaryStore,
) (models.Account, error) {
	id, err := c.custodian.StoreKey(ctx, password, kp, models.KeyMetadata{
		Imported:       fromSecret,
		MnemonicPhrase: store.MnemonicPhrase,
	})
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to store key: %w", err)
	}

	account := models.Account{
		ID:            id,
		Name:          models.DefaultAccountName(n + 1),
		PublicKey:     kp.PublicKey,
		Imported:      fromSecret,
		FromSecretKey: fromSecret,
	}
	if err := c.registry.Append(ctx, account); err != nil {
		return models.Account{}, err
	}

	store.PrivateKeys[id] = kp.PrivateKey
	if err := c.reseal(ctx, material, store); err != nil {
		return models.Account{}, err
	}

	if err := c.registry.SetActive(ctx, id); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (c *sessionController) reseal(ctx context.Context, material models.HashKeyMaterial, store models.TemporaryStore) error {
	defer c.generation.Add(1)

	if err := c.codec.Seal(ctx, material, store); err != nil {
		return fmt.Errorf("failed to seal session: %w", err)
	}
	return nil
}
