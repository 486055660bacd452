// Package services contains the wallet session controller: the single entry
// point for account creation, login, logout and reading the active key pair.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/hashkey"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/hdwallet"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/registry"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/tempstore"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/vault"
)

// SessionController owns the wallet session.
//
// Contract:
//   - SignUp / Recover: create an account from a mnemonic and open a session.
//     Recover wipes every existing account first. Any failure leaves nothing
//     behind (full logout) and moves the controller to StateError.
//   - Login: reopen a session for the active account. A failed login does not
//     touch the current session material.
//   - Logout: drop the session; full also forgets accounts and keys.
//   - ResetAuthenticationState: drop the session, keep accounts.
//   - GetActiveAccount: the authoritative read used by signing code. Returns
//     ErrSessionExpired when the password must be entered again.
//   - SelectAccount / CreateAccount / ImportSecretKey: multi-account
//     management inside an open session. All accounts share one password.
//
// Mutations are serialised; reads may run concurrently with each other.
type SessionController interface {
	SignUp(ctx context.Context, mnemonic string, password []byte) error
	Recover(ctx context.Context, mnemonic string, password []byte) error
	Login(ctx context.Context, password []byte) error
	Logout(ctx context.Context, full bool) error
	ResetAuthenticationState(ctx context.Context) error
	GetActiveAccount(ctx context.Context) (models.ActiveAccount, error)

	Status(ctx context.Context) (models.AuthStatus, error)
	ActivePublicKey(ctx context.Context) (string, error)
	Accounts(ctx context.Context) ([]models.Account, error)
	RenameAccount(ctx context.Context, id, name string) error
	SelectAccount(ctx context.Context, id string) error
	CreateAccount(ctx context.Context, password []byte) (models.Account, error)
	ImportSecretKey(ctx context.Context, secret string, password []byte) (models.Account, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error
	State() models.State
}

type sessionController struct {
	registry  *registry.Registry
	custodian vault.KeyCustodian
	hashKeys  *hashkey.Manager
	codec     *tempstore.Codec
	log       logging.Logger

	mu    sync.RWMutex
	state atomic.Int32
	// generation changes whenever session material is written or cleared,
	// so a reader can tell whether the blob it found corrupt is still there.
	generation atomic.Uint64

	monitor *corruptionMonitor
}

type Option func(*sessionController)

// WithClock sets the clock used by the corruption monitor.
func WithClock(now func() time.Time) Option {
	return func(c *sessionController) { c.monitor = newCorruptionMonitor(now) }
}

// NewSessionController wires the controller to its collaborators.
func NewSessionController(
	reg *registry.Registry,
	custodian vault.KeyCustodian,
	hashKeys *hashkey.Manager,
	codec *tempstore.Codec,
	log logging.Logger,
	opts ...Option,
) SessionController {
	c := &sessionController{
		registry:  reg,
		custodian: custodian,
		hashKeys:  hashKeys,
		codec:     codec,
		log:       log.With("component", "session"),
		monitor:   newCorruptionMonitor(time.Now),
	}
	for _, o := range opts {
		o(c)
	}
	c.setState(models.StateSignedOut)
	return c
}

func (c *sessionController) State() models.State {
	return models.State(c.state.Load())
}

func (c *sessionController) setState(s models.State) {
	c.state.Store(int32(s))
}

func (c *sessionController) SignUp(ctx context.Context, mnemonic string, password []byte) error {
	return c.createAccount(ctx, mnemonic, password, false)
}

func (c *sessionController) Recover(ctx context.Context, mnemonic string, password []byte) error {
	return c.createAccount(ctx, mnemonic, password, true)
}

func (c *sessionController) createAccount(ctx context.Context, mnemonic string, password []byte, imported bool) error {
	mnemonic = hdwallet.NormalizeMnemonic(mnemonic)
	if err := hdwallet.ValidateMnemonic(mnemonic); err != nil {
		return err
	}
	kp, err := hdwallet.DeriveKeyPair(mnemonic, 0)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The wallet has one password. Adding to an existing wallet must prove
	// it before anything is written.
	if !imported {
		if err := c.checkNewAccount(ctx, password, kp.PublicKey); err != nil {
			return err
		}
	}

	c.setState(models.StateAuthenticating)

	account, err := c.storeAccount(ctx, mnemonic, password, kp, imported)
	if err != nil {
		if cerr := c.logout(ctx, true); cerr != nil {
			c.log.Error(ctx, "cleanup after failed account creation", "error", cerr)
		}
		c.setState(models.StateError)
		c.log.Warn(ctx, "account creation failed", "imported", imported, "error", err)
		return err
	}

	c.setState(models.StateAuthenticated)
	c.log.Info(ctx, "account created", "account_id", account.ID, "imported", imported)
	return nil
}

func (c *sessionController) checkNewAccount(ctx context.Context, password []byte, publicKey string) error {
	accounts, err := c.registry.List(ctx)
	if err != nil {
		return err
	}
	if hasPublicKey(accounts, publicKey) {
		return common.ErrAccountExists
	}

	id, err := c.registry.ActiveID(ctx)
	if err != nil || id == "" {
		return err
	}
	_, err = c.unlock(ctx, id, password)
	return err
}

func (c *sessionController) storeAccount(ctx context.Context, mnemonic string, password []byte, kp models.KeyPair, imported bool) (models.Account, error) {
	if imported {
		if err := c.logout(ctx, true); err != nil {
			return models.Account{}, fmt.Errorf("failed to wipe previous wallet: %w", err)
		}
	}

	id, err := c.custodian.StoreKey(ctx, password, kp, models.KeyMetadata{
		Imported:       imported,
		MnemonicPhrase: mnemonic,
	})
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to store key: %w", err)
	}

	existing, err := c.registry.List(ctx)
	if err != nil {
		return models.Account{}, err
	}

	account := models.Account{
		ID:        id,
		Name:      models.DefaultAccountName(len(existing) + 1),
		PublicKey: kp.PublicKey,
		Imported:  imported,
	}
	if err := c.registry.Append(ctx, account); err != nil {
		return models.Account{}, err
	}
	if err := c.registry.SetActive(ctx, id); err != nil {
		return models.Account{}, err
	}

	keys, err := c.unlockOthers(ctx, password, id)
	if err != nil {
		return models.Account{}, err
	}
	keys[id] = kp.PrivateKey

	if err := c.openSession(ctx, password, keys, mnemonic); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// openSession replaces the hash key material and seals a new temporary
// store holding the given account secrets.
func (c *sessionController) openSession(ctx context.Context, password []byte, keys map[string]string, mnemonic string) error {
	defer c.generation.Add(1)

	material, err := c.hashKeys.DeriveAndPersist(ctx, password)
	if err != nil {
		return err
	}

	store := models.TemporaryStore{
		Expiration:     material.ExpiresAtMs,
		PrivateKeys:    keys,
		MnemonicPhrase: mnemonic,
	}
	if err := c.codec.Seal(ctx, material, store); err != nil {
		return fmt.Errorf("failed to seal session: %w", err)
	}
	return nil
}

// unlock opens one vault entry, translating custodian errors.
func (c *sessionController) unlock(ctx context.Context, id string, password []byte) (models.StoredKey, error) {
	key, err := c.custodian.LoadKey(ctx, id, password)
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return models.StoredKey{}, common.ErrInvalidPassword
	case errors.Is(err, common.ErrNotFound):
		return models.StoredKey{}, fmt.Errorf("%w: %w", common.ErrRegistryVaultMismatch, common.ErrAccountNotFound)
	case err != nil:
		return models.StoredKey{}, err
	}
	return key, nil
}

// unlockOthers opens every registered account except one. Entries that do
// not open are left out of the session and logged.
func (c *sessionController) unlockOthers(ctx context.Context, password []byte, except string) (map[string]string, error) {
	accounts, err := c.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]string, len(accounts))
	for _, a := range accounts {
		if a.ID == except {
			continue
		}
		key, err := c.unlock(ctx, a.ID, password)
		if err != nil {
			c.log.Warn(ctx, "account left out of session", "account_id", a.ID, "error", err)
			continue
		}
		keys[a.ID] = key.PrivateKey
	}
	return keys, nil
}

func (c *sessionController) Login(ctx context.Context, password []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.State()
	c.setState(models.StateAuthenticating)

	if err := c.login(ctx, password); err != nil {
		c.setState(prev)
		c.log.Info(ctx, "login failed", "error", err)
		return err
	}

	c.setState(models.StateAuthenticated)
	c.log.Info(ctx, "session opened")
	return nil
}

func (c *sessionController) login(ctx context.Context, password []byte) error {
	id, err := c.registry.ActiveID(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		return common.ErrNoActiveAccount
	}

	key, err := c.unlock(ctx, id, password)
	if err != nil {
		return err
	}

	if key.Metadata.MnemonicPhrase == "" {
		return common.ErrMnemonicNotFound
	}

	if _, err := c.registry.Get(ctx, id); err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			return fmt.Errorf("%w: %w", common.ErrRegistryVaultMismatch, err)
		}
		return err
	}

	keys, err := c.unlockOthers(ctx, password, id)
	if err != nil {
		return err
	}
	keys[id] = key.PrivateKey

	if err := c.openSession(ctx, password, keys, key.Metadata.MnemonicPhrase); err != nil {
		// the previous material has already been replaced at this point
		if rerr := c.resetAuthenticationState(ctx); rerr != nil {
			c.log.Error(ctx, "cleanup after failed login", "error", rerr)
		}
		return err
	}
	return nil
}

// ChangePassword re-encrypts the vault under newPassword and opens a fresh
// session with it. A wrong old password changes nothing.
func (c *sessionController) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.registry.ActiveID(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		return common.ErrNoActiveAccount
	}

	if err := c.custodian.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return common.ErrInvalidPassword
		}
		return err
	}

	if err := c.login(ctx, newPassword); err != nil {
		c.setState(models.StateSignedOut)
		return err
	}
	c.setState(models.StateAuthenticated)
	c.log.Info(ctx, "password changed")
	return nil
}

func (c *sessionController) Logout(ctx context.Context, full bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.logout(ctx, full)
	c.setState(models.StateSignedOut)
	if err != nil {
		c.log.Error(ctx, "logout incomplete", "full", full, "error", err)
		return err
	}
	c.log.Info(ctx, "logged out", "full", full)
	return nil
}

// logout clears in the order hash key, temporary store, accounts, vault,
// expiry. Every step is attempted even if an earlier one fails.
func (c *sessionController) logout(ctx context.Context, full bool) error {
	defer c.generation.Add(1)

	errs := []error{
		c.hashKeys.ClearKey(ctx),
		c.codec.Clear(ctx),
	}
	if full {
		errs = append(errs,
			c.registry.Clear(ctx),
			c.custodian.RemoveAll(ctx),
			c.hashKeys.ClearExpiry(ctx),
		)
	}
	return errors.Join(errs...)
}

func (c *sessionController) ResetAuthenticationState(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.resetAuthenticationState(ctx)
	c.setState(models.StateSignedOut)
	return err
}

func (c *sessionController) resetAuthenticationState(ctx context.Context) error {
	defer c.generation.Add(1)

	return errors.Join(
		c.hashKeys.ClearKey(ctx),
		c.codec.Clear(ctx),
		c.hashKeys.ClearExpiry(ctx),
	)
}

func (c *sessionController) GetActiveAccount(ctx context.Context) (models.ActiveAccount, error) {
	account, gen, err := c.readActiveAccount(ctx)
	if err == nil {
		return account, nil
	}

	switch {
	case errors.Is(err, common.ErrSessionExpired):
		c.state.CompareAndSwap(int32(models.StateAuthenticated), int32(models.StateSignedOut))
		c.log.Info(ctx, "session expired")
	case errors.Is(err, common.ErrCorruptSessionState):
		c.heal(ctx, gen, err)
	}
	return models.ActiveAccount{}, err
}

func (c *sessionController) readActiveAccount(ctx context.Context) (models.ActiveAccount, uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	gen := c.generation.Load()

	account, err := c.activeAccount(ctx)
	if err != nil {
		return models.ActiveAccount{}, gen, err
	}

	_, store, err := c.readStore(ctx)
	if err != nil {
		return models.ActiveAccount{}, gen, err
	}

	secret, ok := store.PrivateKeys[account.ID]
	if !ok {
		return models.ActiveAccount{}, gen, fmt.Errorf("account %s: %w", account.ID, common.ErrPrivateKeyNotFound)
	}

	return models.ActiveAccount{
		ID:          account.ID,
		PublicKey:   account.PublicKey,
		PrivateKey:  secret,
		AccountName: account.Name,
	}, gen, nil
}

// heal drops an undecryptable session so the next read reports
// ErrSessionExpired. It does nothing if the session was rewritten after
// the failed read.
func (c *sessionController) heal(ctx context.Context, gen uint64, cause error) {
	c.reportCorruption(ctx, cause)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation.Load() != gen {
		return
	}
	c.dropSession(ctx)
}

func (c *sessionController) reportCorruption(ctx context.Context, cause error) {
	if n := c.monitor.record(); n >= corruptionThreshold {
		c.log.Error(ctx, "repeated corrupt session state", "count", n, "window", corruptionWindow.String(), "error", cause)
	} else {
		c.log.Warn(ctx, "corrupt session state, resetting", "error", cause)
	}
}

// dropSession must be called with the write lock held.
func (c *sessionController) dropSession(ctx context.Context) {
	if err := c.resetAuthenticationState(ctx); err != nil {
		c.log.Error(ctx, "failed to reset corrupt session", "error", err)
	}
	c.setState(models.StateSignedOut)
}

// readStore checks the session and decrypts the temporary store.
func (c *sessionController) readStore(ctx context.Context) (models.HashKeyMaterial, models.TemporaryStore, error) {
	valid, err := c.hashKeys.IsValid(ctx)
	if err != nil {
		return models.HashKeyMaterial{}, models.TemporaryStore{}, err
	}
	if !valid {
		return models.HashKeyMaterial{}, models.TemporaryStore{}, common.ErrSessionExpired
	}

	material, ok, err := c.hashKeys.Load(ctx)
	if err != nil {
		return models.HashKeyMaterial{}, models.TemporaryStore{}, err
	}
	if !ok {
		return models.HashKeyMaterial{}, models.TemporaryStore{}, common.ErrSessionExpired
	}

	store, err := c.codec.Unseal(ctx, material)
	if err != nil {
		return models.HashKeyMaterial{}, models.TemporaryStore{}, err
	}
	return material, store, nil
}

func (c *sessionController) activeAccount(ctx context.Context) (models.Account, error) {
	id, err := c.registry.ActiveID(ctx)
	if err != nil {
		return models.Account{}, err
	}
	if id == "" {
		return models.Account{}, common.ErrNoActiveAccount
	}
	return c.registry.Get(ctx, id)
}

// Status tells a lock screen which prompt to show. Unreadable session
// material is dropped and reported as an expired hash key.
func (c *sessionController) Status(ctx context.Context) (models.AuthStatus, error) {
	status, gen, err := c.status(ctx)
	if errors.Is(err, common.ErrCorruptSessionState) {
		c.heal(ctx, gen, err)
		return models.AuthHashKeyExpired, nil
	}
	return status, err
}

func (c *sessionController) status(ctx context.Context) (models.AuthStatus, uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	gen := c.generation.Load()

	accounts, err := c.registry.List(ctx)
	if err != nil {
		return models.AuthNotAuthenticated, gen, err
	}
	if len(accounts) == 0 {
		return models.AuthNotAuthenticated, gen, nil
	}

	valid, err := c.hashKeys.IsValid(ctx)
	if err != nil {
		return models.AuthHashKeyExpired, gen, err
	}
	if !valid {
		return models.AuthHashKeyExpired, gen, nil
	}
	return models.AuthAuthenticated, gen, nil
}

// ActivePublicKey needs no session.
func (c *sessionController) ActivePublicKey(ctx context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	account, err := c.activeAccount(ctx)
	if err != nil {
		return "", err
	}
	return account.PublicKey, nil
}

func (c *sessionController) Accounts(ctx context.Context) ([]models.Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.registry.List(ctx)
}

func (c *sessionController) RenameAccount(ctx context.Context, id, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.registry.Rename(ctx, id, name)
}
