package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/hdwallet"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
)

// getSimpleText, getPassword, getNewPassword and newMnemonic are
// indirections used to facilitate testing.
var (
	getSimpleText  = GetSimpleText
	getPassword    = GetPassword
	getNewPassword = GetNewPassword
	confirm        = Confirm
	newMnemonic    = hdwallet.NewMnemonic
)

var errUsage = errors.New("usage")

// SignUp creates a wallet from a freshly generated mnemonic.
func (a *App) SignUp(ctx context.Context) error {
	mnemonic, err := newMnemonic()
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Your recovery phrase. Write it down and keep it offline:")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "  "+mnemonic)
	fmt.Fprintln(a.out)

	ok, err := confirm(a.reader, "Have you written it down?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	password, err := getNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.SignUp(ctx, mnemonic, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Wallet created.")
	return nil
}

// Import recovers a wallet from an existing mnemonic, replacing every
// account stored on this device.
func (a *App) Import(ctx context.Context) error {
	mnemonic, err := getSimpleText(a.reader, "Enter recovery phrase", a.out)
	if err != nil {
		return err
	}
	if err := hdwallet.ValidateMnemonic(mnemonic); err != nil {
		return err
	}

	if accounts, err := a.session.Accounts(ctx); err == nil && len(accounts) > 0 {
		ok, err := confirm(a.reader, "This removes all existing accounts from this device. Continue?", a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Cancelled.")
			return nil
		}
	}

	password, err := getNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Recover(ctx, mnemonic, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Wallet imported.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Unlocked.")
	return nil
}

// ChangePassword re-encrypts the vault under a new password.
func (a *App) ChangePassword(ctx context.Context) error {
	current, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := getNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := a.session.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed.")
	return nil
}

// Lock ends the session but keeps accounts.
func (a *App) Lock(ctx context.Context) error {
	if err := a.session.Logout(ctx, false); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Locked.")
	return nil
}

// Logout wipes accounts and keys from this device.
func (a *App) Logout(ctx context.Context) error {
	ok, err := confirm(a.reader, "This removes all accounts and keys from this device. Continue?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	if err := a.session.Logout(ctx, true); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Reset drops session material after the user reports a broken session.
func (a *App) Reset(ctx context.Context) error {
	if err := a.session.ResetAuthenticationState(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Session reset. Log in again to continue.")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	status, err := a.session.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "status: %s\n", status)
	if status == models.AuthNotAuthenticated {
		return nil
	}
	if pub, err := a.session.ActivePublicKey(ctx); err == nil {
		fmt.Fprintf(a.out, "active: %s\n", pub)
	}
	return nil
}

func (a *App) Accounts(ctx context.Context) error {
	accounts, err := a.session.Accounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No accounts.")
		return nil
	}

	active, _ := a.session.ActivePublicKey(ctx)
	for _, acc := range accounts {
		marker := " "
		if acc.PublicKey == active {
			marker = "*"
		}
		imported := ""
		switch {
		case acc.FromSecretKey:
			imported = " (secret key)"
		case acc.Imported:
			imported = " (imported)"
		}
		fmt.Fprintf(a.out, "%s %s  %s  %s%s\n", marker, acc.ID, acc.Name, acc.PublicKey, imported)
	}
	return nil
}

// Select expects: select <id> and makes that account the active one.
func (a *App) Select(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: select <id>", errUsage)
	}
	if err := a.session.SelectAccount(ctx, args[0]); err != nil {
		return err
	}
	pub, err := a.session.ActivePublicKey(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Active account: %s\n", pub)
	return nil
}

// NewAccount derives the next account from the wallet's recovery phrase.
func (a *App) NewAccount(ctx context.Context) error {
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	acc, err := a.session.CreateAccount(ctx, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s (%s)\n%s\n", acc.Name, acc.ID, acc.PublicKey)
	return nil
}

// ImportKey adds an account from a bare S... secret key. The key is read
// without echo.
func (a *App) ImportKey(ctx context.Context) error {
	secret, err := getPassword("Enter secret key", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	acc, err := a.session.ImportSecretKey(ctx, string(secret), password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %s (%s)\n%s\n", acc.Name, acc.ID, acc.PublicKey)
	return nil
}

// WhoAmI prints the active account; it needs an unlocked session.
func (a *App) WhoAmI(ctx context.Context) error {
	acc, err := a.session.GetActiveAccount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n%s\n", acc.AccountName, acc.ID, acc.PublicKey)
	return nil
}

// Rename expects: rename <id> <new name...>
func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: rename <id> <name>", errUsage)
	}
	if err := a.session.RenameAccount(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Renamed.")
	return nil
}

// Sign expects: sign <message...> and prints a base64 ed25519 signature.
func (a *App) Sign(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: sign <message>", errUsage)
	}
	acc, err := a.session.GetActiveAccount(ctx)
	if err != nil {
		return err
	}

	sig, err := hdwallet.Sign(acc.PrivateKey, []byte(strings.Join(args, " ")))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signer:    %s\nsignature: %s\n", acc.PublicKey, base64.StdEncoding.EncodeToString(sig))
	return nil
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	status, err := a.session.Status(ctx)
	return err == nil && status == models.AuthAuthenticated
}

func (a *App) hasWallet(ctx context.Context) bool {
	status, err := a.session.Status(ctx)
	return err == nil && status != models.AuthNotAuthenticated
}

func (a *App) prompt(ctx context.Context) string {
	status, err := a.session.Status(ctx)
	if err != nil {
		return "(error)"
	}
	switch status {
	case models.AuthAuthenticated:
		return "(unlocked)"
	case models.AuthHashKeyExpired:
		return "(locked)"
	default:
		return "(no wallet)"
	}
}

// describe turns session errors into something a user can act on.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrSessionExpired):
		return "Session expired. Run 'login' to unlock."
	case errors.Is(err, common.ErrCorruptSessionState):
		return "Session data was unreadable and has been cleared. Run 'login' to unlock."
	case errors.Is(err, common.ErrInvalidPassword):
		return "Wrong password."
	case errors.Is(err, common.ErrNoActiveAccount):
		return "No wallet on this device. Run 'signup' or 'import'."
	case errors.Is(err, common.ErrRegistryVaultMismatch):
		return "Account list and key vault disagree. Re-import your recovery phrase."
	case errors.Is(err, common.ErrInvalidMnemonic):
		return "That recovery phrase is not valid."
	case errors.Is(err, common.ErrInvalidSecretKey):
		return "That is not a valid secret key."
	case errors.Is(err, common.ErrAccountExists):
		return "That account is already in this wallet."
	case errors.Is(err, common.ErrPrivateKeyNotFound):
		return "The key for that account is not in this session. Run 'lock' and 'login' to reload keys."
	case errors.Is(err, common.ErrAccountNotFound):
		return "No account with that id. Run 'accounts' to list them."
	case errors.Is(err, errPasswordMismatch):
		return "Passwords do not match."
	default:
		return err.Error()
	}
}
