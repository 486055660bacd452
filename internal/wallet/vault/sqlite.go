package vault

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/dbx"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
	"github.com/google/uuid"
)

// secretPayload is the plaintext sealed inside each vault record.
type secretPayload struct {
	PrivateKey string             `json:"privateKey"`
	Metadata   models.KeyMetadata `json:"metadata"`
}

type SQLiteVault struct {
	db     dbx.DBTX
	txdb   dbx.TxBeginner
	params cryptox.ScryptParams
	now    func() time.Time
}

type Option func(*SQLiteVault)

// WithScryptParams overrides the password KDF cost.
func WithScryptParams(p cryptox.ScryptParams) Option {
	return func(v *SQLiteVault) { v.params = p }
}

func NewSQLiteVault(db *sql.DB, opts ...Option) *SQLiteVault {
	v := &SQLiteVault{db: db, txdb: db, params: cryptox.DefaultScryptParams, now: time.Now}
	for _, o := range opts {
		o(v)
	}
	return v
}

var _ KeyCustodian = (*SQLiteVault)(nil)

func (v *SQLiteVault) StoreKey(ctx context.Context, password []byte, kp models.KeyPair, md models.KeyMetadata) (string, error) {
	plain, err := json.Marshal(secretPayload{PrivateKey: kp.PrivateKey, Metadata: md})
	if err != nil {
		return "", fmt.Errorf("failed to encode key payload: %w", err)
	}
	defer common.WipeByteArray(plain)

	box, err := cryptox.SealWithPassword(password, plain, v.params)
	if err != nil {
		return "", fmt.Errorf("failed to seal key: %w", err)
	}

	id := uuid.NewString()
	_, err = v.db.ExecContext(ctx, `
		INSERT INTO vault_keys (id, public_key, salt, nonce, ciphertext, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, kp.PublicKey, box.Salt, box.Nonce, box.Ciphertext, v.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("%w: failed to insert vault key: %w", common.ErrStorageIO, err)
	}
	return id, nil
}

func (v *SQLiteVault) LoadKey(ctx context.Context, id string, password []byte) (models.StoredKey, error) {
	var (
		publicKey string
		box       cryptox.PasswordBox
	)
	err := v.db.QueryRowContext(ctx, `
		SELECT public_key, salt, nonce, ciphertext FROM vault_keys WHERE id = ?
	`, id).Scan(&publicKey, &box.Salt, &box.Nonce, &box.Ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredKey{}, fmt.Errorf("vault key %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return models.StoredKey{}, fmt.Errorf("%w: failed to get vault key[%s]: %w", common.ErrStorageIO, id, err)
	}

	plain, err := cryptox.OpenWithPassword(password, &box, v.params)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordBoxOpen) {
			return models.StoredKey{}, common.ErrInvalidCredentials
		}
		return models.StoredKey{}, fmt.Errorf("failed to open vault key: %w", err)
	}
	defer common.WipeByteArray(plain)

	var payload secretPayload
	if err := json.Unmarshal(plain, &payload); err != nil {
		return models.StoredKey{}, fmt.Errorf("failed to decode vault key[%s]: %w", id, err)
	}

	return models.StoredKey{
		ID:         id,
		PublicKey:  publicKey,
		PrivateKey: payload.PrivateKey,
		Metadata:   payload.Metadata,
	}, nil
}

type sealedRow struct {
	id  string
	box cryptox.PasswordBox
}

// ChangePassword re-encrypts every stored key under newPassword in one
// transaction. If oldPassword fails to open any record nothing is changed
// and common.ErrInvalidCredentials is returned.
func (v *SQLiteVault) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	return dbx.WithTx(ctx, v.txdb, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, salt, nonce, ciphertext FROM vault_keys`)
		if err != nil {
			return fmt.Errorf("%w: failed to list vault keys: %w", common.ErrStorageIO, err)
		}

		var sealed []sealedRow
		for rows.Next() {
			var r sealedRow
			if err := rows.Scan(&r.id, &r.box.Salt, &r.box.Nonce, &r.box.Ciphertext); err != nil {
				rows.Close()
				return fmt.Errorf("%w: failed to scan vault key: %w", common.ErrStorageIO, err)
			}
			sealed = append(sealed, r)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("%w: failed to iterate vault keys: %w", common.ErrStorageIO, err)
		}
		rows.Close()

		for _, r := range sealed {
			plain, err := cryptox.OpenWithPassword(oldPassword, &r.box, v.params)
			if err != nil {
				if errors.Is(err, cryptox.ErrPasswordBoxOpen) {
					return common.ErrInvalidCredentials
				}
				return err
			}

			box, err := cryptox.SealWithPassword(newPassword, plain, v.params)
			common.WipeByteArray(plain)
			if err != nil {
				return fmt.Errorf("failed to seal key: %w", err)
			}

			_, err = tx.ExecContext(ctx, `
				UPDATE vault_keys SET salt = ?, nonce = ?, ciphertext = ? WHERE id = ?
			`, box.Salt, box.Nonce, box.Ciphertext, r.id)
			if err != nil {
				return fmt.Errorf("%w: failed to update vault key[%s]: %w", common.ErrStorageIO, r.id, err)
			}
		}
		return nil
	})
}

// RemoveAll deletes every stored key.
func (v *SQLiteVault) RemoveAll(ctx context.Context) error {
	if _, err := v.db.ExecContext(ctx, `DELETE FROM vault_keys`); err != nil {
		return fmt.Errorf("%w: failed to clear vault: %w", common.ErrStorageIO, err)
	}
	return nil
}

// Count reports how many keys are stored.
func (v *SQLiteVault) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vault_keys`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count vault keys: %w", common.ErrStorageIO, err)
	}
	return n, nil
}
