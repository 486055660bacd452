package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/dbx"
)

const (
	PlainTable  = "kv"
	SecureTable = "secure_kv"
)

type SQLiteStorage struct {
	db    dbx.DBTX
	table string

	getQuery    string
	setQuery    string
	removeQuery string
}

// NewSQLiteStorage binds the store to one of the tables created by the
// wallet migrations.
func NewSQLiteStorage(db dbx.DBTX, table string) (*SQLiteStorage, error) {
	if table != PlainTable && table != SecureTable {
		return nil, fmt.Errorf("unknown storage table %q", table)
	}
	return &SQLiteStorage{
		db:          db,
		table:       table,
		getQuery:    `SELECT value FROM ` + table + ` WHERE key = ?`,
		setQuery:    `INSERT INTO ` + table + ` (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		removeQuery: `DELETE FROM ` + table + ` WHERE key = ?`,
	}, nil
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get %s[%s]: %w", common.ErrStorageIO, s.table, key, err)
	}
	return value, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, s.setQuery, key, value); err != nil {
		return fmt.Errorf("%w: failed to set %s[%s]: %w", common.ErrStorageIO, s.table, key, err)
	}
	return nil
}

func (s *SQLiteStorage) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.removeQuery, key); err != nil {
		return fmt.Errorf("%w: failed to remove %s[%s]: %w", common.ErrStorageIO, s.table, key, err)
	}
	return nil
}
