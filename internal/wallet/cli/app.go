package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/filex"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/config"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/db"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/hashkey"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/registry"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/services"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/storage"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/tempstore"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/vault"
)

type App struct {
	config  *config.Config
	session services.SessionController
	log     logging.Logger
	db      *sql.DB
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp opens the wallet database under cfg.DataDir, builds the configured
// secure storage backend and wires the session controller.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	conn, err := db.InitDatabase(ctx, cfg.DatabasePath())
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	plain, err := storage.NewSQLiteStorage(conn, storage.PlainTable)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	secure, err := newSecureStorage(ctx, cfg, conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("secure storage (%s): %w", cfg.SecureBackend, err)
	}

	codec, err := tempstore.NewCodec(secure)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	session := services.NewSessionController(
		registry.New(plain),
		vault.NewSQLiteVault(conn),
		hashkey.NewManager(secure, plain, hashkey.WithTTL(cfg.SessionTTL)),
		codec,
		log,
	)

	log.Debug(ctx, "wallet initialised", "backend", cfg.SecureBackend, "data_dir", cfg.DataDir)

	return &App{
		config:  cfg,
		session: session,
		log:     log,
		db:      conn,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func newSecureStorage(ctx context.Context, cfg *config.Config, conn *sql.DB) (storage.Storage, error) {
	switch cfg.SecureBackend {
	case config.BackendSQLite:
		key, err := filex.LoadOrCreateKeyFile(cfg.DeviceKeyPath(), cryptox.DeviceKeyLen)
		if err != nil {
			return nil, err
		}
		inner, err := storage.NewSQLiteStorage(conn, storage.SecureTable)
		if err != nil {
			return nil, err
		}
		return storage.NewSealed(inner, key)

	case config.BackendSSM:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return storage.NewSSMStorage(ssm.NewFromConfig(awsCfg), cfg.SSMPrefix), nil

	case config.BackendMemory:
		return storage.NewMemory(), nil

	default:
		return nil, fmt.Errorf("unknown secure backend %q", cfg.SecureBackend)
	}
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "gophwallet (type 'help' for commands)")
	runREPL(ctx, a, func() string { return a.prompt(ctx) }, a.reader)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
