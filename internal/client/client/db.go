package client

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/barangayconnect/internal/client/migrations"
	"github.com/dmitrijs2005/barangayconnect/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/barangayconnect/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/cryptox"
	"github.com/dmitrijs2005/barangayconnect/internal/filex"
	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// VaultKeyMetadataKey holds the generated sealing key when none is
// configured.
const VaultKeyMetadataKey = "vault-key"

type Repositories struct {
	DB       *sql.DB
	Accounts accounts.Repository
	Metadata metadata.Repository
	// Durable is false when the client runs on in-memory fallbacks.
	Durable bool
}

func (r *Repositories) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = goose.UpContext

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite database at dsn and migrates it. SQLite
// allows a single writer, so the pool is limited to one connection.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	path, err := filex.EnsureParentDir(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// parseVaultKey decodes a configured hex key. An empty keyHex yields nil.
func parseVaultKey(keyHex string) ([]byte, error) {
	if keyHex == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode vault key: %w", err)
	}
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("vault key: %w", cryptox.ErrInvalidKey)
	}
	return key, nil
}

// LoadSealer builds the sealer for pending plaintext. A configured hex key
// wins; otherwise a random key is generated once and kept in the blob store.
func LoadSealer(ctx context.Context, meta metadata.Repository, keyHex string) (*cryptox.Sealer, error) {
	key, err := parseVaultKey(keyHex)
	if err != nil {
		return nil, err
	}
	if key != nil {
		return cryptox.NewSealer(key)
	}

	key, err = meta.Get(ctx, VaultKeyMetadataKey)
	if errors.Is(err, common.ErrorNotFound) {
		key = common.GenerateRandByteArray(cryptox.KeySize)
		if err := meta.Set(ctx, VaultKeyMetadataKey, key); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return cryptox.NewSealer(key)
}

// OpenRepositories opens the durable store. If that fails the client keeps
// working on in-memory repositories and Durable is false. A malformed keyHex
// is rejected in both modes.
func OpenRepositories(ctx context.Context, dsn, keyHex string, l logging.Logger) (*Repositories, error) {
	if _, err := parseVaultKey(keyHex); err != nil {
		return nil, fmt.Errorf("sealer init: %w", err)
	}

	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		l.Warn(ctx, "durable store unavailable, using in-memory storage", "dsn", dsn, "error", err)
		return memoryRepositories(), nil
	}

	meta := metadata.NewSQLiteRepository(db)
	sealer, err := LoadSealer(ctx, meta, keyHex)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sealer init: %w", err)
	}

	return &Repositories{
		DB:       db,
		Accounts: accounts.NewSQLiteRepository(db, sealer),
		Metadata: meta,
		Durable:  true,
	}, nil
}

// memoryRepositories keeps pending plaintext in process memory only, so no
// sealer is involved.
func memoryRepositories() *Repositories {
	return &Repositories{
		Accounts: accounts.NewMemoryRepository(),
		Metadata: metadata.NewMemoryRepository(),
	}
}
