package client

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/barangayconnect/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/cryptox"
	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "local.db")

	db, err := InitDatabase(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	require.True(t, tableExists(t, db, "goose_db_version"))
	require.True(t, tableExists(t, db, "users"))
	require.True(t, tableExists(t, db, "metadata"))
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
}

func TestRunMigrations_ErrorPropagates(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	_, err := InitDatabase(context.Background(), filepath.Join(t.TempDir(), "x.db"))
	require.ErrorContains(t, err, "boom")
}

func TestLoadSealer_GeneratesOnceAndReuses(t *testing.T) {
	ctx := context.Background()
	meta := metadata.NewMemoryRepository()

	s1, err := LoadSealer(ctx, meta, "")
	require.NoError(t, err)
	ct, nonce, err := s1.Seal([]byte("pw"))
	require.NoError(t, err)

	s2, err := LoadSealer(ctx, meta, "")
	require.NoError(t, err)
	pt, err := s2.Open(ct, nonce)
	require.NoError(t, err)
	require.Equal(t, []byte("pw"), pt)
}

func TestLoadSealer_ConfiguredKey(t *testing.T) {
	ctx := context.Background()
	key := strings.Repeat("ab", 32)

	_, err := LoadSealer(ctx, metadata.NewMemoryRepository(), key)
	require.NoError(t, err)

	_, err = LoadSealer(ctx, metadata.NewMemoryRepository(), "zz")
	require.Error(t, err)

	_, err = LoadSealer(ctx, metadata.NewMemoryRepository(), "abcd")
	require.ErrorIs(t, err, cryptox.ErrInvalidKey)
}

func TestOpenRepositories_DurableAndFallback(t *testing.T) {
	ctx := context.Background()

	repos, err := OpenRepositories(ctx, filepath.Join(t.TempDir(), "ok.db"), "", logging.NewNop())
	require.NoError(t, err)
	require.True(t, repos.Durable)
	require.NoError(t, repos.Close())

	// a regular file where the directory should be makes the store unusable
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	repos, err = OpenRepositories(ctx, filepath.Join(blocker, "db.sqlite"), "", logging.NewNop())
	require.NoError(t, err)
	require.False(t, repos.Durable)
	require.NotNil(t, repos.Accounts)
	require.NoError(t, repos.Close())
}

func TestOpenRepositories_InMemoryFallback(t *testing.T) {
	ctx := context.Background()
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	dsn := filepath.Join(blocker, "db.sqlite")

	t.Run("no vault key material is stored", func(t *testing.T) {
		repos, err := OpenRepositories(ctx, dsn, "", logging.NewNop())
		require.NoError(t, err)
		defer repos.Close()

		require.False(t, repos.Durable)
		_, err = repos.Metadata.Get(ctx, VaultKeyMetadataKey)
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("malformed key is rejected like the durable path", func(t *testing.T) {
		for _, key := range []string{"zz", "abcd"} {
			_, err := OpenRepositories(ctx, dsn, key, logging.NewNop())
			require.Error(t, err, key)

			_, err = OpenRepositories(ctx, filepath.Join(t.TempDir(), "ok.db"), key, logging.NewNop())
			require.Error(t, err, key)
		}
	})

	t.Run("valid key", func(t *testing.T) {
		repos, err := OpenRepositories(ctx, dsn, strings.Repeat("ab", 32), logging.NewNop())
		require.NoError(t, err)
		require.False(t, repos.Durable)
		require.NoError(t, repos.Close())
	})
}
