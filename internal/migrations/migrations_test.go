package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsOrderedMigrations(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"00001_create_users.sql", "00002_create_security_logs.sql"}, files)

	for _, name := range files {
		body, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestUsersMigration_ResetTokenConstraints(t *testing.T) {
	body, err := fs.ReadFile(FS, "00001_create_users.sql")
	require.NoError(t, err)
	sqlText := string(body)

	assert.True(t, strings.Contains(sqlText, "UNIQUE INDEX IF NOT EXISTS idx_users_reset_password_token"))
	assert.True(t, strings.Contains(sqlText, "users_reset_token_pair"))
}

func TestUp_UsesEmbeddedRoot(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Up(context.Background(), nil))
	assert.Equal(t, ".", gotDir)
}

func TestUp_PropagatesError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	assert.EqualError(t, Up(context.Background(), nil), "boom")
}

func TestDown_UsesEmbeddedRoot(t *testing.T) {
	orig := gooseDownContext
	t.Cleanup(func() { gooseDownContext = orig })

	var gotDir string
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Down(context.Background(), nil))
	assert.Equal(t, ".", gotDir)
}
