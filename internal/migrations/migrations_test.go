package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.Len(t, names, 3)

	for _, name := range names {
		raw, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		body := string(raw)
		assert.True(t, strings.HasPrefix(body, "-- +goose Up"), name)
		assert.Contains(t, body, "-- +goose Down", name)
	}

	users, err := fs.ReadFile(FS, "00001_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(users), "users_connection_code_key unique (connection_code)")

	donations, err := fs.ReadFile(FS, "00002_donations.sql")
	require.NoError(t, err)
	assert.Contains(t, string(donations), "on delete cascade")
}

func withSeams(t *testing.T, up func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error, version func(context.Context, *sql.DB) (int64, error)) {
	t.Helper()
	origUp, origVersion := gooseUpContext, gooseVersionContext
	gooseUpContext, gooseVersionContext = up, version
	t.Cleanup(func() { gooseUpContext, gooseVersionContext = origUp, origVersion })
}

func TestUp_Success(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var gotDir string
	withSeams(t,
		func(_ context.Context, got *sql.DB, dir string, _ ...goose.OptionsFunc) error {
			assert.Same(t, db, got)
			gotDir = dir
			return nil
		},
		func(context.Context, *sql.DB) (int64, error) { return 3, nil },
	)

	require.NoError(t, Up(context.Background(), db, zerolog.Nop()))
	assert.Equal(t, ".", gotDir)
}

func TestUp_Errors(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	withSeams(t,
		func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return errors.New("boom") },
		func(context.Context, *sql.DB) (int64, error) { return 0, nil },
	)
	assert.ErrorContains(t, Up(context.Background(), db, zerolog.Nop()), "migrations: up: boom")

	withSeams(t,
		func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return nil },
		func(context.Context, *sql.DB) (int64, error) { return 0, errors.New("no table") },
	)
	assert.ErrorContains(t, Up(context.Background(), db, zerolog.Nop()), "migrations: version: no table")
}
