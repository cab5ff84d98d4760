package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestSchemaMigrationContainsReportingTables(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_commerce_tables.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CONSTRAINT users_email_key UNIQUE (email)",
		"user_id    BIGINT REFERENCES users(id) ON DELETE SET NULL",
		"price NUMERIC(12,2) NOT NULL",
		"amount   NUMERIC(12,2) NOT NULL",
		"DROP TABLE IF EXISTS payments",
	} {
		require.Contains(t, content, sub)
	}
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	bad := fstest.MapFS{
		"m/20250101000000_ok.sql":   {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/20250101000000_dupe.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	err := ValidateFS(bad, "m")
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate migration version")

	missingDown := fstest.MapFS{
		"m/20250101000000_ok.sql": {Data: []byte("-- +goose Up\n")},
	}
	require.ErrorContains(t, ValidateFS(missingDown, "m"), "missing \"-- +goose Down\"")

	badName := fstest.MapFS{
		"m/001_init.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	require.ErrorContains(t, ValidateFS(badName, "m"), "invalid migration filename")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Payments Index!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_payments_index.sql"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestCreateSQLMigrationRejectsVersionReuse(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	path, err := createSQLMigration(dir, "first", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20250301120000_first.sql"), path)

	_, err = createSQLMigration(dir, "second", now)
	require.ErrorContains(t, err, "already used")
}

func TestRunRequiresDB(t *testing.T) {
	require.Error(t, Run(context.Background(), nil, EmbeddedDir, "up"))
}
