package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_providers.up.sql",
		"000001_create_providers.down.sql",
		"000003_add_slug_index.up.sql",
		"000002_create_services.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	version, err := LatestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestLatestVersion_Empty(t *testing.T) {
	_, err := LatestVersion(t.TempDir())
	assert.Error(t, err)
}

func TestLatestVersion_RepositoryMigrations(t *testing.T) {
	version, err := LatestVersion("../../db/pg")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, 2)
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", UserName: "fern", Password: "secret", Name: "fern", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=fern password=secret dbname=fern sslmode=disable", cfg.DSN())
}
