package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlsguard/stats-service/internal/config"
)

func TestMigrationSource(t *testing.T) {
	dir := t.TempDir()

	url, err := migrationSource(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, filepath.ToSlash(dir)))

	_, err = migrationSource(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestMigrationSource_RepositoryMigrations(t *testing.T) {
	up, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000001_create_class_statistics.up.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS class_statistics")
	// Percentages are not capped at 100, so the class average needs an unbounded column.
	assert.Contains(t, string(up), "average_score DOUBLE PRECISION NOT NULL")
	assert.NotContains(t, string(up), "NUMERIC(5, 2)")

	down, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000001_create_class_statistics.down.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(down), "DROP TABLE IF EXISTS class_statistics")
}

func TestNewMigrator_RejectsMemoryDriver(t *testing.T) {
	_, err := NewMigrator(config.DatabaseConfig{Driver: config.DriverMemory})
	assert.Error(t, err)
}
