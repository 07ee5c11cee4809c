package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

func TestConnectSQLiteMigrates(t *testing.T) {
	db, err := Connect("sqlite", "", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Ping(db))
	assert.True(t, db.Migrator().HasTable(&models.ImportJob{}))
	assert.True(t, db.Migrator().HasTable(&models.ImportResult{}))
}

func TestConnectUnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "", "")
	assert.Error(t, err)
}
