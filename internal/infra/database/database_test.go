package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/aquamind/internal/infra/database/models"
)

func TestMigrateSqlite(t *testing.T) {
	db, err := NewSqlite("file:migrate?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []any{&models.User{}, &models.Post{}, &models.PostLike{}, &models.HighScore{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	// idempotent
	require.NoError(t, Migrate(db))
}
