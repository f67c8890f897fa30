package fitness

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/formday/formday/internal/database"
)

// setupTestKV creates a migrated temporary database for testing
func setupTestKV(t *testing.T) (*database.KVStore, func()) {
	t.Helper()

	db, err := database.New(database.NewDefaultOptions(filepath.Join(t.TempDir(), "formday-test.db")))
	require.NoError(t, err)

	require.NoError(t, db.MigrateDatabase())

	kv, err := database.NewKVStore(db)
	require.NoError(t, err)

	return kv, func() {
		require.NoError(t, db.Close())
	}
}

// newTestEngine creates a hydrated engine with deterministic identifiers
func newTestEngine(t *testing.T) (*Engine, func()) {
	t.Helper()

	kv, cleanup := setupTestKV(t)
	engine := NewEngine(kv)

	seq := 0
	engine.newID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}

	require.NoError(t, engine.Hydrate())
	return engine, cleanup
}
