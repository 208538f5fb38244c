package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_SortedUpOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"002_reviews.up.sql": {Data: []byte("CREATE TABLE reviews ();")},
		"001_items.up.sql":   {Data: []byte("CREATE TABLE items ();")},
		"001_items.down.sql": {Data: []byte("DROP TABLE items;")},
		"README.md":          {Data: []byte("notes")},
		"archive/000.up.sql": {Data: []byte("SELECT 1;")},
	}

	names, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_items.up.sql", "002_reviews.up.sql"}, names)
}

func TestMigrationFiles_Empty(t *testing.T) {
	names, err := migrationFiles(fstest.MapFS{})
	require.NoError(t, err)
	assert.Empty(t, names)
}
