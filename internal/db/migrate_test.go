package db

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverMigrations_Ordered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql":   {Data: []byte("CREATE INDEX x ON t (c);")},
		"001_schema.sql":      {Data: []byte("CREATE TABLE t (c INT);")},
		"README.md":           {Data: []byte("ignored")},
		"migrations.go":       {Data: []byte("package migrations")},
		"archive/009_old.sql": {Data: []byte("ignored")},
	}

	got, err := DiscoverMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "001", got[0].Version)
	assert.Equal(t, "001_schema.sql", got[0].Filename)
	assert.Equal(t, "CREATE TABLE t (c INT);", got[0].SQL)
	assert.Len(t, got[0].Checksum, 64)
	assert.Equal(t, "002", got[1].Version)
}

func TestDiscoverMigrations_ChecksumTracksContent(t *testing.T) {
	a, err := DiscoverMigrations(fstest.MapFS{"001_a.sql": {Data: []byte("SELECT 1;")}})
	require.NoError(t, err)
	b, err := DiscoverMigrations(fstest.MapFS{"001_a.sql": {Data: []byte("SELECT 2;")}})
	require.NoError(t, err)
	assert.NotEqual(t, a[0].Checksum, b[0].Checksum)
}

func TestDiscoverMigrations_Invalid(t *testing.T) {
	_, err := DiscoverMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 2;")},
	})
	assert.ErrorContains(t, err, "duplicate migration version 001")

	_, err = DiscoverMigrations(fstest.MapFS{"schema.sql": {Data: []byte("SELECT 1;")}})
	assert.ErrorContains(t, err, "invalid migration filename")
}

func TestNewPool_RequiresURL(t *testing.T) {
	_, err := NewPool(context.Background(), "", 0)
	assert.Error(t, err)
}
