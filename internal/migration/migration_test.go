package migration

import (
	"testing"
	"testing/fstest"

	"github.com/dangerclosesec/orgaccess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0010_later.sql":  {Data: []byte("SELECT 10;")},
		"migrations/0002_second.sql": {Data: []byte("SELECT 2;")},
		"migrations/0001_first.sql":  {Data: []byte("SELECT 1;")},
		"migrations/README.md":       {Data: []byte("ignored")},
	}

	migrations, err := NewMigrator(nil, fsys, "migrations").Load()
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, "SELECT 1;", migrations[0].SQL)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, 10, migrations[2].Version)
}

func TestLoad_RejectsBadNames(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"no separator":      {"m/0001.sql": {}},
		"non numeric":       {"m/abc_init.sql": {}},
		"zero version":      {"m/0000_init.sql": {}},
		"duplicate version": {"m/0001_a.sql": {}, "m/1_b.sql": {}},
	}

	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewMigrator(nil, fsys, "m").Load()
			assert.Error(t, err)
		})
	}
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	assert.Len(t, Pending(all, 0), 3)
	assert.Equal(t, []Migration{{Version: 3}}, Pending(all, 2))
	assert.Empty(t, Pending(all, 3))
}

func TestLoad_EmbeddedMigrations(t *testing.T) {
	migrations, err := NewMigrator(nil, orgaccess.MigrationsFS, "migrations").Load()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS invitations")
}
