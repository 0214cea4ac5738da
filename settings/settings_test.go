package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMapLookups(t *testing.T) {
	store := FromMap(map[string]map[string]any{
		"Orders.Primary": {
			"ConnectionString": "file:orders.db",
		},
		DatabaseCategory: {
			KeyTimeout:      5000,
			KeyPollInterval: "250ms",
		},
	})

	assert.True(t, store.HasCategory("Orders.Primary"))
	assert.True(t, store.HasCategory("orders.primary"))
	assert.False(t, store.HasCategory("Billing"))

	conn, ok := store.LookupString("Orders.Primary", "connectionstring")
	require.True(t, ok)
	assert.Equal(t, "file:orders.db", conn)

	timeout, ok := store.LookupDuration(DatabaseCategory, KeyTimeout)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, timeout)

	interval, ok := store.LookupDuration(DatabaseCategory, KeyPollInterval)
	require.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, interval)

	ms, ok := store.LookupInt(DatabaseCategory, KeyTimeout)
	require.True(t, ok)
	assert.Equal(t, 5000, ms)

	_, ok = store.LookupString("Orders.Primary", "Missing")
	assert.False(t, ok)
}

func TestInvalidValuesAreAbsent(t *testing.T) {
	store := FromMap(map[string]map[string]any{
		DatabaseCategory: {KeyTimeout: "soon"},
	})

	_, ok := store.LookupInt(DatabaseCategory, KeyTimeout)
	assert.False(t, ok)

	_, ok = store.LookupDuration(DatabaseCategory, KeyTimeout)
	assert.False(t, ok)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DBPROBE_DATABASE_TIMEOUT", "750")
	store := FromMap(nil)

	timeout, ok := store.LookupDuration(DatabaseCategory, KeyTimeout)
	require.True(t, ok)
	assert.Equal(t, 750*time.Millisecond, timeout)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbprobe.yaml")
	content := `
orders:
  connectionstring: "postgres://localhost/orders"
  provider: postgresql
database:
  timeout: 1200
  pollinterval: 100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store, err := Load(LoadOptions{ConfigFile: path, SkipDotEnv: true})
	require.NoError(t, err)
	assert.Equal(t, path, store.ConfigFileUsed())

	provider, ok := store.LookupString("Orders", KeyProvider)
	require.True(t, ok)
	assert.Equal(t, "postgresql", provider)

	interval, ok := store.LookupDuration(DatabaseCategory, KeyPollInterval)
	require.True(t, ok)
	assert.Equal(t, 100*time.Millisecond, interval)

	assert.Contains(t, store.AllSettings(), "orders")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml"), SkipDotEnv: true})
	assert.Error(t, err)
}
