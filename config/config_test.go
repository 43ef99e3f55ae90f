package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSONConfig(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "casmap.json")

	content := `{
  "hosts": ["node1.example.com", "node2.example.com"],
  "port": 9043,
  "keyspace": "store",
  "username": "app",
  "password": "secret",
  "consistency": "LOCAL_QUORUM",
  "pageSize": 500,
  "ssl": {
    "enabled": true,
    "caPath": "/certs/ca.pem",
    "hostVerification": true
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"node1.example.com", "node2.example.com"}, cfg.Hosts)
	assert.Equal(t, 9043, cfg.Port)
	assert.Equal(t, "store", cfg.Keyspace)
	assert.Equal(t, "app", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "LOCAL_QUORUM", cfg.Consistency)
	assert.Equal(t, 500, cfg.PageSize)
	require.NotNil(t, cfg.SSL)
	assert.True(t, cfg.SSL.Enabled)
	assert.Equal(t, "/certs/ca.pem", cfg.SSL.CAPath)
	assert.True(t, cfg.SSL.HostVerification)
}

func TestLoadMissingCustomPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestOverrideWithEnvVars(t *testing.T) {
	t.Setenv("CASSANDRA_HOSTS", "a.example.com, b.example.com")
	t.Setenv("CASSANDRA_PORT", "9044")
	t.Setenv("CASSANDRA_KEYSPACE", "env_ks")
	t.Setenv("CASSANDRA_USERNAME", "env_user")
	t.Setenv("CASSANDRA_PASSWORD", "env_pass")
	t.Setenv("CASSANDRA_CONSISTENCY", "QUORUM")
	t.Setenv("CASSANDRA_PAGE_SIZE", "250")

	cfg := Default()
	OverrideWithEnvVars(cfg)

	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.Hosts)
	assert.Equal(t, 9044, cfg.Port)
	assert.Equal(t, "env_ks", cfg.Keyspace)
	assert.Equal(t, "env_user", cfg.Username)
	assert.Equal(t, "env_pass", cfg.Password)
	assert.Equal(t, "QUORUM", cfg.Consistency)
	assert.Equal(t, 250, cfg.PageSize)
}

func TestOverrideSingleHostWins(t *testing.T) {
	t.Setenv("CASSANDRA_HOSTS", "a.example.com,b.example.com")
	t.Setenv("CASSANDRA_HOST", "only.example.com")

	cfg := Default()
	OverrideWithEnvVars(cfg)
	assert.Equal(t, []string{"only.example.com"}, cfg.Hosts)
}

func TestOverrideIgnoresBadNumbers(t *testing.T) {
	t.Setenv("CASSANDRA_PORT", "not-a-port")
	t.Setenv("CASSANDRA_PAGE_SIZE", "-5")

	cfg := Default()
	OverrideWithEnvVars(cfg)
	assert.Equal(t, 9042, cfg.Port)
	assert.Equal(t, 100, cfg.PageSize)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Hosts)
	assert.Equal(t, 9042, cfg.Port)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Nil(t, cfg.SSL)
}
