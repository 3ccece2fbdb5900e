package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  address: 127.0.0.1
  port: 9090
  public_url: https://np.example.org
  db_path: /var/lib/nanopubd
storage:
  page_size: 500
  max_nanopub_triples: 1200
  max_nanopub_bytes: 1MB
  max_nanopubs: 100000
peers:
  initial:
    - https://peer.example.org
  replication:
    enabled: true
    cron: "*/10 * * * *"
security:
  rate_limit:
    rps: 50
    burst: 100
  api_keys:
    admin: [secret]
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", cfg.Addr())
	require.Equal(t, "https://np.example.org", cfg.Server.PublicURL)
	require.Equal(t, int64(500), cfg.Storage.EffectivePageSize())
	require.Equal(t, int64(1200), cfg.Storage.MaxNanopubTriples)
	require.Equal(t, int64(1000000), cfg.Storage.MaxNanopubBytes.Int64())
	require.Equal(t, []string{"https://peer.example.org"}, cfg.Peers.Initial)
	require.True(t, cfg.Peers.Replication.Enabled)
	require.Equal(t, "*/10 * * * *", cfg.Peers.Replication.Cron)
	require.Equal(t, 50.0, cfg.Security.RateLimit.RPS)
	require.Equal(t, []string{"secret"}, cfg.Security.APIKeys.Admin)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestDefaults(t *testing.T) {
	var cfg Config
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
	require.Equal(t, int64(DefaultPageSize), cfg.Storage.EffectivePageSize())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("NANOPUB_ADDR", "10.0.0.1:7070")
	t.Setenv("NANOPUB_DB_PATH", "/tmp/np-db")
	t.Setenv("NANOPUB_PUBLIC_URL", "https://env.example.org")
	t.Setenv("NANOPUB_PAGE_SIZE", "250")
	t.Setenv("NANOPUB_MAX_NANOPUBS", "42")
	t.Setenv("NANOPUB_PEERS", "https://a.example.org, https://b.example.org")
	t.Setenv("NANOPUB_REPLICATION_CRON", "*/1 * * * *")
	t.Setenv("NANOPUB_API_ADMIN_KEYS", "k1,k2")
	t.Setenv("NANOPUB_LOG_LEVEL", "WARN")

	var cfg Config
	require.True(t, ApplyEnvOverrides(&cfg))
	require.Equal(t, "10.0.0.1:7070", cfg.Addr())
	require.Equal(t, "/tmp/np-db", cfg.Server.DBPath)
	require.Equal(t, "https://env.example.org", cfg.Server.PublicURL)
	require.Equal(t, int64(250), cfg.Storage.PageSize)
	require.Equal(t, int64(42), cfg.Storage.MaxNanopubs)
	require.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, cfg.Peers.Initial)
	require.True(t, cfg.Peers.Replication.Enabled)
	require.Equal(t, "*/1 * * * *", cfg.Peers.Replication.Cron)
	require.Equal(t, []string{"k1", "k2"}, cfg.Security.APIKeys.Admin)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadEffectivePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))
	t.Setenv("NANOPUB_PORT", "9100")

	// env wins over the file, flags win over env
	eff, err := LoadEffective(Flags{
		Addr:   "1.2.3.4:9999",
		DB:     "./db",
		Config: path,
		Set:    map[string]bool{"addr": true, "config": true},
	})
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4:9999", eff.Addr)
	require.Equal(t, 9100, eff.Config.Server.Port)
	require.Contains(t, eff.Source, "config")
	require.Contains(t, eff.Source, "env")
	require.Contains(t, eff.Source, "flags")
}

func TestLoadEffectiveMissingFile(t *testing.T) {
	eff, err := LoadEffective(Flags{
		Addr:   ":8080",
		DB:     "./db",
		Config: filepath.Join(t.TempDir(), "nope.yaml"),
		Set:    map[string]bool{},
	})
	require.NoError(t, err)
	require.NotNil(t, eff.Config)
	require.Equal(t, "./db", eff.DBPath)
}
