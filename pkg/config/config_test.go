package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaults verifies the broker starts from the documented defaults
func TestDefaults(t *testing.T) {
	cfg, err := Load(nil, filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, "Zaku-task-queues", cfg.Prefix)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, int64(100*1024*1024), cfg.RequestMaxSize)
	assert.True(t, cfg.FreePort)
	assert.Equal(t, PayloadStoreMongo, cfg.PayloadStore)
	assert.Equal(t, 60*time.Second, cfg.TopicTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.False(t, cfg.Sentinel.Enabled())
	assert.Contains(t, cfg.CORS, "*")
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.ConnString())
}

// TestEnvFileOverlay verifies .env values beat defaults
func TestEnvFileOverlay(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"REDIS_HOST=redis.internal\nREDIS_PORT=6380\nZAKU_PREFIX=staging\n",
	), 0o644))

	cfg, err := Load(nil, envFile)
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr())
	assert.Equal(t, "staging", cfg.Prefix)
	// Untouched settings keep their defaults.
	assert.Equal(t, 9000, cfg.Port)
}

// TestEnvBeatsEnvFile verifies process env beats the .env file
func TestEnvBeatsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("REDIS_HOST=from-file\n"), 0o644))

	t.Setenv("REDIS_HOST", "from-env")

	cfg, err := Load(nil, envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Redis.Host)
}

// TestFlagsBeatEnv verifies explicit flags beat everything
func TestFlagsBeatEnv(t *testing.T) {
	t.Setenv("ZAKU_PORT", "9100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--port", "9200"}))

	cfg, err := Load(flags, filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Port)
}

// TestUnsetFlagFallsThroughToEnv verifies a registered-but-unset flag
// does not shadow the environment.
func TestUnsetFlagFallsThroughToEnv(t *testing.T) {
	t.Setenv("ZAKU_PORT", "9100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(flags, filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
}

// TestSentinelHosts verifies the comma list expands to sentinel mode
func TestSentinelHosts(t *testing.T) {
	t.Setenv("SENTINEL_HOSTS", "s1:26379, s2:26379,s3:26379")
	t.Setenv("SENTINEL_CLUSTER_NAME", "zaku-master")

	cfg, err := Load(nil, filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.True(t, cfg.Sentinel.Enabled())
	assert.Equal(t, []string{"s1:26379", "s2:26379", "s3:26379"}, cfg.Sentinel.Hosts)
	assert.Equal(t, "zaku-master", cfg.Sentinel.MasterName)
}

// TestMongoConnString covers URI precedence and credential assembly
func TestMongoConnString(t *testing.T) {
	tests := []struct {
		name  string
		mongo Mongo
		want  string
	}{
		{
			name:  "explicit uri wins",
			mongo: Mongo{URI: "mongodb://elsewhere:9/x", Host: "h", Port: 1},
			want:  "mongodb://elsewhere:9/x",
		},
		{
			name:  "host and port",
			mongo: Mongo{Host: "mongo.internal", Port: 27018},
			want:  "mongodb://mongo.internal:27018",
		},
		{
			name: "credentials and auth source",
			mongo: Mongo{
				Host: "db", Port: 27017,
				Username: "worker", Password: "hunter2", AuthSource: "admin",
			},
			want: "mongodb://worker:hunter2@db:27017/?authSource=admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mongo.ConnString())
		})
	}
}

// TestValidate rejects configurations the broker cannot run with
func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(nil, filepath.Join(t.TempDir(), "absent.env"))
		require.NoError(t, err)
		return cfg
	}

	t.Run("prefix with colon", func(t *testing.T) {
		cfg := base()
		cfg.Prefix = "a:b"
		assert.Error(t, cfg.Validate())
	})

	t.Run("cert without key", func(t *testing.T) {
		cfg := base()
		cfg.Cert = "/etc/zaku/tls.crt"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown payload store", func(t *testing.T) {
		cfg := base()
		cfg.PayloadStore = "s3"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Port = 0
		assert.Error(t, cfg.Validate())
	})
}
