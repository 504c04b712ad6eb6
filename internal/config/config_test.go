package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chatrelay/backend/internal/config"

	env "github.com/Netflix/go-env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvSet_Defaults(t *testing.T) {
	cfg, err := config.FromEnvSet(env.EnvSet{"MONGO_URI": "mongodb://localhost:27017"})
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, ":5000", cfg.ListenAddr())
	assert.Equal(t, config.ProtocolPersisted, cfg.Protocol)
	assert.Equal(t, config.BackendMongo, cfg.StorageBackend)
	assert.Equal(t, "chat", cfg.MongoDatabase)
	assert.Equal(t, "messages", cfg.MongoCollection)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Origins())
	assert.False(t, cfg.Legacy())
}

func TestFromEnvSet_MongoURIRequiredForPersistedProtocol(t *testing.T) {
	_, err := config.FromEnvSet(env.EnvSet{})
	require.Error(t, err)

	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "MongoURI", cfgErr.Field)
}

func TestFromEnvSet_LegacyNeedsNoStorage(t *testing.T) {
	cfg, err := config.FromEnvSet(env.EnvSet{"CHAT_PROTOCOL": "legacy", "PORT": "8080"})
	require.NoError(t, err)

	assert.True(t, cfg.Legacy())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.Origins())
}

func TestFromEnvSet_PostgresRequiresDatabaseURL(t *testing.T) {
	_, err := config.FromEnvSet(env.EnvSet{"STORAGE_BACKEND": "postgres"})
	require.Error(t, err)

	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "DatabaseURL", cfgErr.Field)
}

func TestFromEnvSet_RejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name  string
		set   env.EnvSet
		field string
	}{
		{name: "protocol", set: env.EnvSet{"CHAT_PROTOCOL": "v3", "STORAGE_BACKEND": "memory"}, field: "Protocol"},
		{name: "backend", set: env.EnvSet{"STORAGE_BACKEND": "cassandra"}, field: "StorageBackend"},
		{name: "port", set: env.EnvSet{"PORT": "70000", "STORAGE_BACKEND": "memory"}, field: "Port"},
		{name: "history limit", set: env.EnvSet{"HISTORY_LIMIT": "0", "STORAGE_BACKEND": "memory"}, field: "HistoryLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromEnvSet(tt.set)
			require.Error(t, err)

			var cfgErr *config.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestOrigins_TrimsAndSkipsEmpty(t *testing.T) {
	cfg, err := config.FromEnvSet(env.EnvSet{
		"STORAGE_BACKEND": "memory",
		"ALLOWED_ORIGINS": " http://a.example , ,https://b.example",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.example", "https://b.example"}, cfg.Origins())
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STORAGE_BACKEND=memory\nHISTORY_LIMIT=25\n"), 0o600))

	t.Setenv("STORAGE_BACKEND", "")
	os.Unsetenv("STORAGE_BACKEND")
	t.Setenv("HISTORY_LIMIT", "")
	os.Unsetenv("HISTORY_LIMIT")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.BackendMemory, cfg.StorageBackend)
	assert.Equal(t, 25, cfg.HistoryLimit)
}

func TestLoad_MissingDotEnvIsNotAnError(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
