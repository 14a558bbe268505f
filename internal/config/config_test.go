package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "devsecret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "127.0.0.1", cfg.DB.Host)
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.Equal(t, "devsecret", cfg.JWT.Secret)
	assert.Equal(t, 60*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, 30*time.Second, cfg.JWT.Leeway)
	assert.Equal(t, "taskflow-api", cfg.JWT.Issuer)
	assert.Equal(t, []string{"accounts.google.com", "https://accounts.google.com"}, cfg.Google.Issuers)
	assert.False(t, cfg.Google.Enabled())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "auth.events", cfg.AMQP.Queue)
	assert.False(t, cfg.AMQP.Enabled)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*testing.T, Config)
	}{
		{
			name: "jwt override",
			envVars: map[string]string{
				"JWT_TTL":    "15m",
				"JWT_LEEWAY": "5s",
				"JWT_ISSUER": "custom",
			},
			expected: func(t *testing.T, cfg Config) {
				assert.Equal(t, 15*time.Minute, cfg.JWT.TTL)
				assert.Equal(t, 5*time.Second, cfg.JWT.Leeway)
				assert.Equal(t, "custom", cfg.JWT.Issuer)
			},
		},
		{
			name: "google override",
			envVars: map[string]string{
				"GOOGLE_CLIENT_ID": "client.apps.googleusercontent.com",
				"GOOGLE_ISSUERS":   "https://securetoken.google.com/demo",
			},
			expected: func(t *testing.T, cfg Config) {
				assert.True(t, cfg.Google.Enabled())
				assert.Equal(t, []string{"https://securetoken.google.com/demo"}, cfg.Google.Issuers)
			},
		},
		{
			name: "database override",
			envVars: map[string]string{
				"DB_USER": "app",
				"DB_PASS": "pw",
				"DB_NAME": "tasks",
			},
			expected: func(t *testing.T, cfg Config) {
				assert.Equal(t, "app", cfg.DB.User)
				assert.Equal(t, "pw", cfg.DB.Pass)
				assert.Equal(t, "tasks", cfg.DB.Name)
			},
		},
		{
			name: "rabbitmq override",
			envVars: map[string]string{
				"RABBITMQ_ENABLED": "true",
				"RABBITMQ_QUEUE":   "audit",
			},
			expected: func(t *testing.T, cfg Config) {
				assert.True(t, cfg.AMQP.Enabled)
				assert.Equal(t, "audit", cfg.AMQP.Queue)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.NoError(t, err)

			tt.expected(t, cfg)
		})
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BCRYPT_COST", "2")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=fromfile\nAPP_PORT=9090\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("APP_PORT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.JWT.Secret)
	assert.Equal(t, "9090", cfg.Port)
}
