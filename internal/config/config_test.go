package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrai/cli/internal/api"
	"github.com/hydrai/cli/internal/auth"
)

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLogLevel("trace")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, api.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, api.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, auth.StoreHome, cfg.Store)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, OutputTable, cfg.Output)
	assert.Empty(t, cfg.UserID)
	assert.False(t, cfg.NoColor)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("HYDRAI_BASE_URL", "https://hydrai.example.com/api/")
	t.Setenv("HYDRAI_TIMEOUT", "30s")
	t.Setenv("HYDRAI_USER_ID", "user-42")

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://hydrai.example.com/api", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "user-42", cfg.UserID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		value       interface{}
		expectedErr string
	}{
		{name: "Empty URL", key: KeyBaseURL, value: "", expectedErr: "base URL cannot be empty"},
		{name: "Relative URL", key: KeyBaseURL, value: "localhost:8000", expectedErr: "invalid base URL"},
		{name: "Bad scheme", key: KeyBaseURL, value: "ftp://example.com", expectedErr: "scheme must be http or https"},
		{name: "Zero timeout", key: KeyTimeout, value: "0s", expectedErr: "timeout must be > 0"},
		{name: "Bad store", key: KeyStore, value: "cloud", expectedErr: "invalid store"},
		{name: "Bad output", key: KeyOutput, value: "csv", expectedErr: "unsupported output format"},
		{name: "Bad log level", key: KeyLogLevel, value: "loud", expectedErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.ErrorContains(t, err, tt.expectedErr)
		})
	}
}
