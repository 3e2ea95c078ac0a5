package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ADMIN_API_BASE_URL", "https://admin.example.com")
	t.Setenv("ADMIN_API_TOKEN", "test-token")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.CountersInterval)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MissingBaseURL(t *testing.T) {
	t.Setenv("ADMIN_API_BASE_URL", "")
	t.Setenv("ADMIN_API_TOKEN", "test-token")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_API_BASE_URL")
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("ADMIN_API_BASE_URL", "https://admin.example.com")
	t.Setenv("ADMIN_API_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_API_TOKEN")
}

func TestLoad_RejectsNonHTTPBaseURL(t *testing.T) {
	t.Setenv("ADMIN_API_BASE_URL", "ftp://admin.example.com")
	t.Setenv("ADMIN_API_TOKEN", "test-token")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http")
}

func TestLoad_RejectsTinyPollInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("POLL_INTERVAL", "100ms")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POLL_INTERVAL")
}

func TestLoad_RejectsCountersFasterThanPoll(t *testing.T) {
	setRequired(t)
	t.Setenv("POLL_INTERVAL", "10s")
	t.Setenv("COUNTERS_INTERVAL", "5s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COUNTERS_INTERVAL")
}

func TestLoad_RejectsPageSizeOutOfRange(t *testing.T) {
	setRequired(t)
	t.Setenv("PAGE_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAGE_SIZE")
}
