package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMetaEnv(t *testing.T) {
	t.Setenv("CHANNEL_PROVIDER", "meta")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "12345")
	t.Setenv("API_KEY", "verify")
}

func TestLoad_Defaults(t *testing.T) {
	setMetaEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, StoreFile, cfg.StoreBackend)
	assert.Equal(t, "db.json", cfg.DBFile)
	assert.Equal(t, "respostas.csv", cfg.CSVFile)
	assert.Equal(t, 2*time.Second, cfg.DebounceDelay)
	assert.Equal(t, 10*time.Second, cfg.AnalysisDelay)
	assert.Equal(t, "verify", cfg.Meta.VerifyToken)
}

func TestLoad_Durations(t *testing.T) {
	setMetaEnv(t)
	t.Setenv("DEBOUNCE_DELAY", "500ms")
	t.Setenv("ANALYSIS_DELAY", "1500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceDelay)
	assert.Equal(t, 1500*time.Millisecond, cfg.AnalysisDelay)
}

func TestLoad_InvalidDuration(t *testing.T) {
	setMetaEnv(t)
	t.Setenv("DEBOUNCE_DELAY", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "DEBOUNCE_DELAY")
}

func TestLoad_MissingProviderCredentials(t *testing.T) {
	t.Setenv("CHANNEL_PROVIDER", "infobip")
	t.Setenv("INFOBIP_URL", "https://api.infobip.example")

	_, err := Load()
	assert.ErrorContains(t, err, "INFOBIP_CLIENT_ID is not set")
}

func TestLoad_UnknownBackend(t *testing.T) {
	setMetaEnv(t)
	t.Setenv("STORE_BACKEND", "redis")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown STORE_BACKEND")
}

func TestLoad_TypingDelaysOrdered(t *testing.T) {
	setMetaEnv(t)
	t.Setenv("TYPING_MIN_DELAY", "5s")
	t.Setenv("TYPING_MAX_DELAY", "1s")

	_, err := Load()
	assert.ErrorContains(t, err, "TYPING_MAX_DELAY")
}

func TestGetBool(t *testing.T) {
	t.Setenv("FLAG_ON", "true")
	t.Setenv("FLAG_BAD", "maybe")

	assert.True(t, GetBool("FLAG_ON", false))
	assert.True(t, GetBool("FLAG_BAD", true))
	assert.False(t, GetBool("FLAG_UNSET_FOR_TEST", false))
}

func TestRead_SkipsProviderCheck(t *testing.T) {
	t.Setenv("CHANNEL_PROVIDER", "infobip")
	t.Setenv("INFOBIP_CLIENT_ID", "")
	t.Setenv("DB_FILE", "contacts.json")

	cfg, err := Read()
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateStore())
	assert.Equal(t, "contacts.json", cfg.DBFile)
	assert.Error(t, cfg.Validate())
}
