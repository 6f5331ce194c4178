package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestApplyEnv_Lookup checks every override and the parse failures.
func TestApplyEnv_Lookup(t *testing.T) {
	t.Parallel()

	values := map[string]string{
		EnvHTTPAddress:    ":8080",
		EnvSimulate:       "true",
		EnvTick:           "250ms",
		EnvMQTTBroker:     "tcp://broker:1883",
		EnvTelegramChatID: "-100200300",
	}

	cfg := Default()
	err := applyEnv(cfg, func(key string) (string, bool) {
		value, ok := values[key]

		return value, ok
	})
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.True(t, cfg.Simulate)
	require.Equal(t, 250*time.Millisecond, cfg.Tick)
	require.Equal(t, "tcp://broker:1883", cfg.Notify.MQTT.Broker)
	require.Equal(t, int64(-100200300), cfg.Notify.Telegram.ChatID)

	for _, key := range []string{EnvSimulate, EnvTick, EnvTelegramChatID} {
		err = applyEnv(Default(), func(k string) (string, bool) {
			if k == key {
				return "garbage", true
			}

			return "", false
		})
		require.Error(t, err, key)
	}
}

// TestApplyEnv_File reads overrides from a dotenv file.
func TestApplyEnv_File(t *testing.T) {
	t.Parallel()

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("HOME_HUB_WEBHOOK_URL=http://siren.local/hook\n"), 0o600))

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, envFile))
	require.Equal(t, "http://siren.local/hook", cfg.Notify.Webhook.URL)

	// Missing file is not an error.
	require.NoError(t, ApplyEnv(Default(), filepath.Join(t.TempDir(), "absent.env")))
}
