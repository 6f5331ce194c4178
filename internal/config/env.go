package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables recognized by ApplyEnv.
const (
	EnvHTTPAddress    = "HOME_HUB_HTTP_ADDR"
	EnvGRPCAddress    = "HOME_HUB_GRPC_ADDR"
	EnvServerAddress  = "HOME_HUB_SERVER_ADDR"
	EnvLogLevel       = "HOME_HUB_LOG_LEVEL"
	EnvSimulate       = "HOME_HUB_SIMULATE"
	EnvTick           = "HOME_HUB_TICK"
	EnvMQTTBroker     = "HOME_HUB_MQTT_BROKER"
	EnvMQTTUsername   = "HOME_HUB_MQTT_USERNAME"
	EnvMQTTPassword   = "HOME_HUB_MQTT_PASSWORD"
	EnvTelegramToken  = "HOME_HUB_TELEGRAM_TOKEN"
	EnvTelegramChatID = "HOME_HUB_TELEGRAM_CHAT_ID"
	EnvWebhookURL     = "HOME_HUB_WEBHOOK_URL"
)

// lookupFunc resolves an environment variable.
type lookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with values from envFile (when it exists) and the
// process environment. The process environment wins over the file.
func ApplyEnv(cfg *Config, envFile string) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	fileValues := map[string]string{}

	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("read env file: %w", err)
		}
	}

	return applyEnv(cfg, func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}

		value, ok := fileValues[key]

		return value, ok
	})
}

func applyEnv(cfg *Config, lookup lookupFunc) error {
	stringFields := map[string]*string{
		EnvHTTPAddress:   &cfg.HTTPAddress,
		EnvGRPCAddress:   &cfg.GRPCAddress,
		EnvServerAddress: &cfg.ServerAddress,
		EnvLogLevel:      &cfg.LogLevel,
		EnvMQTTBroker:    &cfg.Notify.MQTT.Broker,
		EnvMQTTUsername:  &cfg.Notify.MQTT.Username,
		EnvMQTTPassword:  &cfg.Notify.MQTT.Password,
		EnvTelegramToken: &cfg.Notify.Telegram.Token,
		EnvWebhookURL:    &cfg.Notify.Webhook.URL,
	}

	for key, field := range stringFields {
		if value, ok := lookup(key); ok {
			*field = value
		}
	}

	if value, ok := lookup(EnvSimulate); ok {
		simulate, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvSimulate, err)
		}

		cfg.Simulate = simulate
	}

	if value, ok := lookup(EnvTick); ok {
		tick, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTick, err)
		}

		cfg.Tick = tick
	}

	if value, ok := lookup(EnvTelegramChatID); ok {
		chatID, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTelegramChatID, err)
		}

		cfg.Notify.Telegram.ChatID = chatID
	}

	return nil
}
