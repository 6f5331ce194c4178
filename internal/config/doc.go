// Package config defines the settings shared by home-hub and home-ctl and
// provides helpers to load, validate and save them in YAML format.
//
// Values from an optional .env file and HOME_HUB_* environment variables
// override the YAML file, so a device image can ship one settings file and
// keep secrets (MQTT password, Telegram token) in its environment.
package config
