// Package config loads the bridge's ambient (non-protocol) settings: log
// level, message-buffer sizing, and the optional recorder/telemetry
// sinks. The protocol's own transport configuration (PEER_SOCKET,
// PEER_READ_PIPE, PEER_WRITE_PIPE) is deliberately not part of this
// package — it stays env-var-driven and is read directly by the
// transport package.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultMaxMessageBytes = 256

// Config holds the bridge's ambient settings, loaded from a YAML file.
type Config struct {
	LogLevel               string `yaml:"log_level"`
	MaxMessageBytes        int    `yaml:"max_message_bytes"`
	RecorderPath           string `yaml:"recorder_path"`
	RecorderLimit          int    `yaml:"recorder_limit"`
	TelemetryMQTTBroker    string `yaml:"telemetry_mqtt_broker"`
	TelemetryWebSocketAddr string `yaml:"telemetry_websocket_addr"`
	Trace                  bool   `yaml:"trace"`
}

func defaults() Config {
	return Config{
		LogLevel:        "info",
		MaxMessageBytes: defaultMaxMessageBytes,
	}
}

// Load reads and parses path as YAML. A missing file or an empty file both
// yield the default configuration — callers shouldn't have to ship a
// config file just to run with defaults.
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.MaxMessageBytes < defaultMaxMessageBytes {
		cfg.MaxMessageBytes = defaultMaxMessageBytes
	}
	return cfg, nil
}

// Print writes a one-line human summary of the active configuration.
func (c Config) Print() {
	fmt.Printf(
		"config: log_level=%s max_message_bytes=%d recorder_path=%q recorder_limit=%d telemetry_mqtt=%q telemetry_ws=%q trace=%t\n",
		c.LogLevel, c.MaxMessageBytes, c.RecorderPath, c.RecorderLimit,
		c.TelemetryMQTTBroker, c.TelemetryWebSocketAddr, c.Trace,
	)
}
