// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"fmt"
	"net"
	"net/url"

	"github.com/rs/zerolog"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Device == "" && cfg.URL == "" && cfg.Replay == "" {
		return fmt.Errorf("one of device, url or replay is required")
	}

	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return fmt.Errorf("url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("url: unsupported scheme %q (use ws:// or wss://)", u.Scheme)
		}
	}

	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be > 0, got %s", cfg.Interval)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}
	if net.ParseIP(cfg.Bind) == nil {
		return fmt.Errorf("bind: invalid listen address %q", cfg.Bind)
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if cfg.MQTT.URL != "" {
		u, err := url.Parse(cfg.MQTT.URL)
		if err != nil {
			return fmt.Errorf("mqtt.url: %w", err)
		}
		switch u.Scheme {
		case "", "mqtt", "tcp", "ssl", "tls", "ws", "wss":
		default:
			return fmt.Errorf("mqtt.url: unsupported scheme %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("mqtt.url: missing broker host")
		}
		if cfg.MQTT.Topic == "" {
			return fmt.Errorf("mqtt.topic is required when mqtt.url is set")
		}
	}

	return nil
}
