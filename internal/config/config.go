// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the exporter configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/Thermoquad/fanboy/pkg/fanboy"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultBind      = "0.0.0.0"
	DefaultPort      = 9184
	DefaultInterval  = 10 * time.Second
	DefaultLogLevel  = "info"
	DefaultMQTTTopic = "fanboy/reading"
)

type Config struct {
	Device   string        `yaml:"device"`
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Replay   string        `yaml:"replay"`
	Bind     string        `yaml:"bind"`
	Port     int           `yaml:"port"`
	Interval time.Duration `yaml:"interval"`
	LogLevel string        `yaml:"log_level"`
	MQTT     MQTTConfig    `yaml:"mqtt"`
}

// ---- MQTT ----

type MQTTConfig struct {
	URL   string `yaml:"url"` // mqtt://[user:pass@]host:port/prefix
	Topic string `yaml:"topic"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Device:   fanboy.DefaultDevice,
		Bind:     DefaultBind,
		Port:     DefaultPort,
		Interval: DefaultInterval,
		LogLevel: DefaultLogLevel,
		MQTT: MQTTConfig{
			Topic: DefaultMQTTTopic,
		},
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// comments only
			return cfg, nil
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the host:port address to listen on. IPv6 binds are
// bracketed.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}
