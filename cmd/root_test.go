// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/fanboy/internal/config"
	"github.com/Thermoquad/fanboy/pkg/fanboy"
	"github.com/spf13/pflag"
)

// testFlags declares the root and serve flags on a fresh set, bound to the
// same variables the commands use, and parses args.
func testFlags(t *testing.T, file string, args ...string) *pflag.FlagSet {
	t.Helper()

	saved := configPath
	t.Cleanup(func() { configPath = saved })
	configPath = file

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringVarP(&deviceName, "device", "d", fanboy.DefaultDevice, "")
	flags.StringVarP(&wsURL, "url", "u", "", "")
	flags.StringVar(&wsUsername, "username", "", "")
	flags.StringVar(&replayPath, "replay", "", "")
	flags.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "")
	flags.StringVarP(&bindAddr, "bind", "b", config.DefaultBind, "")
	flags.IntVarP(&listenPort, "port", "p", config.DefaultPort, "")
	flags.IntP("interval", "i", int(config.DefaultInterval/time.Second), "")
	flags.StringVar(&mqttURL, "mqtt-url", "", "")
	flags.StringVar(&mqttTopic, "mqtt-topic", config.DefaultMQTTTopic, "")

	if err := flags.Parse(args); err != nil {
		t.Fatalf("flag parse failed: %v", err)
	}
	return flags
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fanboy.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// ============================================================================
// Configuration precedence
// ============================================================================

func TestResolveConfigDefaults(t *testing.T) {
	c, err := resolveConfig(testFlags(t, ""))
	if err != nil {
		t.Fatalf("resolveConfig failed: %v", err)
	}
	if *c != *config.Default() {
		t.Errorf("config = %+v, want defaults %+v", *c, *config.Default())
	}
}

func TestResolveConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
device: /dev/ttyUSB1
bind: 127.0.0.1
port: 9300
interval: 30s
log_level: debug
`)

	c, err := resolveConfig(testFlags(t, path))
	if err != nil {
		t.Fatalf("resolveConfig failed: %v", err)
	}

	// Unchanged flags must not clobber file values with their defaults
	if c.Device != "/dev/ttyUSB1" {
		t.Errorf("Device = %q, want file value", c.Device)
	}
	if c.Bind != "127.0.0.1" || c.Port != 9300 {
		t.Errorf("listen = %s, want 127.0.0.1:9300", c.ListenAddr())
	}
	if c.Interval != 30*time.Second {
		t.Errorf("Interval = %s, want 30s", c.Interval)
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", c.LogLevel)
	}
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
device: /dev/ttyUSB1
port: 9300
interval: 30s
mqtt:
  topic: lab/fanboy
`)

	c, err := resolveConfig(testFlags(t, path, "--port", "9400", "-i", "5", "--mqtt-url", "mqtt://broker.lan/"))
	if err != nil {
		t.Fatalf("resolveConfig failed: %v", err)
	}

	if c.Port != 9400 {
		t.Errorf("Port = %d, want flag value 9400", c.Port)
	}
	if c.Interval != 5*time.Second {
		t.Errorf("Interval = %s, want 5s from --interval seconds", c.Interval)
	}
	if c.MQTT.URL != "mqtt://broker.lan/" {
		t.Errorf("MQTT.URL = %q, want flag value", c.MQTT.URL)
	}
	if c.Device != "/dev/ttyUSB1" {
		t.Errorf("Device = %q, want file value", c.Device)
	}
	if c.MQTT.Topic != "lab/fanboy" {
		t.Errorf("MQTT.Topic = %q, want file value", c.MQTT.Topic)
	}
}

func TestResolveConfigFlagEqualToDefaultStillWins(t *testing.T) {
	path := writeConfig(t, "device: /dev/ttyUSB1\n")

	c, err := resolveConfig(testFlags(t, path, "--device", fanboy.DefaultDevice))
	if err != nil {
		t.Fatalf("resolveConfig failed: %v", err)
	}
	if c.Device != fanboy.DefaultDevice {
		t.Errorf("Device = %q, want explicitly set %q", c.Device, fanboy.DefaultDevice)
	}
}

func TestResolveConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		args []string
		want string
	}{
		{"zero interval flag", "", []string{"-i", "0"}, "invalid configuration"},
		{"bad port flag", "", []string{"-p", "70000"}, "invalid configuration"},
		{"missing file", filepath.Join(os.TempDir(), "fanboy-missing", "none.yaml"), nil, "none.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveConfig(testFlags(t, tt.file, tt.args...))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "poll", "monitor", "record"} {
		c, _, err := rootCmd.Find([]string{name})
		if err != nil {
			t.Errorf("command %q not registered: %v", name, err)
			continue
		}
		if c.Name() != name || c.RunE == nil {
			t.Errorf("command %q resolved to %q", name, c.Name())
		}
	}

	if pollCmd.RunE == nil {
		t.Error("poll command has no RunE")
	}
}
