// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/fanboy/internal/config"
	"github.com/Thermoquad/fanboy/pkg/fanboy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath string

	// Connection flags
	deviceName    string
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
	replayPath    string

	logLevel string

	// Resolved configuration, set before any subcommand runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fanboy",
	Short: "FanBoy serial telemetry exporter",
	Long: `fanboy - Poll a FanBoy fan/temperature controller and export its readings.

The controller is queried with a two byte status request and answers with
duty and RPM for four fans and two temperature readings.

Connection modes:
  Serial:    --device /dev/ttyACM0
  WebSocket: --url ws://host/path [--username user]
  Replay:    --replay capture.cbor (recorded with 'fanboy record')

For WebSocket authentication, the password is read from the FANBOY_PASSWORD
environment variable, or prompted interactively if not set.

Settings may also come from a YAML file (--config); flags given on the
command line take precedence.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	// Connection flags
	rootCmd.PersistentFlags().StringVarP(&deviceName, "device", "d", fanboy.DefaultDevice, "Serial port device")
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	rootCmd.PersistentFlags().StringVar(&replayPath, "replay", "", "Replay a capture file instead of a device")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level (trace, debug, info, warn, error)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the configuration and sets up logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}

	if err := setupLogger(c.LogLevel); err != nil {
		return err
	}

	cfg = c
	return nil
}

// resolveConfig merges defaults, the config file and the flags set on the
// command line, in increasing precedence, and validates the result.
func resolveConfig(flags *pflag.FlagSet) (*config.Config, error) {
	c := config.Default()
	if configPath != "" {
		var err error
		c, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	if flags.Changed("device") {
		c.Device = deviceName
	}
	if flags.Changed("url") {
		c.URL = wsURL
	}
	if flags.Changed("username") {
		c.Username = wsUsername
	}
	if flags.Changed("replay") {
		c.Replay = replayPath
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("interval") {
		secs, err := flags.GetInt("interval")
		if err != nil {
			return nil, err
		}
		c.Interval = time.Duration(secs) * time.Second
	}
	if flags.Changed("bind") {
		c.Bind = bindAddr
	}
	if flags.Changed("port") {
		c.Port = listenPort
	}
	if flags.Changed("mqtt-url") {
		c.MQTT.URL = mqttURL
	}
	if flags.Changed("mqtt-topic") {
		c.MQTT.Topic = mqttTopic
	}

	if err := config.Validate(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func setupLogger(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	}).With().Timestamp().Logger()
	return nil
}
