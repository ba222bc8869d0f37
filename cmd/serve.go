// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/fanboy/internal/config"
	"github.com/Thermoquad/fanboy/internal/metrics"
	"github.com/Thermoquad/fanboy/internal/mqtt"
	"github.com/Thermoquad/fanboy/pkg/fanboy"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	intervalSeconds int
	bindAddr        string
	listenPort      int
	mqttURL         string
	mqttTopic       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Export readings to Prometheus",
	Long: `Poll the controller at a fixed interval and serve the last good reading
on /metrics.

Exported metrics:
  fanboy_temp{sensor="TEMPn"}             temperature in °C
  fanboy_rpm{fan="FANn"}                  fan speed (0 = no tach signal)
  fanboy_duty{fan="FANn"}                 fan duty in percent
  fanboy_polls_total{result="..."}        poll outcomes
  fanboy_last_success_timestamp_seconds   time of the last good reading

A failed poll keeps the previous reading. With --mqtt-url every good reading
is also published as a retained JSON message.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&bindAddr, "bind", "b", config.DefaultBind, "Listen address")
	serveCmd.Flags().IntVarP(&listenPort, "port", "p", config.DefaultPort, "TCP port")
	serveCmd.Flags().IntVarP(&intervalSeconds, "interval", "i", int(config.DefaultInterval/time.Second), "Update interval in seconds")
	serveCmd.Flags().StringVar(&mqttURL, "mqtt-url", "", "MQTT broker URL (mqtt://[user:pass@]host:port/prefix)")
	serveCmd.Flags().StringVar(&mqttTopic, "mqtt-topic", config.DefaultMQTTTopic, "MQTT topic below the URL prefix")
}

const landingPage = `<html>
<head><title>FanBoy Exporter</title></head>
<body>
<h1>FanBoy Exporter</h1>
<p><a href="/metrics">Metrics</a></p>
</body>
</html>
`

func runServe(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenTransport(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info().Str("connection", connInfo).Msg("device opened")

	var sinks []fanboy.Sink
	if cfg.MQTT.URL != "" {
		pub, err := mqtt.New(cfg.MQTT.URL, cfg.MQTT.Topic)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		if err := pub.Connect(); err != nil {
			return err
		}
		defer pub.Close()
		log.Info().Str("topic", pub.Topic()).Msg("publishing readings to mqtt")
		sinks = append(sinks, pub)
	}

	state := fanboy.NewState()
	poller := fanboy.NewPoller(conn, state, fanboy.WithSinks(sinks...))

	reg, err := metrics.NewRegistry(metrics.NewCollector(state, poller.Stats))
	if err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, landingPage)
	})

	ln, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("can not start exporter: %w", err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		poller.Run(ctx, cfg.Interval)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	log.Info().
		Str("addr", ln.Addr().String()).
		Dur("interval", cfg.Interval).
		Msg("exporter listening")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-serveErr:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("http shutdown")
	}

	// The transport is closed on return; wait for an in-flight poll
	<-pollDone

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("exporter stopped: %w", err)
	}
	return nil
}
