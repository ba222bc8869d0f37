// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/fanboy/internal/config"
	"github.com/Thermoquad/fanboy/pkg/fanboy"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	monitorInterval int
	statsInterval   int
	useTUI          bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch live readings and poll statistics",
	Long: `Poll the controller at a fixed interval and show the latest reading
together with poll statistics (success rate, timeouts, short and garbled
replies).

A failed poll keeps the previous reading on screen and is listed in the
event log. Use --tui=false for plain text output suitable for piping.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().IntVarP(&monitorInterval, "interval", "i", int(config.DefaultInterval/time.Second), "Poll interval in seconds")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 60, "Statistics update interval (seconds, text mode)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if statsInterval <= 0 {
		return fmt.Errorf("--stats-interval must be positive")
	}

	conn, connInfo, err := OpenTransport(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runTUIMode(conn, connInfo)
	}
	return runTextMode(conn, connInfo)
}

// runTUIMode runs the monitor as a full screen terminal UI
func runTUIMode(conn fanboy.Transport, connInfo string) error {
	// Logging to stderr would tear the screen; errors go to the event log.
	poller := fanboy.NewPoller(conn, fanboy.NewState(), fanboy.WithLogger(zerolog.Nop()))

	p := tea.NewProgram(initialModel(poller, connInfo, cfg.Interval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// runTextMode prints every reading and periodic statistics
func runTextMode(conn fanboy.Transport, connInfo string) error {
	fmt.Printf("FanBoy - Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Poll interval: %s\n", cfg.Interval)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := fanboy.NewState()
	poller := fanboy.NewPoller(conn, state, fanboy.WithSinks(fanboy.SinkFunc(func(r fanboy.Reading, at time.Time) error {
		fmt.Print(fanboy.FormatReading(r, at))
		fmt.Println()
		return nil
	})))

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		poller.Run(ctx, cfg.Interval)
	}()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-pollDone
			stats := poller.Stats()
			fmt.Println()
			fmt.Print(stats.String())
			return nil
		case <-statsTicker.C:
			stats := poller.Stats()
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
