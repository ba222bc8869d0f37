// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/fanboy/internal/config"
	"github.com/Thermoquad/fanboy/pkg/fanboy"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	recordOut      string
	recordCount    int
	recordInterval int
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Capture raw status replies to a file",
	Long: `Poll the controller and append every reply, including short or garbled
ones, to a capture file. The file can be played back with --replay to test
the exporter without hardware.

Each reply is printed as a hex dump while recording.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "", "Capture file to write")
	recordCmd.Flags().IntVarP(&recordCount, "count", "n", 0, "Number of polls (0 = until interrupted)")
	recordCmd.Flags().IntVarP(&recordInterval, "interval", "i", int(config.DefaultInterval/time.Second), "Poll interval in seconds")
	recordCmd.MarkFlagRequired("out")
}

func runRecord(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenTransport(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	f, err := os.Create(recordOut)
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Printf("FanBoy - Record\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Output: %s\n", recordOut)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	var reply []byte
	recorder := fanboy.NewRecorder(conn, w)
	poller := fanboy.NewPoller(&captureTransport{Transport: recorder, last: &reply}, fanboy.NewState())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

loop:
	for i := 0; recordCount == 0 || i < recordCount; i++ {
		if i > 0 {
			select {
			case <-sigChan:
				break loop
			case <-ticker.C:
			}
		}

		status := "OK"
		if err := poller.Poll(); err != nil {
			status = err.Error()
		}
		fmt.Printf("[%s] #%d %s\n", time.Now().Format("15:04:05.000"), i, status)
		if len(reply) > 0 {
			fmt.Printf("  %s\n", fanboy.FormatFrame(reply))
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write capture file: %w", err)
	}

	stats := poller.Stats()
	log.Info().Int("records", recorder.Count()).Str("file", recordOut).Msg("capture written")
	fmt.Print(stats.String())
	return nil
}
