// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Thermoquad/fanboy/pkg/fanboy"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var pollRaw bool

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run a single status transaction and print the reading",
	Long: `Send one status query, wait for the reply and print the decoded reading.

Exit codes:
  0 - Reading received and decoded
  1 - Poll failed (timeout, short or garbled reply)
  2 - Connection error

Useful for checking the cabling and the device path before running 'serve'.`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.Flags().BoolVar(&pollRaw, "raw", false, "Also print the raw reply bytes")
}

func runPoll(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenTransport(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("FanBoy - Poll\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	var raw []byte
	transport := &captureTransport{Transport: conn, last: &raw}
	state := fanboy.NewState()
	poller := fanboy.NewPoller(transport, state, fanboy.WithLogger(zerolog.Nop()))

	pollErr := poller.Poll()
	if pollRaw {
		fmt.Printf("Reply: %s\n\n", fanboy.FormatFrame(raw))
	}
	if pollErr != nil {
		fmt.Fprintf(os.Stderr, "FAILED: %v\n", pollErr)
		if errors.Is(pollErr, fanboy.ErrTimeout) {
			fmt.Fprintf(os.Stderr, "No reply within %s - check the device path and that the controller is powered\n", fanboy.DefaultTimeout)
		}
		conn.Close()
		os.Exit(1)
	}

	fmt.Print(fanboy.FormatReading(state.Load()))
	return nil
}

// captureTransport keeps a copy of the last reply for --raw output.
type captureTransport struct {
	fanboy.Transport
	last *[]byte
}

func (c *captureTransport) Receive(n int) ([]byte, error) {
	data, err := c.Transport.Receive(n)
	*c.last = append((*c.last)[:0], data...)
	return data, err
}
