// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// fanboy - FanBoy serial telemetry exporter
//
// Polls a FanBoy fan/temperature controller over its serial link and
// exports the readings to Prometheus.

package main

import (
	"os"

	"github.com/Thermoquad/fanboy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
