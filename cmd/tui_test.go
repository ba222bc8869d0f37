// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/fanboy/pkg/fanboy"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

func newTestModel(replies ...[]byte) model {
	mock := &fanboy.MockTransport{Replies: replies}
	poller := fanboy.NewPoller(mock, fanboy.NewState(), fanboy.WithLogger(zerolog.Nop()))
	return initialModel(poller, "Mock", time.Second)
}

// stepPoll executes the command returned by Init or a tick, feeds the result
// back into the model and returns the updated model.
func stepPoll(t *testing.T, m model, cmd tea.Cmd) (model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a poll command")
	}
	msg := cmd()
	result, ok := msg.(pollResultMsg)
	if !ok {
		t.Fatalf("command produced %T, want pollResultMsg", msg)
	}
	next, nextCmd := m.Update(result)
	return next.(model), nextCmd
}

func TestModelPollSuccess(t *testing.T) {
	m := newTestModel(fanboy.EncodeResponse(bridgeReading))

	m, next := stepPoll(t, m, m.Init())
	if next == nil {
		t.Fatal("expected next tick to be scheduled")
	}
	if m.polling {
		t.Error("polling flag still set after result")
	}
	if len(m.eventLog) != 0 {
		t.Errorf("event log = %v, want empty", m.eventLog)
	}

	rows := m.fans.Rows()
	if len(rows) != fanboy.NumFans {
		t.Fatalf("fan rows = %d, want %d", len(rows), fanboy.NumFans)
	}
	if rows[0][2] != "1200" || rows[1][3] != "none" || rows[3][1] != "100%" {
		t.Errorf("unexpected fan rows: %v", rows)
	}

	view := m.View()
	for _, want := range []string{"FANBOY - MONITOR", "TEMP0", "TEMP1", "41.25°C"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModelPollFailureKeepsReading(t *testing.T) {
	m := newTestModel(fanboy.EncodeResponse(bridgeReading), []byte{0x00, 0x01})

	m, _ = stepPoll(t, m, m.Init())
	before := m.fans.Rows()

	// Tick starts the next poll, which gets a short reply
	next, cmd := m.Update(tickMsg(time.Now()))
	m = next.(model)
	if !m.polling {
		t.Error("polling flag not set on tick")
	}
	m, _ = stepPoll(t, m, cmd)

	if len(m.eventLog) != 1 || !m.eventLog[0].isError {
		t.Fatalf("event log = %+v, want one error entry", m.eventLog)
	}
	if !strings.Contains(m.eventLog[0].message, "POLL FAILED") {
		t.Errorf("event message = %q", m.eventLog[0].message)
	}

	after := m.fans.Rows()
	for i := range before {
		for j := range before[i] {
			if before[i][j] != after[i][j] {
				t.Errorf("row %d changed after failed poll: %v -> %v", i, before[i], after[i])
			}
		}
	}

	reading, _ := m.poller.State().Load()
	if reading != bridgeReading {
		t.Errorf("state = %+v, want %+v", reading, bridgeReading)
	}
}

func TestModelKeys(t *testing.T) {
	m := newTestModel()
	m, _ = stepPoll(t, m, m.Init())
	if stats := m.poller.Stats(); stats.TotalPolls != 1 {
		t.Fatalf("TotalPolls = %d, want 1", stats.TotalPolls)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(model)
	if stats := m.poller.Stats(); stats.TotalPolls != 0 {
		t.Errorf("TotalPolls after reset = %d, want 0", stats.TotalPolls)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(model)
	if !m.quitting || cmd == nil {
		t.Error("q did not quit")
	}
	if m.View() != "Shutting down...\n" {
		t.Errorf("View after quit = %q", m.View())
	}
}

func TestModelEventLogBounded(t *testing.T) {
	m := newTestModel()
	for i := 0; i < m.maxLogEntries+10; i++ {
		m.addLogEntry("event", false)
	}
	if len(m.eventLog) != m.maxLogEntries {
		t.Errorf("event log length = %d, want %d", len(m.eventLog), m.maxLogEntries)
	}
}
