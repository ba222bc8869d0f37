// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/fanboy/pkg/fanboy"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// TUI model
type model struct {
	poller        *fanboy.Poller
	connInfo      string
	interval      time.Duration
	fans          table.Model
	eventLog      []eventLogEntry
	maxLogEntries int
	polling       bool
	width         int
	height        int
	quitting      bool
}

// Messages
type tickMsg time.Time
type pollResultMsg struct {
	err error
}

func newFanTable() table.Model {
	columns := []table.Column{
		{Title: "Fan", Width: 6},
		{Title: "Duty", Width: 6},
		{Title: "RPM", Width: 8},
		{Title: "Tach", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(fanboy.NumFans+1),
		table.WithFocused(false),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Cell
	t.SetStyles(s)
	return t
}

func fanRows(r fanboy.Reading) []table.Row {
	rows := make([]table.Row, 0, fanboy.NumFans)
	for i := 0; i < fanboy.NumFans; i++ {
		tach := "ok"
		if r.RPM[i] == 0 {
			tach = "none"
		}
		rows = append(rows, table.Row{
			fanboy.FanLabel(i),
			fmt.Sprintf("%d%%", r.Duty[i]),
			fmt.Sprintf("%d", r.RPM[i]),
			tach,
		})
	}
	return rows
}

func initialModel(poller *fanboy.Poller, connInfo string, interval time.Duration) model {
	fans := newFanTable()
	reading, _ := poller.State().Load()
	fans.SetRows(fanRows(reading))

	return model{
		poller:        poller,
		connInfo:      connInfo,
		interval:      interval,
		fans:          fans,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		polling:       true,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return pollOnceCmd(m.poller)
}

// pollOnceCmd runs one transaction off the UI goroutine. The next poll is only
// scheduled once the result arrives so transactions never overlap.
func pollOnceCmd(p *fanboy.Poller) tea.Cmd {
	return func() tea.Msg {
		return pollResultMsg{err: p.Poll()}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.poller.ResetStats()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.polling = true
		return m, pollOnceCmd(m.poller)

	case pollResultMsg:
		m.polling = false
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("POLL FAILED: %v", msg.err), true)
		} else {
			reading, _ := m.poller.State().Load()
			m.fans.SetRows(fanRows(reading))
		}
		return m, tickCmd(m.interval)
	}

	return m, nil
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("FANBOY - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Interval: %s | 'r' reset stats, 'q' quit",
		m.connInfo, m.interval)))
	s.WriteString("\n\n")

	// Reading
	reading, at := m.poller.State().Load()
	if at.IsZero() {
		s.WriteString(warningStyle.Render("⏳ Waiting for first reading..."))
	} else {
		s.WriteString(valueStyle.Render("✓ Last reading " + at.Format("15:04:05.000")))
		if m.polling {
			s.WriteString(headerStyle.Render(" (polling)"))
		}
	}
	s.WriteString("\n\n")

	temps := strings.Builder{}
	for i := 0; i < fanboy.NumTemp; i++ {
		if i > 0 {
			temps.WriteString("   ")
		}
		temps.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render(fanboy.TempLabel(i)+":"),
			valueStyle.Render(fmt.Sprintf("%.2f°C", reading.Temp[i])),
		))
	}
	readingContent := lipgloss.JoinVertical(lipgloss.Left, m.fans.View(), "", temps.String())
	s.WriteString(boxStyle.Render(readingContent))
	s.WriteString("\n\n")

	// Statistics
	stats := m.poller.Stats()
	var okPercent, errorPercent float64
	if stats.TotalPolls > 0 {
		okPercent = float64(stats.Successful) * 100.0 / float64(stats.TotalPolls)
		errorPercent = float64(stats.Errors()) * 100.0 / float64(stats.TotalPolls)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Polls:"), valueStyle.Render(fmt.Sprintf("%d", stats.TotalPolls)),
		labelStyle.Render("OK:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", stats.Successful, okPercent)),
		labelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", stats.Errors(), errorPercent)),
	))

	if stats.Errors() > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %d  %s %d  %s %d  %s %d  %s %d\n",
			headerStyle.Render("timeouts"), stats.Timeouts,
			headerStyle.Render("short"), stats.ShortFrames,
			headerStyle.Render("bad header"), stats.BadHeaders,
			headerStyle.Render("send"), stats.SendErrors,
			headerStyle.Render("io"), stats.IOErrors,
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("Poll Rate:"), valueStyle.Render(fmt.Sprintf("%.2f polls/s", stats.PollRate)),
		labelStyle.Render("Error Rate:"), func() string {
			if stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.2f err/s", stats.ErrorRate))
			}
			return valueStyle.Render(fmt.Sprintf("%.2f err/s", stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 22 // Reserve space for reading and stats
	if logHeight < 3 {
		logHeight = 3
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	width := m.width - 4
	if width < 20 {
		width = 20
	}
	s.WriteString(boxStyle.Width(width).Render(logContent.String()))

	return s.String()
}
