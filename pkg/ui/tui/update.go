package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"spoilerscraper/pkg/checkpoint"
	"spoilerscraper/pkg/scraper"
)

// Message types for the TUI

// PageMsg is sent after the collector accepted a page
type PageMsg struct {
	Progress scraper.Progress
	State    checkpoint.State
}

// RateLimitMsg is sent when the collector starts waiting for a quota reset
type RateLimitMsg struct {
	Resource string
	Wait     time.Duration
}

// DoneMsg is sent once the collection returned
type DoneMsg struct {
	Err error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.phase == PhaseDone || m.phase == PhaseFailed {
			return m, nil
		}
		return m, tickCmd()

	case PageMsg:
		m.ApplyPage(msg.Progress, msg.State)
		m.AddLogMessage("INFO", fmt.Sprintf("Page %d: %d records, cursor %s",
			msg.Progress.Pages, msg.Progress.LastBatch, msg.State.CursorString()))
		return m, nil

	case RateLimitMsg:
		m.ApplyRateLimit(msg.Resource, msg.Wait)
		m.AddLogMessage("WARN", fmt.Sprintf("Rate limited on %s, sleeping %s",
			msg.Resource, formatDuration(msg.Wait)))
		return m, nil

	case DoneMsg:
		m.Finish(msg.Err)
		if msg.Err != nil {
			m.AddLogMessage("ERROR", msg.Err.Error())
		} else {
			m.AddLogMessage("SUCCESS", fmt.Sprintf("Collected %d useful posts", m.progress.Useful))
		}
		return m, tea.Quit

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
