package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `╔═══════════════════════════════════════╗
║  ░▒▓ S P O I L E R S C R A P E R ▓▒░    ║
╚═══════════════════════════════════════╝`

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, logoStyle.Width(m.width).Render(logo))

	width := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderCursorPanel(width),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRateLimitPanel(width),
		m.renderLogsPanel(width),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func stat(label, value string) string {
	return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
}

func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" COLLECTION ")

	phase := PhaseStyle(m.phase).Render(m.phase.String())
	if m.phase == PhaseSearching {
		phase = m.spinner.View() + " " + phase
	}

	m.bar.Width = max(width-8, 10)
	lang := m.language
	if lang == "" {
		lang = "any"
	}

	rows := []string{
		phase,
		m.bar.ViewAs(m.Percent()),
		stat("Language:", lang),
		stat("Useful:", fmt.Sprintf("%d/%d", m.progress.Useful, m.progress.Target)),
		stat("Fetched:", fmt.Sprintf("%d posts", m.progress.Fetched)),
		stat("Pages:", fmt.Sprintf("%d (last %d)", m.progress.Pages, m.progress.LastBatch)),
		stat("Session Time:", formatDuration(m.now().Sub(m.sessionStartTime))),
	}
	if m.err != nil {
		rows = append(rows, errorStyle.Render(m.err.Error()))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

func (m *Model) renderCursorPanel(width int) string {
	title := titleStyle.Render(" CORPUS ")
	rows := []string{
		stat("Cursor:", m.state.CursorString()),
		stat("Records on disk:", fmt.Sprintf("%d", m.state.AcceptedCount)),
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

func (m *Model) renderRateLimitPanel(width int) string {
	title := titleStyle.Render(" RATE LIMIT ")

	rows := []string{stat("Waits:", fmt.Sprintf("%d", m.waits))}
	if m.phase == PhaseWaiting {
		rows = append(rows,
			stat("Resource:", m.waitResource),
			warningStyle.Render("Reset in "+formatDuration(m.WaitRemaining())),
		)
	} else {
		rows = append(rows, successStyle.Render("Quota available"))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n")),
	)
}

func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, entry := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(entry.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(entry.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", entry.Level))

		msg := entry.Message
		if maxLen := width - 25; maxLen > 3 && len([]rune(msg)) > maxLen {
			msg = string([]rune(msg)[:maxLen-3]) + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(msg)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No pages yet...")
	}

	logsHeight := m.height - 30
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Stop collecting and quit
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Pages already written stay on disk; the next run resumes from them.
`
	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration as a clock
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
