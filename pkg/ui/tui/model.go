package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spoilerscraper/pkg/checkpoint"
	"spoilerscraper/pkg/scraper"
)

// Phase is what the collector is doing right now
type Phase int

const (
	PhaseSearching Phase = iota
	PhaseWaiting
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting for rate limit reset"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "searching"
	}
}

// Model is the collection dashboard state. All mutation happens in Update.
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	language string
	progress scraper.Progress
	state    checkpoint.State
	phase    Phase
	err      error

	// rate limit wait in flight
	waitResource string
	waitUntil    time.Time
	waits        int

	sessionStartTime time.Time
	now              func() time.Time

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int

	onQuit func()
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates the dashboard for a run targeting target useful posts
func NewModel(language string, target int, initial checkpoint.State) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return Model{
		spinner:          s,
		bar:              bar,
		language:         language,
		progress:         scraper.Progress{Target: target},
		state:            initial,
		sessionStartTime: time.Now(),
		now:              time.Now,
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// ApplyPage records a collected page
func (m *Model) ApplyPage(p scraper.Progress, s checkpoint.State) {
	m.progress = p
	m.state = s
	if m.phase == PhaseWaiting {
		m.phase = PhaseSearching
	}
	m.waitResource = ""
}

// ApplyRateLimit records that the collector is sleeping on resource
func (m *Model) ApplyRateLimit(resource string, wait time.Duration) {
	m.phase = PhaseWaiting
	m.waitResource = resource
	m.waitUntil = m.now().Add(wait)
	m.waits++
}

// Finish marks the run as over
func (m *Model) Finish(err error) {
	m.err = err
	if err != nil {
		m.phase = PhaseFailed
		return
	}
	m.phase = PhaseDone
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	color := dimWhite
	switch level {
	case "ERROR":
		color = lipgloss.Color("#FF0000")
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    m.now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Percent is the share of the target reached, capped at 1
func (m *Model) Percent() float64 {
	if m.progress.Target <= 0 {
		return 1
	}
	pct := float64(m.progress.Useful) / float64(m.progress.Target)
	if pct > 1 {
		return 1
	}
	return pct
}

// WaitRemaining is how long the current rate-limit sleep has left
func (m *Model) WaitRemaining() time.Duration {
	if m.phase != PhaseWaiting {
		return 0
	}
	left := m.waitUntil.Sub(m.now())
	if left < 0 {
		return 0
	}
	return left
}

// Progress returns the latest collector progress
func (m *Model) Progress() scraper.Progress {
	return m.progress
}

// Phase returns the current phase
func (m *Model) Phase() Phase {
	return m.phase
}

// Err returns the error the run ended with
func (m *Model) Err() error {
	return m.err
}
