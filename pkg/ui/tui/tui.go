package tui

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"spoilerscraper/pkg/checkpoint"
	"spoilerscraper/pkg/scraper"
)

// TUI runs the collection dashboard. It implements scraper.Reporter so the
// collector can feed it directly.
type TUI struct {
	program *tea.Program
	model   *Model
	phase   atomic.Int32
}

const (
	programIdle int32 = iota
	programRunning
	programStopped
)

// NewTUI creates a new TUI instance
func NewTUI(language string, target int, initial checkpoint.State, opts ...tea.ProgramOption) *TUI {
	model := NewModel(language, target, initial)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	program := tea.NewProgram(&model, opts...)

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Run shows the dashboard while work executes. Quitting the dashboard
// cancels the context handed to work. Run returns work's error.
func (t *TUI) Run(ctx context.Context, work func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.model.onQuit = cancel
	t.phase.Store(programRunning)
	defer t.phase.Store(programStopped)

	done := make(chan error, 1)
	go func() {
		err := work(ctx)
		done <- err
		t.Send(DoneMsg{Err: err})
	}()

	if _, err := t.program.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("dashboard failed: %w", err)
	}

	cancel()
	return <-done
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// PageCollected implements scraper.Reporter
func (t *TUI) PageCollected(p scraper.Progress, s checkpoint.State) {
	t.Send(PageMsg{Progress: p, State: s})
}

// RateLimited implements scraper.Reporter
func (t *TUI) RateLimited(resource string, wait time.Duration) {
	t.Send(RateLimitMsg{Resource: resource, Wait: wait})
}

// Log adds a line to the dashboard's log panel. It matches logger.Sink, so
// the run's logger can write into the panel instead of the terminal. Lines
// logged before Run are queued on the model and lines after it are dropped.
func (t *TUI) Log(level, message string) {
	switch t.phase.Load() {
	case programIdle:
		t.model.AddLogMessage(level, message)
	case programRunning:
		t.Send(LogMsg{Level: level, Message: message})
	}
}
