package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"spoilerscraper/pkg/checkpoint"
	"spoilerscraper/pkg/scraper"
)

const barWidth = 20

// ProgressDisplay renders collection progress on a single terminal line.
// It implements scraper.Reporter.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	language  string
	startTime time.Time
	now       func() time.Time
	last      scraper.Progress
	state     checkpoint.State
	isDebug   bool
}

// NewProgressDisplay creates a progress display writing to Out
func NewProgressDisplay(language string, debug bool) *ProgressDisplay {
	return NewProgressDisplayTo(Out, language, debug)
}

// NewProgressDisplayTo creates a progress display writing to w
func NewProgressDisplayTo(w io.Writer, language string, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       w,
		language:  language,
		startTime: time.Now(),
		now:       time.Now,
		isDebug:   debug,
	}
}

// PageCollected implements scraper.Reporter
func (p *ProgressDisplay) PageCollected(progress scraper.Progress, state checkpoint.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = progress
	p.state = state

	if p.isDebug {
		fmt.Fprintf(p.out, "%s page %d • %d records • cursor %s\n",
			Magenta("→"), progress.Pages, progress.LastBatch, state.CursorString())
		return
	}
	p.printProgress()
}

// RateLimited implements scraper.Reporter
func (p *ProgressDisplay) RateLimited(resource string, wait time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\n%s Rate limit reached on %s. Waiting %s...\n",
		Yellow("⚠"),
		resource,
		FormatDuration(wait),
	)
}

func (p *ProgressDisplay) printProgress() {
	elapsed := p.now().Sub(p.startTime)

	line := fmt.Sprintf("%s [%s] %d/%d useful • %d fetched • %d pages • %.1f/min",
		Cyan(p.label()),
		Bar(p.last.Useful, p.last.Target, barWidth),
		p.last.Useful,
		p.last.Target,
		p.last.Fetched,
		p.last.Pages,
		Rate(p.last.Fetched, elapsed),
	)
	if p.last.RateLimitWaits > 0 {
		line += fmt.Sprintf(" • %s", Yellow(fmt.Sprintf("%d waits", p.last.RateLimitWaits)))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

func (p *ProgressDisplay) label() string {
	if p.language == "" {
		return "any"
	}
	return p.language
}

// Complete prints the run summary
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.startTime)

	fmt.Fprintf(p.out, "\n\n%s Collected %d useful of %d fetched posts [%s]\n",
		Green("✓"),
		p.last.Useful,
		p.last.Fetched,
		p.label(),
	)
	fmt.Fprintf(p.out, "  %s %d pages in %s\n",
		Dim("•"),
		p.last.Pages,
		FormatDuration(elapsed),
	)
	if p.last.RateLimitWaits > 0 {
		fmt.Fprintf(p.out, "  %s waited out %d rate limits\n", Dim("•"), p.last.RateLimitWaits)
	}
}
