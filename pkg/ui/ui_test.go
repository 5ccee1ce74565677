package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spoilerscraper/pkg/checkpoint"
	"spoilerscraper/pkg/scraper"
)

func init() {
	SetColor(false)
}

var _ scraper.Reporter = (*ProgressDisplay)(nil)

func TestBar(t *testing.T) {
	assert.Equal(t, "━━━━━─────", Bar(50, 100, 10))
	assert.Equal(t, "━━━━━━━━━━", Bar(150, 100, 10))
	assert.Equal(t, "━━━━━━━━━━", Bar(3, 0, 10))
	assert.Equal(t, "──────────", Bar(0, 100, 10))
	assert.Equal(t, "", Bar(1, 1, 0))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m5s", FormatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h15m", FormatDuration(2*time.Hour+15*time.Minute))
	assert.Equal(t, "0s", FormatDuration(-time.Second))
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(10, 0))
	assert.Equal(t, 30.0, Rate(60, 2*time.Minute))
}

func TestProgressDisplay(t *testing.T) {
	var buf bytes.Buffer
	d := NewProgressDisplayTo(&buf, "en", false)
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	d.startTime = start
	d.now = func() time.Time { return start.Add(2 * time.Minute) }

	cursor := int64(1400)
	d.PageCollected(scraper.Progress{Target: 10, Useful: 5, Fetched: 100, LastBatch: 100, Pages: 1},
		checkpoint.State{Cursor: &cursor, AcceptedCount: 100})

	out := buf.String()
	assert.Contains(t, out, "en [━━━━━━━━━━──────────] 5/10 useful")
	assert.Contains(t, out, "100 fetched")
	assert.Contains(t, out, "50.0/min")

	buf.Reset()
	d.RateLimited("/search/tweets", 90*time.Second)
	assert.Contains(t, buf.String(), "Rate limit reached on /search/tweets. Waiting 1m30s...")

	buf.Reset()
	d.Complete()
	assert.Contains(t, buf.String(), "Collected 5 useful of 100 fetched posts [en]")
	assert.Contains(t, buf.String(), "1 pages in 2m0s")
}

func TestProgressDisplayDebug(t *testing.T) {
	var buf bytes.Buffer
	d := NewProgressDisplayTo(&buf, "", true)
	cursor := int64(7)
	d.PageCollected(scraper.Progress{Pages: 3, LastBatch: 42}, checkpoint.State{Cursor: &cursor})
	assert.Equal(t, "→ page 3 • 42 records • cursor 7\n", buf.String())
}

type fakeSender struct {
	titles []string
	err    error
}

func (f *fakeSender) Send(title, _ string) error {
	f.titles = append(f.titles, title)
	return f.err
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	old := Out
	Out = &buf
	defer func() { Out = old }()

	sender := &fakeSender{err: errors.New("no display")}
	n := &Notifier{sender: sender, enabled: true}
	n.SendSuccess("Collection complete", "10 useful posts")
	n.SendError("Collection failed", "auth")
	assert.Equal(t, []string{"Collection complete", "Collection failed"}, sender.titles)
	assert.Contains(t, buf.String(), "Collection complete: 10 useful posts")

	quiet := &Notifier{sender: sender, enabled: false}
	quiet.SendSuccess("ignored", "")
	assert.Len(t, sender.titles, 2)
}

func TestSenderFor(t *testing.T) {
	assert.NotNil(t, senderFor("linux"))
	assert.NotNil(t, senderFor("darwin"))
	assert.Nil(t, senderFor("plan9"))
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer
	old := Out
	Out = &buf
	defer func() { Out = old }()

	PrintInfo("Last id", "1400")
	PrintError("Collection failed", errors.New("boom"))
	PrintSuccess("done")
	assert.Equal(t, "Last id: 1400\nCollection failed: boom\ndone\n", buf.String())
}
