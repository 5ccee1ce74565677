package preprocess

import (
	"context"
	"fmt"
	"io"
	"iter"

	"spoilerscraper/pkg/logger"
	"spoilerscraper/pkg/models"
)

// DefaultLimit caps how many stored records a preprocess run scans
const DefaultLimit = 1_000_000

// progressEvery controls how often a long scan reports progress
const progressEvery = 100_000

// RecordSource yields stored records in corpus order
type RecordSource interface {
	Records() iter.Seq2[models.Record, error]
}

// Stats summarizes one preprocess run
type Stats struct {
	Scanned  int
	Spoilers int
}

// Preprocessor turns stored records into one spoiler span per line
type Preprocessor struct {
	limit  int
	logger logger.Logger
}

// NewPreprocessor creates a Preprocessor scanning at most limit records.
// A non-positive limit falls back to DefaultLimit.
func NewPreprocessor(limit int, log logger.Logger) *Preprocessor {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Preprocessor{limit: limit, logger: log}
}

// Run normalizes each record, extracts its spoiler span and writes every
// non-empty span to w followed by a newline. A malformed record aborts the
// run.
func (p *Preprocessor) Run(ctx context.Context, src RecordSource, w io.Writer) (Stats, error) {
	var stats Stats

	for rec, err := range src.Records() {
		if stats.Scanned >= p.limit {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read corpus: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Scanned++

		for span := range SpoilerSpans(Normalize(rec.Text)) {
			if _, err := io.WriteString(w, span+"\n"); err != nil {
				return stats, fmt.Errorf("failed to write spoiler span: %w", err)
			}
			stats.Spoilers++
		}

		if stats.Scanned%progressEvery == 0 {
			p.logger.InfoWithFields("Preprocess progress", map[string]interface{}{
				"scanned":  stats.Scanned,
				"spoilers": stats.Spoilers,
			})
		}
	}

	p.logger.InfoWithFields("Preprocess finished", map[string]interface{}{
		"scanned":  stats.Scanned,
		"spoilers": stats.Spoilers,
		"limit":    p.limit,
	})
	return stats, nil
}
