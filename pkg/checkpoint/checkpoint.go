package checkpoint

import (
	"fmt"
	"iter"

	"spoilerscraper/pkg/models"
)

// RecordSource yields every record persisted so far
type RecordSource interface {
	Records() iter.Seq2[models.Record, error]
}

// State is the collector's position. It is derived from the corpus at start
// and updated in memory after each page; it is never written to disk.
type State struct {
	// Cursor is the smallest ID collected so far. Nil means nothing has been
	// collected and the next search is unbounded.
	Cursor *int64
	// AcceptedCount is the number of records persisted across all runs.
	AcceptedCount int
}

// Reconstruct folds over every record in source. Batch order does not
// matter and records within a batch need not be sorted.
func Reconstruct(source RecordSource) (*State, error) {
	state := &State{}
	for rec, err := range source.Records() {
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct collector state: %w", err)
		}
		state.Observe(rec)
	}
	return state, nil
}

// Observe folds one record into the state
func (s *State) Observe(rec models.Record) {
	if s.Cursor == nil || rec.ID < *s.Cursor {
		id := rec.ID
		s.Cursor = &id
	}
	s.AcceptedCount++
}

// MoveCursor points the cursor at the batch's smallest ID. An empty batch
// leaves the state unchanged.
func (s *State) MoveCursor(batch models.Batch) {
	if minID, ok := batch.MinID(); ok {
		s.Cursor = &minID
	}
}

// MaxID returns the inclusive upper bound for the next search. ok is false
// when no bound applies.
func (s *State) MaxID() (maxID int64, ok bool) {
	if s.Cursor == nil {
		return 0, false
	}
	return *s.Cursor - 1, true
}

// CursorString renders the cursor for reports, "none" when unset
func (s *State) CursorString() string {
	if s.Cursor == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *s.Cursor)
}
