package models

import (
	"strings"
	"time"
)

// SpoilerMarker is the substring that makes a record count toward the
// collection target.
const SpoilerMarker = "spoiler:"

// Record is one collected post as persisted in the corpus. Higher IDs are
// newer.
type Record struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
}

// HasSpoilerMarker reports whether the text contains "spoiler:" in any case.
func (r Record) HasSpoilerMarker() bool {
	return strings.Contains(strings.ToLower(r.Text), SpoilerMarker)
}

// Batch is one page of records, persisted together as a single file.
type Batch []Record

// MinID returns the smallest ID in the batch. ok is false for an empty batch.
func (b Batch) MinID() (id int64, ok bool) {
	for i, r := range b {
		if i == 0 || r.ID < id {
			id = r.ID
		}
	}
	return id, len(b) > 0
}

// CountUseful returns how many records carry the spoiler marker.
func (b Batch) CountUseful() int {
	n := 0
	for _, r := range b {
		if r.HasSpoilerMarker() {
			n++
		}
	}
	return n
}
