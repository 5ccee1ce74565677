// Package storage manages the on-disk corpus.
//
// The corpus is a flat directory of JSON-lines batch files, one file per
// collected page, each named with a random UUID. Files are written once
// through a temporary sibling and an atomic rename, so a crash never leaves a
// partially written batch behind. Nothing else is stored: the collector's
// position is rebuilt from these files on every start.
//
// Usage:
//
//	manager, err := storage.NewManager("data/tweets")
//	if err != nil {
//	    return err
//	}
//	path, err := manager.WriteBatch(batch)
//
//	for rec, err := range manager.Records() {
//	    if err != nil {
//	        return err
//	    }
//	    // use rec
//	}
package storage
