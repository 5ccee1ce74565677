package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"spoilerscraper/internal/fsutil"
	errs "spoilerscraper/pkg/errors"
	"spoilerscraper/pkg/models"
)

// BatchExt is the extension of every batch file in the corpus directory
const BatchExt = ".jsonl"

// maxLineSize bounds a single JSON record line
const maxLineSize = 4 * 1024 * 1024

// Manager owns the corpus directory: one JSON-lines file per batch, written
// once and never appended to.
type Manager struct {
	dir string
}

// NewManager creates a new storage manager rooted at dir
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create corpus directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the corpus directory path
func (m *Manager) Dir() string {
	return m.dir
}

// Files lists batch files in the corpus directory, sorted by name
func (m *Manager) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(m.dir, "*"+BatchExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list batch files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// WriteBatch persists batch as a fresh uniquely named file and returns its
// path. The file appears atomically: readers see either nothing or every line.
func (m *Manager) WriteBatch(batch models.Batch) (string, error) {
	path := filepath.Join(m.dir, uuid.NewString()+BatchExt)

	err := fsutil.WriteFile(path, 0644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, rec := range batch {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("failed to encode record %d: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// Records streams every record of every batch file. Iteration stops at the
// first unreadable file or malformed line, which is yielded as a parsing error.
func (m *Manager) Records() iter.Seq2[models.Record, error] {
	return func(yield func(models.Record, error) bool) {
		files, err := m.Files()
		if err != nil {
			yield(models.Record{}, err)
			return
		}
		for _, path := range files {
			if !readBatchFile(path, yield) {
				return
			}
		}
	}
}

// readBatchFile yields each record of one file and reports whether
// iteration should continue.
func readBatchFile(path string, yield func(models.Record, error) bool) bool {
	f, err := os.Open(path)
	if err != nil {
		yield(models.Record{}, fmt.Errorf("failed to open batch file: %w", err))
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		var rec models.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			yield(models.Record{}, errs.Wrap(errs.ErrorTypeParsing, err,
				"malformed record at %s:%d", filepath.Base(path), line))
			return false
		}
		if !yield(rec, nil) {
			return false
		}
	}
	if err := scanner.Err(); err != nil {
		yield(models.Record{}, errs.Wrap(errs.ErrorTypeParsing, err,
			"failed to read %s after line %d", filepath.Base(path), line))
		return false
	}
	return true
}

// WriteSpoilerFile replaces name inside the corpus directory with whatever
// fill writes. The previous file is kept until fill succeeds.
func (m *Manager) WriteSpoilerFile(name string, fill func(w io.Writer) error) (string, error) {
	if strings.HasSuffix(name, BatchExt) {
		return "", fmt.Errorf("spoiler file %s would be read back as a batch", name)
	}
	path := filepath.Join(m.dir, name)
	if err := fsutil.WriteFile(path, 0644, fill); err != nil {
		return "", err
	}
	return path, nil
}
