package checkpoint

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "spoilerscraper/pkg/errors"
	"spoilerscraper/pkg/models"
	"spoilerscraper/pkg/storage"
)

type sliceSource struct {
	records []models.Record
	err     error
}

func (s sliceSource) Records() iter.Seq2[models.Record, error] {
	return func(yield func(models.Record, error) bool) {
		for _, r := range s.records {
			if !yield(r, nil) {
				return
			}
		}
		if s.err != nil {
			yield(models.Record{}, s.err)
		}
	}
}

func TestReconstructEmpty(t *testing.T) {
	state, err := Reconstruct(sliceSource{})
	require.NoError(t, err)
	assert.Nil(t, state.Cursor)
	assert.Equal(t, 0, state.AcceptedCount)

	_, ok := state.MaxID()
	assert.False(t, ok)
	assert.Equal(t, "none", state.CursorString())
}

func TestReconstructFromCorpusFiles(t *testing.T) {
	m, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	_, err = m.WriteBatch(models.Batch{{ID: 100}, {ID: 95}, {ID: 90}})
	require.NoError(t, err)
	_, err = m.WriteBatch(models.Batch{{ID: 89}, {ID: 80}})
	require.NoError(t, err)

	state, err := Reconstruct(m)
	require.NoError(t, err)
	require.NotNil(t, state.Cursor)
	assert.Equal(t, int64(80), *state.Cursor)
	assert.Equal(t, 5, state.AcceptedCount)

	maxID, ok := state.MaxID()
	assert.True(t, ok)
	assert.Equal(t, int64(79), maxID)
}

func TestReconstructIsOrderIndependent(t *testing.T) {
	a := []models.Record{{ID: 7}, {ID: 3}, {ID: 9}, {ID: 5}}
	b := []models.Record{{ID: 9}, {ID: 5}, {ID: 7}, {ID: 3}}

	sa, err := Reconstruct(sliceSource{records: a})
	require.NoError(t, err)
	sb, err := Reconstruct(sliceSource{records: b})
	require.NoError(t, err)

	assert.Equal(t, sa, sb)
	assert.Equal(t, int64(3), *sa.Cursor)
}

func TestReconstructCountsDuplicates(t *testing.T) {
	state, err := Reconstruct(sliceSource{records: []models.Record{{ID: 4}, {ID: 4}}})
	require.NoError(t, err)
	assert.Equal(t, 2, state.AcceptedCount)
}

func TestReconstructPropagatesParsingError(t *testing.T) {
	bad := errs.New(errs.ErrorTypeParsing, 0, "malformed record at x.jsonl:1")
	_, err := Reconstruct(sliceSource{records: []models.Record{{ID: 1}}, err: bad})
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
}

func TestMoveCursor(t *testing.T) {
	state := &State{AcceptedCount: 7}
	state.MoveCursor(models.Batch{{ID: 50}, {ID: 40}})
	assert.Equal(t, int64(40), *state.Cursor)

	state.MoveCursor(models.Batch{})
	assert.Equal(t, int64(40), *state.Cursor)

	state.MoveCursor(models.Batch{{ID: 39}, {ID: 12}})
	assert.Equal(t, int64(12), *state.Cursor)
	assert.Equal(t, "12", state.CursorString())
	assert.Equal(t, 7, state.AcceptedCount)
}
