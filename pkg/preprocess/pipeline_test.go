package preprocess

import (
	"bytes"
	"context"
	"io"
	"iter"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "spoilerscraper/pkg/errors"
	"spoilerscraper/pkg/logger"
	"spoilerscraper/pkg/models"
	"spoilerscraper/pkg/storage"
)

type fakeSource struct {
	texts []string
	err   error
}

func (f fakeSource) Records() iter.Seq2[models.Record, error] {
	return func(yield func(models.Record, error) bool) {
		for i, text := range f.texts {
			if !yield(models.Record{ID: int64(i + 1), Text: text}, nil) {
				return
			}
		}
		if f.err != nil {
			yield(models.Record{}, f.err)
		}
	}
}

func TestPreprocessorRun(t *testing.T) {
	src := fakeSource{texts: []string{
		"Spoiler: Rosebud is a sled @critic",
		"nothing here",
		"🚨 Spoiler Alert 🚨: The butler did it (seriously)",
		"alerta de spoiler: el final &amp; los créditos #cine",
	}}

	var out bytes.Buffer
	tl := logger.NewTestLogger()
	stats, err := NewPreprocessor(0, tl).Run(context.Background(), src, &out)
	require.NoError(t, err)

	assert.Equal(t, Stats{Scanned: 4, Spoilers: 3}, stats)
	assert.Equal(t,
		"Rosebud is a sled @USER\nThe butler did it\nel final & los créditos #TAG\n",
		out.String())
	assert.True(t, tl.HasMessage("Preprocess finished"))
}

func TestPreprocessorLimit(t *testing.T) {
	src := fakeSource{
		texts: []string{"spoiler: one", "spoiler: two", "spoiler: three"},
		err:   errs.New(errs.ErrorTypeParsing, 0, "never reached"),
	}

	var out bytes.Buffer
	stats, err := NewPreprocessor(2, nil).Run(context.Background(), src, &out)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, "one\ntwo\n", out.String())
}

func TestPreprocessorMalformedRecordAborts(t *testing.T) {
	src := fakeSource{
		texts: []string{"spoiler: kept"},
		err:   errs.New(errs.ErrorTypeParsing, 0, "malformed record at a.jsonl:2"),
	}

	var out bytes.Buffer
	stats, err := NewPreprocessor(10, nil).Run(context.Background(), src, &out)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
	assert.Equal(t, 1, stats.Scanned)
}

func TestPreprocessorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPreprocessor(10, nil).Run(ctx, fakeSource{texts: []string{"spoiler: x"}}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreprocessorOverCorpus(t *testing.T) {
	m, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	_, err = m.WriteBatch(models.Batch{
		{ID: 2, Text: "SPOILER: Darth is the father"},
		{ID: 1, Text: "no spoilers please"},
	})
	require.NoError(t, err)

	var stats Stats
	path, err := m.WriteSpoilerFile("spoilers.txt", func(w io.Writer) error {
		var runErr error
		stats, runErr = NewPreprocessor(DefaultLimit, nil).Run(context.Background(), m, w)
		return runErr
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Spoilers)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Darth is the father\n", string(data))
}
