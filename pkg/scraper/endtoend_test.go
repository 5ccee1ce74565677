package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spoilerscraper/pkg/checkpoint"
	"spoilerscraper/pkg/config"
	"spoilerscraper/pkg/logger"
	"spoilerscraper/pkg/retry"
	"spoilerscraper/pkg/storage"
	"spoilerscraper/pkg/twitter"
)

// mockSearchServer emulates the two v1.1 endpoints the collector uses
type mockSearchServer struct {
	*httptest.Server

	mu          sync.Mutex
	timeline    []twitter.Status
	throttle    int
	reset       time.Time
	searchCalls int
	statusCalls int
	maxIDs      []string
}

func newMockSearchServer(timeline []twitter.Status, reset time.Time) *mockSearchServer {
	m := &mockSearchServer{timeline: timeline, reset: reset}
	mux := http.NewServeMux()
	mux.HandleFunc("/search/tweets.json", m.handleSearch)
	mux.HandleFunc("/application/rate_limit_status.json", m.handleRateLimitStatus)
	m.Server = httptest.NewServer(mux)
	return m
}

func (m *mockSearchServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++

	if r.Header.Get("Authorization") != "Bearer test-token" {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errors":[{"code":89,"message":"Invalid or expired token."}]}`)
		return
	}

	maxID := r.URL.Query().Get("max_id")
	m.maxIDs = append(m.maxIDs, maxID)

	if m.throttle > 0 {
		m.throttle--
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`)
		return
	}

	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	var bound *int64
	if maxID != "" {
		v, err := strconv.ParseInt(maxID, 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		bound = &v
	}

	statuses := []map[string]interface{}{}
	for _, st := range m.timeline {
		if bound != nil && st.ID > *bound {
			continue
		}
		statuses = append(statuses, map[string]interface{}{
			"id":         st.ID,
			"id_str":     strconv.FormatInt(st.ID, 10),
			"created_at": st.CreatedAt.Format(twitter.TimeLayout),
			"text":       st.Text,
			"lang":       r.URL.Query().Get("lang"),
		})
		if len(statuses) == count {
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"statuses": statuses})
}

func (m *mockSearchServer) handleRateLimitStatus(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"resources":{
		"search":{"/search/tweets":{"limit":180,"remaining":0,"reset":%d}},
		"application":{"/application/rate_limit_status":{"limit":180,"remaining":179,"reset":%d}},
		"users":{"/users/show/:id":{"limit":900,"remaining":900,"reset":%d}}
	}}`, m.reset.Unix(), m.reset.Add(time.Minute).Unix(), m.reset.Add(-time.Hour).Unix())
}

func newEndToEndClient(t *testing.T, server *mockSearchServer) *twitter.Client {
	t.Helper()
	client, err := twitter.NewClient(&config.TwitterConfig{
		BaseURL:     server.URL,
		BearerToken: "test-token",
		Timeout:     5 * time.Second,
	}, nil, logger.NewTestLogger())
	require.NoError(t, err)
	return client
}

func TestEndToEndCollectAgainstHTTPEndpoint(t *testing.T) {
	server := newMockSearchServer(timeline(500, 20, 4), epoch.Add(2*time.Minute))
	defer server.Close()
	server.throttle = 1

	dir := t.TempDir()
	store, err := storage.NewManager(dir)
	require.NoError(t, err)

	clock := retry.NewFakeClock(epoch)
	s := New(newEndToEndClient(t, server), Options{
		PageSize:     5,
		ResetPadding: time.Second,
		Fallback:     &retry.ConstantBackoff{Delay: 10 * time.Second},
		Clock:        clock,
	}, logger.NewTestLogger())

	state, err := checkpoint.Reconstruct(store)
	require.NoError(t, err)
	progress := &Progress{}

	err = s.Run(context.Background(), Request{Target: 3, Language: "es"}, state, progress, store)
	require.NoError(t, err)

	// The first page is throttled once and retried after the search reset
	assert.Equal(t, []time.Duration{2*time.Minute + time.Second}, clock.Sleeps())
	assert.Equal(t, 1, server.statusCalls)
	assert.Equal(t, 1, progress.RateLimitWaits)

	// 500..481, every 4th id carries the marker: 500, 496 | 492, 488 | ...
	assert.Equal(t, 2, progress.Pages)
	assert.Equal(t, 10, state.AcceptedCount)
	assert.Equal(t, 3, progress.Useful)
	require.NotNil(t, state.Cursor)
	assert.Equal(t, int64(491), *state.Cursor)
	assert.Equal(t, []string{"", "", "495"}, server.maxIDs)

	// A restart rebuilds the same state from disk
	reloaded, err := checkpoint.Reconstruct(store)
	require.NoError(t, err)
	assert.Equal(t, state.AcceptedCount, reloaded.AcceptedCount)
	assert.Equal(t, *state.Cursor, *reloaded.Cursor)
}

func TestEndToEndAuthFailureIsFatal(t *testing.T) {
	server := newMockSearchServer(timeline(50, 5, 1), epoch)
	defer server.Close()

	client, err := twitter.NewClient(&config.TwitterConfig{
		BaseURL:     server.URL,
		BearerToken: "wrong",
	}, nil, logger.NewTestLogger())
	require.NoError(t, err)

	s := New(client, Options{PageSize: 5, Clock: retry.NewFakeClock(epoch)}, logger.NewTestLogger())
	writer := &memoryWriter{}

	err = s.Run(context.Background(), Request{Target: 1, Language: "en"}, &checkpoint.State{}, &Progress{}, writer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid or expired token")
	assert.Empty(t, writer.batches)
	assert.Equal(t, 1, server.searchCalls)
	assert.Equal(t, 0, server.statusCalls)
}
