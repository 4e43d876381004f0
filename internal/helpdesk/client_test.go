package helpdesk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/ratelimit"
)

func testClient(maxRetries int) *Client {
	return NewClient(config.ScrapingConfig{
		MaxRetries:     maxRetries,
		TimeoutSeconds: 5,
		UserAgent:      "caia-tuner-test/1.0",
	}, ratelimit.NewHostLimiter(time.Millisecond))
}

func TestFetchPageSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "caia-tuner-test/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := testClient(3).FetchPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
}

func TestFetchPageRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	body, err := testClient(3).FetchPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPageExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(2).FetchPage(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchPageContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(3).FetchPage(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckpointRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	cp := NewCheckpoint()
	cp.MarkDone("201")
	cp.MarkDone("202")
	cp.Collections = []Collection{{ID: "101", Slug: "atompay", Name: "AtomPay"}}
	require.NoError(t, cp.Save(path))

	loaded, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.True(t, loaded.IsDone("201"))
	assert.True(t, loaded.IsDone("202"))
	assert.False(t, loaded.IsDone("999"))
	assert.Len(t, loaded.Collections, 1)
	assert.NotEmpty(t, loaded.UpdatedAt)
}

func TestLoadCheckpointMissingFile(t *testing.T) {
	cp, err := LoadCheckpoint(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, cp.DoneIDs)
}
