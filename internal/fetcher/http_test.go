package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/yuutai-cli/internal/resilience"
)

type testRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
	})
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"id":1,"name":"alpha"}`))
	}))
	defer srv.Close()

	var rec testRecord
	err := newTestFetcher().GetJSON(context.Background(), srv.URL+"/data", &rec)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ID)
	assert.Equal(t, "alpha", rec.Name)
}

func TestGetJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var rec testRecord
	err := newTestFetcher().GetJSON(context.Background(), srv.URL, &rec)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestGetJSON_NoRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var rec testRecord
	err := newTestFetcher().GetJSON(context.Background(), srv.URL, &rec)
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDownloadToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("file content here"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "out.pdf")
	n, err := newTestFetcher().DownloadToFile(context.Background(), srv.URL+"/file", path, 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file content here", string(data))
	assert.NoFileExists(t, path+".part")
}

func TestDownloadToFile_DeclaredLengthOverLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 20)))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "big.pdf")
	n, err := newTestFetcher().DownloadToFile(context.Background(), srv.URL, path, 10)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Zero(t, n)
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+".part")
}

func TestDownloadToFile_StreamedOverLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flushing forces chunked encoding, so no Content-Length is sent.
		w.Write([]byte(strings.Repeat("x", 8)))
		w.(http.Flusher).Flush()
		w.Write([]byte(strings.Repeat("y", 8)))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "chunked.pdf")
	_, err := newTestFetcher().DownloadToFile(context.Background(), srv.URL, path, 10)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+".part")
}

func TestDownloadToFile_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "missing.pdf")
	_, err := newTestFetcher().DownloadToFile(context.Background(), srv.URL, path, 10)
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.NoFileExists(t, path)
}

func TestMinIntervalPacing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MinInterval: 50 * time.Millisecond})
	start := time.Now()
	for i := 0; i < 3; i++ {
		var v map[string]any
		require.NoError(t, f.GetJSON(context.Background(), srv.URL, &v))
	}
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestPacing_ContextCancelled(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{MinInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var v map[string]any
	err := f.GetJSON(ctx, "http://127.0.0.1:0", &v)
	assert.Error(t, err)
}

func TestNewHTTPFetcher_Defaults(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})
	assert.Equal(t, 60*time.Second, f.client.Timeout)
	assert.Equal(t, "Yuutai Disclosure Client/1.0", f.opts.UserAgent)
	assert.Nil(t, f.limiter)
}
