package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogScraper/internal/domain"
)

func TestFetchSendsUserAgentAndParses(t *testing.T) {
	t.Parallel()

	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<html><body><h1>Hello</h1></body></html>`))
	}))
	defer server.Close()

	f := New(server.Client(), "", 0, nil)
	doc, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "Hello", doc.Find("h1").Text())
}

func TestFetchNon2xxIsNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := New(server.Client(), "test-agent", 0, nil)
	_, err := f.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestFetchTimeoutIsNetworkError(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := New(nil, "test-agent", 50*time.Millisecond, nil)
	_, err := f.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestFetchConnectionRefusedIsNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	f := New(nil, "test-agent", time.Second, nil)
	_, err := f.Fetch(context.Background(), addr)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestFetchTimeoutAppliesToInjectedClient(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	// server.Client() has no Timeout of its own.
	f := New(server.Client(), "test-agent", 50*time.Millisecond, nil)

	started := time.Now()
	_, err := f.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Less(t, time.Since(started), 5*time.Second)
}
