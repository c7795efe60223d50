package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rpgflow/internal/config"
	"github.com/leapstack-labs/rpgflow/internal/testutil"
)

var parserArtifact = config.Artifact{Group: "com.strumenta", Name: "rpg-parser", Version: "2.1.52"}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c := NewClient(config.RegistryConfig{URL: url, User: "bot", Token: "tkn"}, testutil.NewTestLogger(t))
	c.InitialInterval = time.Millisecond
	c.MaxRetries = 3
	return c
}

func TestClient_URL(t *testing.T) {
	c := &Client{BaseURL: "https://maven.pkg.github.com/Strumenta/rpg-parser/"}
	assert.Equal(t,
		"https://maven.pkg.github.com/Strumenta/rpg-parser/com/strumenta/rpg-parser/2.1.52/rpg-parser-2.1.52.jar",
		c.URL(parserArtifact))
	assert.Equal(t, "rpg-parser-2.1.52.jar", FileName(parserArtifact))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(config.RegistryConfig{}, nil)
	assert.Equal(t, config.DefaultRegistryURL, c.BaseURL)
	assert.True(t, c.Credentials.Empty())
	assert.NotNil(t, c.Logger)
}

func TestClient_Fetch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bot" || pass != "tkn" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/com/strumenta/rpg-parser/2.1.52/rpg-parser-2.1.52.jar", r.URL.Path)
		_, _ = w.Write([]byte("PK jar bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "lib")
	path, err := newTestClient(t, srv.URL).Fetch(context.Background(), parserArtifact, dest)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "rpg-parser-2.1.52.jar"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK jar bytes", string(data))
	assert.Equal(t, int32(1), calls.Load())

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestClient_FetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Fetch(context.Background(), parserArtifact, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_FetchGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Fetch(context.Background(), parserArtifact, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(4), calls.Load(), "one attempt plus three retries")
}

func TestClient_FetchFailsFast(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"not found", http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			dest := t.TempDir()
			_, err := newTestClient(t, srv.URL).Fetch(context.Background(), parserArtifact, dest)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int32(1), calls.Load())
			assert.NoFileExists(t, filepath.Join(dest, FileName(parserArtifact)))
		})
	}
}

func TestClient_FetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv.URL).Fetch(ctx, parserArtifact, t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_NoCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.False(t, ok)
		_, _ = w.Write([]byte("public"))
	}))
	defer srv.Close()

	c := NewClient(config.RegistryConfig{URL: srv.URL}, nil)
	_, err := c.Fetch(context.Background(), parserArtifact, t.TempDir())
	require.NoError(t, err)
}
