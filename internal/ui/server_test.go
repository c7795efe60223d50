package ui

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rpgflow/internal/config"
	"github.com/leapstack-labs/rpgflow/internal/pipeline"
	"github.com/leapstack-labs/rpgflow/internal/testutil"
)

func setupServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("..", "..", "pkg", "rpg", "testdata", "minimal.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "minimal.yaml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"#type": "Subroutine"}`), 0o644))

	eng := pipeline.New(pipeline.Options{Diagram: config.DiagramConfig{EntryCall: true}}, nil, nil, nil)
	s := NewServer(Config{Engine: eng, InputsDir: dir, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, s.Rebuild(context.Background()))
	return s, dir
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Routes(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/diagrams/minimal.puml", http.StatusOK, "minimal -> ORDERS : DELETE(ORDERS)"},
		{"/diagrams/broken.puml", http.StatusUnprocessableEntity, "invalid input model"},
		{"/diagrams/missing.puml", http.StatusNotFound, ""},
		{"/", http.StatusOK, `<a href="/diagrams/minimal.puml">minimal</a>`},
		{"/", http.StatusOK, `data-init="@get('/events')"`},
		{"/", http.StatusOK, `<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, h, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestServer_ListDiagrams(t *testing.T) {
	s, _ := setupServer(t)

	rec := get(t, s.Handler(), "/api/diagrams")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []Diagram
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "broken.puml", got[0].Name)
	assert.NotEmpty(t, got[0].Error)
	assert.Equal(t, "minimal.puml", got[1].Name)
	assert.Equal(t, "minimal", got[1].Program)
	assert.Equal(t, 3, got[1].Entities)
	assert.Empty(t, got[1].Error)
}

func TestServer_NestedAndDuplicateInputs(t *testing.T) {
	s, dir := setupServer(t)
	data, err := os.ReadFile(filepath.Join(dir, "minimal.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "minimal.yaml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "minimal.yml"), data, 0o644))
	require.NoError(t, s.Rebuild(context.Background()))

	names := make(map[string]string)
	for _, d := range s.Diagrams() {
		names[d.Name] = d.Error
	}
	require.Len(t, names, 4)
	assert.Contains(t, names, "minimal.puml")
	assert.Contains(t, names, "a/minimal.puml")
	dup := filepath.ToSlash(filepath.Join(dir, "minimal.yml"))
	require.Contains(t, names, dup)
	assert.Contains(t, names[dup], "duplicate output")

	h := s.Handler()
	rec := get(t, h, "/diagrams/a/minimal.puml")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "minimal -> ORDERS : DELETE(ORDERS)")
	assert.Contains(t, get(t, h, "/").Body.String(), `<a href="/diagrams/a/minimal.puml">minimal</a>`)
}

func TestServer_Events(t *testing.T) {
	s, _ := setupServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))

	require.NoError(t, s.Rebuild(ctx))

	reader := bufio.NewReader(resp.Body)
	var event []string
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line == "" && len(event) > 0 {
			break
		}
		if line != "" {
			event = append(event, line)
		}
	}
	require.NotEmpty(t, event)
	assert.Equal(t, "event: datastar-patch-elements", event[0])
	body := strings.Join(event, "\n")
	assert.Contains(t, body, `data: elements <ul id="diagrams">`)
	assert.Contains(t, body, `<a href="/diagrams/minimal.puml">minimal</a>`)
}

func TestServer_WatchRebuilds(t *testing.T) {
	s, dir := setupServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.watchFiles(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	ch, unsubscribe := s.events.subscribe()
	defer unsubscribe()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	data, err := os.ReadFile(filepath.Join(dir, "minimal.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.yaml"), data, 0o644))

	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("no rebuild after file change")
	}
	_, ok := s.diagram("second.puml")
	assert.True(t, ok)
}

func TestBroadcaster(t *testing.T) {
	b := newBroadcaster()
	ch, unsubscribe := b.subscribe()
	assert.Equal(t, 1, b.count())

	b.broadcast()
	b.broadcast() // coalesced, never blocks
	<-ch

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, b.count())
	b.broadcast()
}
