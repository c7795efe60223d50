// Package ui serves a live preview of the diagrams of an inputs directory.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/rpgflow/internal/pipeline"
)

// debounceDelay groups bursts of file events into one rebuild.
const debounceDelay = 100 * time.Millisecond

// Diagram is one previewed input. Name is its output path relative to the
// output directory, with forward slashes.
type Diagram struct {
	Name       string    `json:"name"`
	Input      string    `json:"input"`
	Program    string    `json:"program"`
	Entities   int       `json:"entities"`
	Statements int       `json:"statements"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`

	text string
}

// Config holds configuration for the preview server.
type Config struct {
	Engine    *pipeline.Engine
	InputsDir string
	Port      int
	Watch     bool
	Logger    *slog.Logger
}

// Server renders diagrams in memory and serves them over HTTP.
type Server struct {
	engine    *pipeline.Engine
	inputsDir string
	port      int
	watch     bool
	logger    *slog.Logger
	events    *broadcaster

	mu       sync.RWMutex
	diagrams map[string]*Diagram
}

// NewServer creates a new preview server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		engine:    cfg.Engine,
		inputsDir: cfg.InputsDir,
		port:      cfg.Port,
		watch:     cfg.Watch,
		logger:    logger,
		events:    newBroadcaster(),
		diagrams:  make(map[string]*Diagram),
	}
}

// Rebuild renders every input of the inputs directory and replaces the
// served set. Inputs that fail keep an entry carrying the error. An input
// whose name is taken by an earlier one is listed under its own input path
// with a duplicate output error.
func (s *Server) Rebuild(ctx context.Context) error {
	inputs, err := pipeline.Discover(s.inputsDir, s.engine.ParserEnabled())
	if err != nil {
		return fmt.Errorf("failed to discover inputs: %w", err)
	}

	next := make(map[string]*Diagram, len(inputs))
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := &Diagram{
			Name:      filepath.ToSlash(pipeline.OutputPath(s.inputsDir, input)),
			Input:     input,
			Program:   pipeline.ProgramName(input),
			UpdatedAt: time.Now().UTC(),
		}
		if first, ok := next[d.Name]; ok {
			d.Error = fmt.Errorf("%w: %s and %s both render to %s",
				pipeline.ErrDuplicateOutput, first.Input, input, d.Name).Error()
			d.Name = filepath.ToSlash(input)
			s.logger.Warn("preview render failed", "input", input, "error", d.Error)
			next[d.Name] = d
			continue
		}
		text, res, err := s.engine.Diagram(ctx, input)
		if err != nil {
			d.Error = err.Error()
			s.logger.Warn("preview render failed", "input", input, "error", err)
		} else {
			d.text = text
			d.Entities = res.Entities
			d.Statements = res.Statements
		}
		next[d.Name] = d
	}

	s.mu.Lock()
	s.diagrams = next
	s.mu.Unlock()

	s.logger.Debug("preview rebuilt", "diagrams", len(next))
	s.events.broadcast()
	return nil
}

// Diagrams returns the served diagrams sorted by name.
func (s *Server) Diagrams() []Diagram {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Diagram, 0, len(s.diagrams))
	for _, d := range s.diagrams {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Server) diagram(name string) (*Diagram, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.diagrams[name]
	return d, ok
}

// Handler returns the HTTP routes of the preview.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Compress(5, "text/html", "application/json", "text/plain"),
	)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/events", s.handleEvents)
	r.Route("/api", func(r chi.Router) {
		r.Get("/diagrams", s.handleList)
	})
	r.Get("/diagrams/*", s.handleDiagram)
	return r
}

// Serve renders the inputs, starts the server and blocks until the context
// is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Rebuild(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting preview server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down preview server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchFiles rebuilds the preview when inputs change.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, s.inputsDir); err != nil {
		s.logger.Error("failed to watch inputs directory", "error", err)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDirRecursive(watcher, event.Name)
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !pipeline.IsASTExport(event.Name) && !pipeline.IsSource(event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.logger.Debug("input changed, rebuilding", "file", name)
				if err := s.Rebuild(ctx); err != nil && ctx.Err() == nil {
					s.logger.Error("rebuild failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
