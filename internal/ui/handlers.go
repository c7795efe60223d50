package ui

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"
)

// datastarScript is the client runtime that applies patches sent on /events.
const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

var templates = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>rpgflow preview</title>
<script type="module" src="` + datastarScript + `"></script>
</head>
<body data-init="@get('/events')">
<h1>Diagrams</h1>
{{template "list" .}}
</body>
</html>
{{define "list"}}<ul id="diagrams">
{{if not .}}<li>No inputs found.</li>
{{end}}{{range .}}<li>
{{if .Error}}<strong>{{.Name}}</strong>: <code>{{.Error}}</code>
{{else}}<a href="/diagrams/{{.Name}}">{{.Program}}</a> ({{.Entities}} participants, {{.Statements}} statements)
{{end}}</li>
{{end}}</ul>{{end}}
`))

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "index", s.Diagrams()); err != nil {
		s.logger.Error("failed to render index", "error", err)
	}
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(s.Diagrams())
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	d, ok := s.diagram(chi.URLParam(r, "*"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if d.Error != "" {
		http.Error(w, d.Error, http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(d.text))
}

// handleEvents is the long-lived SSE endpoint of the index page. After every
// rebuild it patches the diagram list in place.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates, unsubscribe := s.events.subscribe()
	defer unsubscribe()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := s.sendList(sse); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func (s *Server) sendList(sse *datastar.ServerSentEventGenerator) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "list", s.Diagrams()); err != nil {
		return err
	}
	return sse.PatchElements(buf.String())
}
