package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/notify"
	"github.com/aretw0/arbor/pkg/shadow"
	"github.com/go-chi/chi/v5"
)

// Inspector is the read side of an attached engine.
type Inspector interface {
	Render() (string, error)
	Snapshot() (*shadow.NodeSnapshot, error)
	Find(path string) (*shadow.NodeSnapshot, bool, error)
}

// Server exposes a live shadow tree over HTTP.
type Server struct {
	Inspector Inspector
	Hub       *notify.Hub
	Metrics   http.Handler
	Logger    *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithHub streams notifications broadcast on hub from /events.
func WithHub(hub *notify.Hub) Option {
	return func(s *Server) {
		s.Hub = hub
	}
}

// WithMetrics serves h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = l
	}
}

// NewHandler creates a new HTTP handler for the inspector.
func NewHandler(inspector Inspector, opts ...Option) http.Handler {
	server := &Server{
		Inspector: inspector,
		Logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/tree", server.GetTree)
	r.Get("/tree.json", server.GetTreeJSON)
	r.Get("/tree/mermaid", server.GetMermaid)
	r.Get("/node", server.GetNode)
	r.Get("/events", server.SubscribeEvents)
	if server.Metrics != nil {
		r.Handle("/metrics", server.Metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"app":     "arbor-http",
		"version": strings.TrimSpace(arbor.Version),
	})
}

// GetTree handles the GET /tree request with the canonical text form.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	out, err := s.Inspector.Render()
	if err != nil {
		s.fail(w, "Render", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, out)
}

// GetTreeJSON handles the GET /tree.json request.
func (s *Server) GetTreeJSON(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Inspector.Snapshot()
	if err != nil {
		s.fail(w, "Snapshot", err)
		return
	}
	writeJSON(w, snap)
}

// GetMermaid handles the GET /tree/mermaid request. The optional "changed"
// query lists comma separated paths to highlight.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Inspector.Snapshot()
	if err != nil {
		s.fail(w, "Snapshot", err)
		return
	}
	var overlay *graph.Overlay
	if changed := r.URL.Query().Get("changed"); changed != "" {
		overlay = &graph.Overlay{Changed: strings.Split(changed, ",")}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(snap, overlay))
}

// GetNode handles the GET /node?path= request.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "Missing path parameter", http.StatusBadRequest)
		return
	}
	node, ok, err := s.Inspector.Find(path)
	if err != nil {
		s.fail(w, "Find", err)
		return
	}
	if !ok {
		http.Error(w, fmt.Sprintf("No node at %s", path), http.StatusNotFound)
		return
	}
	writeJSON(w, node)
}

// SubscribeEvents handles the GET /events request (SSE). The optional "kind"
// query keeps only notifications of that kind.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "Event streaming not enabled", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	kind := notify.Kind(r.URL.Query().Get("kind"))
	ch, cancel := s.Hub.Subscribe()
	defer cancel()
	s.Logger.Info("SSE: Client subscribed", "kind", kind)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected")
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if kind != "" && n.Kind != kind {
				continue
			}
			data, err := json.Marshal(n)
			if err != nil {
				s.Logger.Error("SSE: Encode failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Kind, data)
			flusher.Flush()
		}
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrEngineClosed) {
		http.Error(w, "Engine closed", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
	s.Logger.Error(op+" failed", "error", err)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}
