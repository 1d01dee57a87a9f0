package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calegann/chatpanel/internal/export"
	"github.com/calegann/chatpanel/internal/models"
	"github.com/calegann/chatpanel/internal/protocol"
)

// ChatStore provides the sessions served by the export endpoint.
type ChatStore interface {
	Session(id string) (models.ChatSession, bool)
}

// Server is the local HTTP host for the panel. It owns the listener and the
// route table; event fan-out lives in the Hub.
type Server struct {
	srv      *http.Server
	hub      *Hub
	commands CommandHandler
	store    ChatStore
	logger   *slog.Logger
}

// New creates a new Server listening on addr.
func New(addr string, hub *Hub, commands CommandHandler, store ChatStore, logger *slog.Logger) *Server {
	s := &Server{
		hub:      hub,
		commands: commands,
		store:    store,
		logger:   logger.With(slog.String("module", "server")),
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("GET /ws", s.hub.HandleWS(s.commands))
	mux.Handle("GET /events", s.hub.SSEHandler())
	mux.HandleFunc("POST /command", s.handleCommand)
	mux.HandleFunc("GET /chats/{id}/export", s.handleExport)

	return mux
}

// Handler returns the root handler, mainly so tests can serve it directly.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start begins serving and blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("Server starting", slog.String("addr", s.srv.Addr))
	return s.srv.ListenAndServe()
}

// Shutdown drains the server. The hub goes first: SSE sessions are ordinary
// long-lived requests, so the listener cannot drain until they are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.hub.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown hub", slog.String(errLoggerKey, err.Error()))
	}
	return s.srv.Shutdown(ctx)
}

// Close force-closes the listener and any open connections. It is the
// fallback when Shutdown exceeds its deadline.
func (s *Server) Close() error {
	return s.srv.Close()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCommand accepts a single command and dispatches it. The response is
// always 202: command results arrive as events on the outbound transports,
// never in the HTTP response.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd protocol.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if cmd.Command == "" {
		writeError(w, http.StatusBadRequest, "command is required")
		return
	}

	s.commands.Handle(cmd)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	chat, ok := s.store.Session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "chat not found: "+id)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "md"
	}
	exporter, err := export.NewExporter(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportFilename(chat, exporter.Extension())))

	if err := exporter.Export(chat, w); err != nil {
		// Headers are gone by now; the truncated body is all we can signal.
		s.logger.Error("Failed to export chat",
			slog.String(errLoggerKey, err.Error()), slog.String("chatId", id))
	}
}

func exportFilename(chat models.ChatSession, ext string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, chat.Title)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = chat.ID
	}
	return slug + "." + ext
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
