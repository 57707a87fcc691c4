// Package api serves the synchronous chat surfaces: a JSON POST endpoint,
// a WebSocket endpoint, and a built-in chat page.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smartworkx/minion/internal/events"
)

// chatRequest is the POST /chat and WebSocket inbound payload.
type chatRequest struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

// Server exposes the dispatcher over HTTP.
type Server struct {
	dispatcher *events.Dispatcher
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// NewServer creates the API server listening on addr.
func NewServer(addr string, dispatcher *events.Dispatcher) *Server {
	s := &Server{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // agent responses can take minutes
	}
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	slog.Info("API server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains connections and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(chatHTML))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Sender == "" {
		req.Sender = "user"
	}

	response, err := s.dispatcher.Dispatch(r.Context(), events.New("chat.message", "api", map[string]any{
		"content": req.Content,
		"sender":  req.Sender,
	}))
	if err != nil {
		slog.Error("Chat request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	slog.Info("WebSocket client connected", "remote", conn.RemoteAddr())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Info("WebSocket client disconnected", "remote", conn.RemoteAddr())
			return
		}

		var req chatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			// Plain text is treated as a bare user message.
			req = chatRequest{Content: string(data), Sender: "user"}
		}

		response, err := s.dispatcher.Dispatch(r.Context(), events.New("chat.message", "websocket", map[string]any{
			"content": req.Content,
			"sender":  req.Sender,
		}))
		if err != nil {
			slog.Error("WebSocket chat failed", "error", err)
			continue
		}
		if response == "" {
			continue
		}

		out, _ := json.Marshal(map[string]string{"content": response, "sender": "agent"})
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			slog.Warn("WebSocket write failed", "error", err)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
