// Package server exposes the ordering agent over HTTP: a server-sent-events
// chat endpoint, a session snapshot endpoint, and a health probe.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/zaykahq/ordering-agent/agent/contract"
	orchestratorx "github.com/zaykahq/ordering-agent/agent/orchestrator"
	statex "github.com/zaykahq/ordering-agent/agent/state"
)

const maxRequestBody = 1 << 20

type Config struct {
	Port            int           `default:"8080"`
	AllowedOrigins  []string      `split_words:"true" default:"*,http://localhost:3000"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// ChatService is the slice of the orchestrator the gateway depends on.
type ChatService interface {
	HandleMessage(ctx context.Context, req orchestratorx.Request, emit orchestratorx.EmitFunc) error
	Snapshot(ctx context.Context, sessionID string) (*statex.SessionState, error)
}

type Server struct {
	cfg   Config
	chats ChatService
	http  *http.Server
}

func New(cfg Config, chats ChatService) *Server {
	s := &Server{cfg: cfg, chats: chats}
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.Handler(),
	}
	return s
}

// Handler builds the full route table with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleHealth)
	mux.HandleFunc("POST /api/chats/orders", s.handleChatOrders)
	mux.HandleFunc("GET /api/chats/state", s.handleState)
	return corsMiddleware(s.cfg.AllowedOrigins, mux)
}

func (s *Server) ListenAndServe() error {
	log.Info().Int("port", s.cfg.Port).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

type chatRequest struct {
	SessionID      string `json:"session_id"`
	UserMessage    string `json:"user_message"`
	RestaurantName string `json:"restaurant_name"`
	Subdomain      string `json:"subdomain"`
}

// aiMessageEvent is the wire shape of one streamed assistant reply.
type aiMessageEvent struct {
	Type      string               `json:"type"`
	Content   string               `json:"content"`
	ToolCalls []contractx.ToolCall `json:"tool_calls,omitempty"`
}

func (s *Server) handleChatOrders(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	stream, err := newSSEStream(w)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	err = s.chats.HandleMessage(r.Context(), orchestratorx.Request{
		SessionID:      req.SessionID,
		UserMessage:    req.UserMessage,
		RestaurantName: req.RestaurantName,
		Subdomain:      req.Subdomain,
	}, func(reply orchestratorx.Reply) {
		stream.send(aiMessageEvent{
			Type:      "AIMessage",
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})
	})
	if err != nil {
		if !stream.started {
			writeJSONError(w, statusFor(err), err.Error())
			return
		}
		// The stream is already open; the missing terminator tells the
		// client the turn ended abnormally.
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("chat turn failed mid-stream")
		return
	}

	stream.done()
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	st, err := s.chats.Snapshot(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, orchestratorx.ErrInvalidSession):
			writeJSONError(w, http.StatusBadRequest, "session_id query parameter is required")
		case errors.Is(err, statex.ErrStateNotFound):
			writeJSONError(w, http.StatusNotFound, "session not found")
		default:
			log.Error().Err(err).Str("session_id", sessionID).Msg("state lookup failed")
			writeJSONError(w, http.StatusInternalServerError, "failed to load session state")
		}
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "ordering agent is running",
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestratorx.ErrInvalidSession),
		errors.Is(err, orchestratorx.ErrInvalidMessage),
		errors.Is(err, orchestratorx.ErrInvalidRestaurant),
		errors.Is(err, orchestratorx.ErrInvalidSubdomain):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
