package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// sseStream writes server-sent events. Headers go out lazily on the first
// event so request-level failures can still produce a JSON error status.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newSSEStream(w http.ResponseWriter) (*sseStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	return &sseStream{w: w, flusher: flusher}, nil
}

func (s *sseStream) begin() {
	if s.started {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}

func (s *sseStream) send(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal sse event")
		return
	}
	s.begin()
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	s.flusher.Flush()
}

// done writes the stream terminator. Every successfully completed turn ends
// with it, even when no events were sent.
func (s *sseStream) done() {
	s.begin()
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}
