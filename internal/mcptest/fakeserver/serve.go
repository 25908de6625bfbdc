package fakeserver

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SessionID is the session identifier the streamable handler hands out.
const SessionID = "fake-session-1"

// Handler returns an http.Handler speaking the streamable HTTP protocol:
// JSON-RPC over POST with direct JSON responses (or an inline event stream
// when stream-realism preludes are configured), plus DELETE for session
// termination. Mount it with httptest.NewServer in tests.
func Handler(cfg Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlePost(cfg, w, r)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func handlePost(cfg Config, w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	w.Header().Set("Mcp-Session-Id", SessionID)

	resp := cfg.respond(req)
	if resp == nil {
		// Notification: accepted, no body.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	preludes := cfg.preludes()
	if len(preludes) > 0 {
		// Multiple messages need an inline event stream.
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, msg := range preludes {
			fmt.Fprintf(w, "data: %s\n\n", msg)
		}
		data, _ := json.Marshal(resp)
		fmt.Fprintf(w, "data: %s\n\n", data)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// SSEServer is the legacy HTTP+SSE variant of the fake server: a GET holds
// the event stream, the endpoint event announces the POST path, and
// responses are pushed onto the stream. Supports a single stream consumer.
type SSEServer struct {
	cfg    Config
	events chan []byte
}

// NewSSEServer creates a legacy HTTP+SSE fake server.
func NewSSEServer(cfg Config) *SSEServer {
	return &SSEServer{
		cfg:    cfg,
		events: make(chan []byte, 16),
	}
}

// Handler returns the http.Handler serving the event stream (GET) and the
// message endpoint (POST).
func (s *SSEServer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleStream(w, r)
		case http.MethodPost:
			s.handleMessage(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *SSEServer) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, "event: endpoint\ndata: /messages\n\n")
	flusher.Flush()

	for {
		select {
		case msg := <-s.events:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *SSEServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	for _, msg := range s.cfg.preludes() {
		s.events <- msg
	}

	if resp := s.cfg.respond(req); resp != nil {
		data, _ := json.Marshal(resp)
		s.events <- data
	}

	w.WriteHeader(http.StatusAccepted)
}
