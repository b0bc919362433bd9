/*
Package httpapi exposes the change-event broadcast to browser-style clients
over Server-Sent Events and WebSocket.  Both transports drain a registry
subscriber and forward its messages downstream; neither interprets event
contents.
*/
package httpapi

import (
	"net/http"

	"github.com/fluxgate/fluxgate/internal/pubsub"
)

type Server struct {
	registry *pubsub.Registry
}

func NewServer(reg *pubsub.Registry) *Server {
	return &Server{registry: reg}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
