package httpapi

import (
	"fmt"
	"net/http"
)

/*
handleEvents streams change events as Server-Sent Events: one `data:` line
per event, terminated by a blank line.  The subscriber registered for this
request is destroyed when the client disconnects.
*/
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.registry.Register()
	defer s.registry.Unregister(sub)

	// Initial comment confirms the stream is open before any event arrives.
	fmt.Fprint(w, ": connected\n\n")
	fl.Flush()

	for {
		select {
		case <-r.Context().Done():
			return

		case raw, open := <-sub.C:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", raw)
			fl.Flush()
		}
	}
}
