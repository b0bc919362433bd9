package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Time allowed to write a message to the peer.
const writeWait = 10 * time.Second

/*
upgrader is used to establish a WebSocket connection.  It is safe for
concurrent use.
*/
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

/*
handleWS forwards change events over a WebSocket as text frames.  The reader
goroutine only detects the peer closing; events flow one way.
*/
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sub := s.registry.Register()

	go func() {
		defer s.registry.Unregister(sub)
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer conn.Close()

		for raw := range sub.C {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		}

		// Registry closed the channel: tell the peer we are done.
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.CloseMessage, nil)
	}()
}
