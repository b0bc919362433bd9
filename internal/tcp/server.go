/*
Package tcp implements the framed ingestion server: one goroutine per
producer connection, strict request/ack ordering within each connection,
no ordering guarantees across connections.
*/
package tcp

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/fluxgate/fluxgate/internal/store"
)

/*
Server accepts producer connections and ingests their framed records.  There
is no admission cap on concurrent connections; the accept loop never blocks
on handler work.
*/
type Server struct {
	// Enrich controls whether the handler computes the numeric summary
	// synchronously after each insert.  On by default.
	Enrich bool

	store store.Store
	ln    net.Listener

	mu     sync.Mutex
	closed bool
}

func NewServer(st store.Store) *Server {
	return &Server{Enrich: true, store: st}
}

// Listen binds the ingestion listener.  Serve must be called afterwards.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	s.ln = ln
	return nil
}

// Addr reports the bound address, useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

/*
Serve accepts connections until Shutdown closes the listener, spawning one
handler goroutine per connection.  It returns nil after a deliberate
shutdown.
*/
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		go s.handle(conn)
	}
}

/*
Shutdown stops accepting new connections.  In-flight handlers keep running
until their producers disconnect; existing connections are never force
closed.
*/
func (s *Server) Shutdown() {
	s.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()

	if alreadyClosed || s.ln == nil {
		return
	}
	if err := s.ln.Close(); err != nil {
		log.Printf("[tcp] close listener: %v", err)
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
