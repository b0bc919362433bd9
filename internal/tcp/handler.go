package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"time"

	"github.com/fluxgate/fluxgate/internal/enrich"
	"github.com/fluxgate/fluxgate/internal/store"
	"github.com/fluxgate/fluxgate/pkg/frame"
	"github.com/fluxgate/fluxgate/pkg/types"
)

/*
handle owns one connection's lifecycle: read a frame, ingest its record,
answer with exactly one ack, repeat.  Per-record failures are answered on the
wire and never tear down the connection; only transport faults do.
*/
func (s *Server) handle(conn net.Conn) {
	peer := conn.RemoteAddr()
	log.Printf("[tcp] accepted connection from %s", peer)
	defer conn.Close()

	for {
		payload, err := frame.Read(conn)
		if err != nil {
			switch {
			case errors.Is(err, frame.ErrClosed):
				log.Printf("[tcp] %s closed connection", peer)
			case errors.Is(err, frame.ErrTruncated):
				log.Printf("[tcp] %s dropped mid-frame", peer)
			default:
				log.Printf("[tcp] read from %s failed: %v", peer, err)
			}
			return
		}

		if err := frame.WriteJSON(conn, s.ingest(payload)); err != nil {
			log.Printf("[tcp] write ack to %s failed: %v", peer, err)
			return
		}
	}
}

/*
ingest parses one record, persists it, and optionally attaches the numeric
summary.  Every outcome maps to an ack; nothing here can fail the handler.
*/
func (s *Server) ingest(payload []byte) types.Ack {
	var doc store.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return types.Errorf("invalid json: %v", err)
	}

	doc[types.FieldReceivedAt] = time.Now().UTC().Format(time.RFC3339Nano)
	doc[types.FieldProcessed] = false

	ctx := context.Background()

	id, err := s.store.Insert(ctx, doc)
	if err != nil {
		return types.Errorf("insert: %v", err)
	}

	if s.Enrich {
		err := s.store.Update(ctx, id, store.Document{
			types.FieldProcessed:   true,
			types.FieldProcessedAt: time.Now().UTC().Format(time.RFC3339Nano),
			types.FieldResult:      enrich.Summarize(doc),
		})
		if err != nil {
			// The record stays stored but unprocessed; the reprocessor
			// picks it up later.
			log.Printf("[tcp] enrichment update for %s failed: %v", id, err)
			return types.Errorf("update: %v", err)
		}
	}

	return types.OK(id)
}
