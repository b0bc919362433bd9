/*
Package types declares the wire-level types and record metadata fields shared
by telemetry producers and the ingestion server.
*/
package types

import "fmt"

// Ack statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metadata fields the pipeline attaches to stored records.  Producers and the
// server agree on these names, so they live here rather than in the storage
// layer.
const (
	// Stamped by the producer when the record is built.
	FieldIngestedAt = "_ingestedAt"
	// Stamped by the server before the record is persisted.
	FieldReceivedAt = "_receivedAt"

	// Enrichment bookkeeping.
	FieldProcessed   = "_processed"
	FieldProcessedAt = "_processedAt"
	FieldUpdatedAt   = "_updatedAt"
	FieldResult      = "_processingResult"
)

/*
Ack is the server's response to a single ingested record.  Exactly one Ack is
sent per received frame, in the order the frames arrived on the connection.
*/
type Ack struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// OK builds a success Ack carrying the storage-assigned identifier.
func OK(id string) Ack {
	return Ack{Status: StatusOK, ID: id}
}

// Errorf builds an error Ack with a formatted reason.
func Errorf(format string, args ...any) Ack {
	return Ack{Status: StatusError, Reason: fmt.Sprintf(format, args...)}
}
