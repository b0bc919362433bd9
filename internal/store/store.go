/*
Package store defines the document storage the ingestion pipeline writes to
and the change feed the notification side consumes.

The pipeline depends only on the operations below, not on any particular
store's query language.  Two implementations exist: MongoDB (the production
backend, change feed via change streams) and an in-memory store used by tests
and demo runs.
*/
package store

import "context"

// Document is one telemetry record: an open mapping from field names to
// JSON-compatible values.  The pipeline treats its contents as opaque apart
// from the metadata fields it attaches itself.
type Document = map[string]any

// UpdateOp pairs a filter with the fields to set on every matching document.
type UpdateOp struct {
	Filter Document
	Set    Document
}

/*
ChangeFeed is a blocking, ordered sequence of change events.  Events arrive in
the order the store emits them; the feed never reorders or deduplicates.
*/
type ChangeFeed interface {
	// Next blocks until the next event is available and returns it
	// serialized as JSON text.  It returns an error when the feed breaks or
	// the context is cancelled.
	Next(ctx context.Context) ([]byte, error)

	Close(ctx context.Context) error
}

/*
Store is the storage collaborator.  Every operation is individually atomic
and safe for concurrent use; the pipeline adds no locking of its own around
them.
*/
type Store interface {
	// Insert persists a new document and returns its assigned identifier.
	Insert(ctx context.Context, doc Document) (string, error)

	// Update sets fields on the document with the given identifier.
	// Updating a document that no longer exists is a no-op, not an error.
	Update(ctx context.Context, id string, set Document) error

	// Find returns up to limit documents matching the filter by field
	// equality.  A limit of 0 means no limit.
	Find(ctx context.Context, filter Document, limit int64) ([]Document, error)

	// BulkUpdate applies every operation and reports how many documents
	// were modified.
	BulkUpdate(ctx context.Context, ops []UpdateOp) (int64, error)

	// Watch opens a change feed over the stored document set.
	Watch(ctx context.Context) (ChangeFeed, error)
}
