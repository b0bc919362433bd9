/*
Package reprocess re-derives summary fields for records the ingestion path
left unprocessed, in polled batches of bulk updates.
*/
package reprocess

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fluxgate/fluxgate/internal/enrich"
	"github.com/fluxgate/fluxgate/internal/store"
	"github.com/fluxgate/fluxgate/pkg/types"
)

type Worker struct {
	Store store.Store
	// Batch is the maximum number of documents per pass.
	Batch int64
	// Poll is how long to sleep when no unprocessed documents are found.
	Poll time.Duration
}

/*
Run polls until the context is cancelled or storage fails.  An empty pass
sleeps for the poll interval; a productive pass starts the next one
immediately.
*/
func (w *Worker) Run(ctx context.Context) error {
	for {
		n, err := w.RunOnce(ctx)
		if err != nil {
			return err
		}

		if n > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.Poll):
		}
	}
}

/*
RunOnce processes one batch of unprocessed documents and reports how many it
found.
*/
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	docs, err := w.Store.Find(ctx, store.Document{types.FieldProcessed: false}, w.Batch)
	if err != nil {
		return 0, fmt.Errorf("find unprocessed: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	ops := make([]store.UpdateOp, 0, len(docs))
	for _, doc := range docs {
		ops = append(ops, store.UpdateOp{
			Filter: store.Document{"_id": doc["_id"]},
			Set: store.Document{
				types.FieldProcessed: true,
				types.FieldUpdatedAt: now,
				types.FieldResult:    enrich.Summarize(doc),
			},
		})
	}

	modified, err := w.Store.BulkUpdate(ctx, ops)
	if err != nil {
		return 0, fmt.Errorf("bulk update: %w", err)
	}

	log.Printf("[reprocess] found %d document(s), modified %d", len(docs), modified)
	return len(docs), nil
}
