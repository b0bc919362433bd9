package pubsub

import (
	"context"
	"fmt"
	"log"

	"github.com/fluxgate/fluxgate/internal/store"
)

/*
Relay receives every change event in addition to the registry subscribers.
Used to bridge events onto a message broker for backend consumers.  A relay
failure is logged and skipped; it never stops the broadcast loop.
*/
type Relay interface {
	Publish(ctx context.Context, raw []byte) error
}

/*
Broadcaster consumes the storage change feed and pushes each serialized event
into every registered subscriber channel.
*/
type Broadcaster struct {
	store    store.Store
	registry *Registry
	relay    Relay
}

// NewBroadcaster wires the broadcaster to its collaborators.  relay may be
// nil when no broker is configured.
func NewBroadcaster(st store.Store, reg *Registry, relay Relay) *Broadcaster {
	return &Broadcaster{store: st, registry: reg, relay: relay}
}

/*
Run opens the change feed and broadcasts events until the feed breaks or the
context is cancelled.  It does not retry a broken feed: notifications stop,
but ingestion keeps running.
*/
func (b *Broadcaster) Run(ctx context.Context) error {
	feed, err := b.store.Watch(ctx)
	if err != nil {
		return fmt.Errorf("open change feed: %w", err)
	}
	defer feed.Close(context.Background())

	log.Printf("[watch] change feed open")

	for {
		raw, err := feed.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[watch] change feed failed: %v", err)
			return err
		}

		b.registry.Broadcast(raw)

		if b.relay != nil {
			if err := b.relay.Publish(ctx, raw); err != nil {
				log.Printf("[mq] relay publish failed: %v", err)
			}
		}
	}
}
