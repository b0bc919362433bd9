package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Capacity of each in-memory change feed.  Events beyond it are dropped,
// which keeps emit non-blocking; real deployments use the MongoDB feed.
const memoryFeedBuffer = 1024

/*
Memory is an in-process Store used by tests and `--store memory` demo runs.
Documents keep their insertion order; change events are emitted in mutation
order, shaped like MongoDB change stream events.
*/
type Memory struct {
	mu    sync.Mutex
	seq   int
	order []string
	docs  map[string]Document
	feeds map[*memoryFeed]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		docs:  make(map[string]Document),
		feeds: make(map[*memoryFeed]struct{}),
	}
}

func (m *Memory) Insert(_ context.Context, doc Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := fmt.Sprintf("mem-%06d", m.seq)

	stored := copyDoc(doc)
	stored["_id"] = id
	m.docs[id] = stored
	m.order = append(m.order, id)

	m.emit("insert", id, stored)
	return id, nil
}

func (m *Memory) Update(_ context.Context, id string, set Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.docs[id]
	if !exists {
		// Deleted out from under the updater: a no-op, as with MongoDB.
		return nil
	}

	for k, v := range set {
		doc[k] = v
	}
	m.emit("update", id, doc)
	return nil
}

func (m *Memory) Find(_ context.Context, filter Document, limit int64) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var docs []Document
	for _, id := range m.order {
		if limit > 0 && int64(len(docs)) >= limit {
			break
		}
		if matches(m.docs[id], filter) {
			docs = append(docs, copyDoc(m.docs[id]))
		}
	}
	return docs, nil
}

func (m *Memory) BulkUpdate(_ context.Context, ops []UpdateOp) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var modified int64
	for _, op := range ops {
		for _, id := range m.order {
			if !matches(m.docs[id], op.Filter) {
				continue
			}
			for k, v := range op.Set {
				m.docs[id][k] = v
			}
			m.emit("update", id, m.docs[id])
			modified++
			break
		}
	}
	return modified, nil
}

func (m *Memory) Watch(_ context.Context) (ChangeFeed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := &memoryFeed{
		store:  m,
		events: make(chan []byte, memoryFeedBuffer),
	}
	m.feeds[f] = struct{}{}
	return f, nil
}

// emit serializes a change event and hands it to every open feed.  Called
// with the store lock held, so events reach each feed in mutation order.
func (m *Memory) emit(op, id string, doc Document) {
	raw, err := json.Marshal(Document{
		"operationType": op,
		"documentKey":   Document{"_id": id},
		"fullDocument":  copyDoc(doc),
	})
	if err != nil {
		return
	}

	for f := range m.feeds {
		select {
		case f.events <- raw:
		default:
		}
	}
}

func copyDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func matches(doc, filter Document) bool {
	for k, want := range filter {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

type memoryFeed struct {
	store  *Memory
	events chan []byte
}

func (f *memoryFeed) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case raw, ok := <-f.events:
		if !ok {
			return nil, errors.New("change feed closed")
		}
		return raw, nil
	}
}

func (f *memoryFeed) Close(_ context.Context) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	if _, open := f.store.feeds[f]; open {
		delete(f.store.feeds, f)
		close(f.events)
	}
	return nil
}
