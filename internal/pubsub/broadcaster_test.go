package pubsub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fluxgate/fluxgate/internal/store"
)

// scriptedFeed replays a fixed sequence of events, then fails.
type scriptedFeed struct {
	events [][]byte
	next   int
	err    error
}

func (f *scriptedFeed) Next(ctx context.Context) ([]byte, error) {
	if f.next >= len(f.events) {
		return nil, f.err
	}
	ev := f.events[f.next]
	f.next++
	return ev, nil
}

func (f *scriptedFeed) Close(context.Context) error { return nil }

type feedOnlyStore struct {
	store.Store
	feed store.ChangeFeed
}

func (s feedOnlyStore) Watch(context.Context) (store.ChangeFeed, error) {
	return s.feed, nil
}

type captureRelay struct {
	published [][]byte
}

func (r *captureRelay) Publish(_ context.Context, raw []byte) error {
	r.published = append(r.published, raw)
	return nil
}

func TestBroadcasterPumpsFeedUntilFailure(t *testing.T) {
	feedErr := errors.New("store unreachable")
	feed := &scriptedFeed{
		events: [][]byte{[]byte(`{"n":1}`), []byte(`{"n":2}`), []byte(`{"n":3}`)},
		err:    feedErr,
	}

	reg := NewRegistry(8)
	sub := reg.Register()
	relay := &captureRelay{}

	b := NewBroadcaster(feedOnlyStore{feed: feed}, reg, relay)

	err := b.Run(context.Background())
	if !errors.Is(err, feedErr) {
		t.Fatalf("Run returned %v, want the feed error", err)
	}

	for i, want := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		select {
		case got := <-sub.C:
			if string(got) != want {
				t.Fatalf("event %d: got %q, want %q", i, got, want)
			}
		default:
			t.Fatalf("event %d never delivered", i)
		}
	}

	if len(relay.published) != 3 {
		t.Fatalf("relay saw %d events, want 3", len(relay.published))
	}
}

func TestBroadcasterStopsOnCancel(t *testing.T) {
	st := store.NewMemory()
	reg := NewRegistry(8)
	b := NewBroadcaster(st, reg, nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	sub := reg.Register()

	// Give Run a moment to open the change feed before mutating.
	time.Sleep(100 * time.Millisecond)

	if _, err := st.Insert(context.Background(), store.Document{"x": 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	select {
	case raw := <-sub.C:
		if len(raw) == 0 {
			t.Fatal("empty change event")
		}
	case <-time.After(time.Second):
		t.Fatal("no change event after insert")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcaster did not stop on cancel")
	}
}
