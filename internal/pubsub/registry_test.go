package pubsub

import (
	"fmt"
	"sync"
	"testing"
)

func TestBroadcastFanOut(t *testing.T) {
	reg := NewRegistry(8)

	const k = 5
	subs := make([]*Subscriber, k)
	for i := range subs {
		subs[i] = reg.Register()
	}

	msg := []byte(`{"operationType":"insert"}`)
	reg.Broadcast(msg)

	for i, s := range subs {
		select {
		case got := <-s.C:
			if string(got) != string(msg) {
				t.Fatalf("subscriber %d got %q, want %q", i, got, msg)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestBroadcastDropsOnFullChannel(t *testing.T) {
	reg := NewRegistry(1)

	slow := reg.Register()
	fast := reg.Register()

	// Fill the slow subscriber before broadcasting.
	slow.C <- []byte("backlog")

	reg.Broadcast([]byte("update"))

	if got := <-fast.C; string(got) != "update" {
		t.Fatalf("fast subscriber got %q, want update", got)
	}
	if got := <-slow.C; string(got) != "backlog" {
		t.Fatalf("slow subscriber got %q, want its backlog untouched", got)
	}
	select {
	case got := <-slow.C:
		t.Fatalf("slow subscriber got %q, want the broadcast dropped", got)
	default:
	}

	if reg.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", reg.Dropped())
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	reg := NewRegistry(1)
	s := reg.Register()

	reg.Unregister(s)
	reg.Unregister(s)

	if reg.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", reg.Len())
	}
	if _, open := <-s.C; open {
		t.Fatal("channel still open after Unregister")
	}

	// A broadcast after removal must not reach or panic on the closed
	// channel.
	reg.Broadcast([]byte("late"))
}

func TestConcurrentRegisterBroadcastUnregister(t *testing.T) {
	reg := NewRegistry(4)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := reg.Register()
				reg.Broadcast(fmt.Appendf(nil, "msg-%d-%d", i, j))
				reg.Unregister(s)
			}
		}(i)
	}
	wg.Wait()

	if reg.Len() != 0 {
		t.Fatalf("Len() = %d after all unregistered, want 0", reg.Len())
	}
}
