package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
)

func receive(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestMemoryBrokerPublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe("c101")
	other := b.Subscribe("r101")
	if err := b.Publish(context.Background(), "c101", Event{Type: TypeSearchStarted, Cost: 3}); err != nil {
		t.Fatal(err)
	}
	if got := receive(t, ch); got.Type != TypeSearchStarted || got.Cost != 3 {
		t.Fatalf("got %+v", got)
	}
	select {
	case evt := <-other:
		t.Fatalf("event leaked to other instance: %+v", evt)
	default:
	}
	b.Unsubscribe("c101", ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	b.Unsubscribe("c101", ch)
}

func TestRedisBrokerRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBroker("redis://" + mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	ch := b.Subscribe("c101")
	evt := Event{Type: TypeSearchFinished, RunID: "run-1", Instance: "c101", Cost: 828.94, Routes: 10}
	if err := b.Publish(context.Background(), "c101", evt); err != nil {
		t.Fatal(err)
	}
	got := receive(t, ch)
	if got.RunID != "run-1" || got.Cost != 828.94 || got.Routes != 10 {
		t.Fatalf("got %+v", got)
	}
	b.Unsubscribe("c101", ch)
}

func TestRedisBrokerPublishError(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBroker("redis://" + mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Publish(ctx, "c101", Event{Type: TypeSearchStarted}); err == nil {
		t.Fatal("expected error with redis down")
	}
}

func TestNotifierPublishesLifecycle(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe("inst")
	n := &Notifier{Broker: b, Instance: "inst", RunID: "r"}
	sol := route.NewSolution(nil, []*problem.Job{{ID: "x"}})
	n.SearchStarts(nil, nil, []*route.Solution{sol})
	n.SearchEnds(nil, nil, []*route.Solution{sol})
	first, second := receive(t, ch), receive(t, ch)
	if first.Type != TypeSearchStarted || second.Type != TypeSearchFinished {
		t.Fatalf("types = %s, %s", first.Type, second.Type)
	}
	if second.Unassigned != 1 || second.RunID != "r" || second.TS.IsZero() {
		t.Fatalf("payload = %+v", second)
	}
}
