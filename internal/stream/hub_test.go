package stream

import "testing"

func TestHub_FanOut(t *testing.T) {
	h := NewHub()
	a, unsubA := h.Subscribe(1)
	b, unsubB := h.Subscribe(1)
	defer unsubA()
	defer unsubB()

	h.Publish("resolution.run", 42)
	for _, ch := range []<-chan Event{a, b} {
		ev := <-ch
		if ev.Type != "resolution.run" || ev.Data.(int) != 42 {
			t.Fatalf("ev=%+v", ev)
		}
	}
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	h := NewHub()
	_, unsub := h.Subscribe(1)
	defer unsub()

	h.Publish("x", 1)
	h.Publish("x", 2)
	if h.Dropped() != 1 {
		t.Fatalf("dropped=%d want=1", h.Dropped())
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe(1)
	unsub()
	unsub()
	if h.Subscribers() != 0 {
		t.Fatalf("subscribers=%d", h.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed")
	}
	h.Publish("x", 1)
}
