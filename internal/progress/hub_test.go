package progress

import "testing"

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish(1, "tick")
	hub.Publish(2, "other run")

	select {
	case got := <-ch:
		if got != "tick" {
			t.Fatalf("got=%q", got)
		}
	default:
		t.Fatalf("no frame delivered")
	}
	select {
	case got := <-ch:
		t.Fatalf("unexpected frame %q from another run", got)
	default:
	}
}

func TestHub_CompleteClosesSubscribers(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	hub.Complete(1)
	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after completion")
	}
	// Cancelling after completion must be a no-op, not a double close.
	cancel()
}

func TestHub_SlowSubscriberDropsFrames(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	defer cancel()
	// Publish past the buffer; the hub must not block.
	for i := 0; i < 100; i++ {
		hub.Publish(1, "frame")
	}
	drained := 0
	for {
		select {
		case <-ch:
			drained++
			continue
		default:
		}
		break
	}
	if drained == 0 || drained > 16 {
		t.Fatalf("drained=%d want up to the buffer size", drained)
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("channel open after cancel")
	}
	// Publishing to a run with no subscribers is a no-op.
	hub.Publish(1, "late")
}
