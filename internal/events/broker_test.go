package events

import (
	"testing"

	"secretsanta/internal/models"
)

func TestBroker(t *testing.T) {
	b := NewBroker()

	t.Run("Test delivery is scoped to the tenant", func(t *testing.T) {
		a, cancelA := b.Subscribe("a")
		defer cancelA()
		other, cancelOther := b.Subscribe("b")
		defer cancelOther()

		b.Publish(models.Event{Type: models.EventDrawPerformed, Tenant: "a", Participants: 3, HasDrawn: true})

		select {
		case ev := <-a:
			if ev.Type != models.EventDrawPerformed || ev.Participants != 3 || !ev.HasDrawn {
				t.Errorf("Unexpected event %+v", ev)
			}
		default:
			t.Fatal("Expected an event for tenant a")
		}
		select {
		case ev := <-other:
			t.Errorf("Expected no event for tenant b, got %+v", ev)
		default:
		}
	})

	t.Run("Test unsubscribe closes the channel", func(t *testing.T) {
		ch, cancel := b.Subscribe("c")
		if b.Subscribers("c") != 1 {
			t.Fatalf("Expected 1 subscriber, got %d", b.Subscribers("c"))
		}
		cancel()
		cancel()
		if _, ok := <-ch; ok {
			t.Error("Expected channel to be closed")
		}
		if b.Subscribers("c") != 0 {
			t.Errorf("Expected 0 subscribers, got %d", b.Subscribers("c"))
		}
	})

	t.Run("Test publish does not block on a full subscriber", func(t *testing.T) {
		ch, cancel := b.Subscribe("d")
		defer cancel()
		for range subscriberBuffer + 5 {
			b.Publish(models.Event{Type: models.EventParticipantsChanged, Tenant: "d"})
		}
		if len(ch) != subscriberBuffer {
			t.Errorf("Expected a full buffer of %d, got %d", subscriberBuffer, len(ch))
		}
	})
}
