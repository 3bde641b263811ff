package engine

import "testing"

func TestEventBus(t *testing.T) {
	eb := NewEventBus()
	var all, ticks int
	allID := eb.Subscribe(func(Event) { all++ })
	eb.SubscribeTypes(func(evt Event) {
		ticks++
		if evt.Timestamp.IsZero() {
			t.Error("Emit should stamp events")
		}
	}, EventTick)

	eb.Emit(Event{Type: EventTick})
	eb.Emit(Event{Type: EventRobotMoved})
	if all != 2 || ticks != 1 {
		t.Errorf("all = %d, ticks = %d", all, ticks)
	}

	eb.Unsubscribe(allID)
	eb.Unsubscribe(allID)
	eb.Emit(Event{Type: EventTick})
	if all != 2 || ticks != 2 {
		t.Errorf("after unsubscribe: all = %d, ticks = %d", all, ticks)
	}
}

func TestEventBusMultipleTypes(t *testing.T) {
	eb := NewEventBus()
	var got []EventType
	eb.SubscribeTypes(func(evt Event) { got = append(got, evt.Type) }, EventTaskQueued, EventPodsExhausted)
	for _, et := range []EventType{EventTick, EventTaskQueued, EventRobotBlocked, EventPodsExhausted} {
		eb.Emit(Event{Type: et})
	}
	if len(got) != 2 || got[0] != EventTaskQueued || got[1] != EventPodsExhausted {
		t.Errorf("delivered %v", got)
	}
}

func TestEventBusHandlerUnsubscribesItself(t *testing.T) {
	eb := NewEventBus()
	var id SubscriberID
	calls, later := 0, 0
	id = eb.Subscribe(func(Event) {
		calls++
		eb.Unsubscribe(id)
	})
	eb.Subscribe(func(Event) { later++ })

	eb.Emit(Event{Type: EventTick})
	eb.Emit(Event{Type: EventTick})
	if calls != 1 {
		t.Errorf("self-removing handler ran %d times, want 1", calls)
	}
	if later != 2 {
		t.Errorf("second handler ran %d times, want 2", later)
	}
}

func TestEventTypeString(t *testing.T) {
	if EventTaskCompleted.String() != "task-completed" {
		t.Errorf("String = %q", EventTaskCompleted.String())
	}
	if EventType(99).String() != "unknown" {
		t.Errorf("unknown String = %q", EventType(99).String())
	}
}
