package events

import "testing"

func TestPublishNewestFirstAndStops(t *testing.T) {
	b := NewBus()
	var order []string
	b.Subscribe(func(Event) bool { order = append(order, "old"); return true })
	b.Subscribe(func(ev Event) bool {
		order = append(order, "new")
		return ev.Action == ActionCopy
	})

	if !b.Publish(Event{Action: ActionCopy}) {
		t.Fatalf("expected copy to be consumed")
	}
	if len(order) != 1 || order[0] != "new" {
		t.Fatalf("expected only newest handler, got %v", order)
	}

	order = nil
	b.Publish(Event{Action: ActionPaste})
	if len(order) != 2 || order[1] != "old" {
		t.Fatalf("expected fall-through to older handler, got %v", order)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	b := NewBus()
	calls := 0
	sub := b.Subscribe(func(Event) bool { calls++; return true })
	sub.Cancel()
	sub.Cancel()
	if b.Len() != 0 || sub.Active() {
		t.Fatalf("expected no subscribers after cancel")
	}
	if b.Publish(Event{Action: ActionUndo}) {
		t.Fatalf("expected unconsumed event")
	}
	if calls != 0 {
		t.Fatalf("cancelled handler was called")
	}
}

func TestHandlerMayCancelItself(t *testing.T) {
	b := NewBus()
	var sub *Subscription
	sub = b.Subscribe(func(Event) bool { sub.Cancel(); return true })
	b.Publish(Event{Action: ActionEscape})
	if b.Len() != 0 {
		t.Fatalf("expected self-cancel to remove the handler")
	}
}
