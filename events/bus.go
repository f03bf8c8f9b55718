// Package events is the document-level dispatcher shared by every grid on a
// screen. Grids subscribe only while they are being edited, so a keystroke is
// never handled twice.
package events

import "linegrid/grid"

type Action int

const (
	ActionNone Action = iota
	ActionCopy
	ActionCut
	ActionPaste
	ActionUndo
	ActionRedo
	ActionSelectAll
	ActionDelete
	ActionCommit
	ActionEscape
	ActionMouseUp
	ActionMove
	ActionExtend
	ActionType
	ActionBackspace
)

var actionNames = map[Action]string{
	ActionNone:      "none",
	ActionCopy:      "copy",
	ActionCut:       "cut",
	ActionPaste:     "paste",
	ActionUndo:      "undo",
	ActionRedo:      "redo",
	ActionSelectAll: "select-all",
	ActionDelete:    "delete",
	ActionCommit:    "commit",
	ActionEscape:    "escape",
	ActionMouseUp:   "mouse-up",
	ActionMove:      "move",
	ActionExtend:    "extend",
	ActionType:      "type",
	ActionBackspace: "backspace",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// Event is one document-level input.
type Event struct {
	Action Action
	// Text carries pasted or typed text.
	Text string
	// DRow and DField carry the direction for ActionMove and ActionExtend.
	DRow, DField int
	// Target is the cell under the pointer, when known.
	Target *grid.Address
}

// Handler reports whether it consumed the event.
type Handler func(Event) bool

type subscriber struct {
	id int
	h  Handler
}

// Bus delivers events to subscribers, newest first, stopping at the first
// handler that consumes the event. It is not safe for concurrent use.
type Bus struct {
	subs   []subscriber
	nextID int
}

func NewBus() *Bus { return &Bus{} }

// Subscription is returned by Subscribe. Cancel is idempotent.
type Subscription struct {
	bus *Bus
	id  int
}

func (b *Bus) Subscribe(h Handler) *Subscription {
	b.nextID++
	b.subs = append(b.subs, subscriber{id: b.nextID, h: h})
	return &Subscription{bus: b, id: b.nextID}
}

func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	b := s.bus
	for i, sub := range b.subs {
		if sub.id == s.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	s.bus = nil
}

func (s *Subscription) Active() bool { return s != nil && s.bus != nil }

// Publish returns whether any subscriber consumed ev.
func (b *Bus) Publish(ev Event) bool {
	// Handlers may cancel their own subscription while running.
	subs := append([]subscriber(nil), b.subs...)
	for i := len(subs) - 1; i >= 0; i-- {
		if subs[i].h(ev) {
			return true
		}
	}
	return false
}

func (b *Bus) Len() int { return len(b.subs) }
