package history

// DefaultLimit is the number of snapshots kept before the oldest is evicted.
const DefaultLimit = 100

// Stack is a bounded list of snapshots with a pointer at the live state.
// Entries ahead of the pointer are redo states; a push discards them.
type Stack[T any] struct {
	entries []T
	index   int
	limit   int
	clone   func(T) T
}

// New returns an empty stack. clone must return a copy that shares no
// mutable state with its argument.
func New[T any](limit int, clone func(T) T) *Stack[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Stack[T]{limit: limit, clone: clone, index: -1}
}

// Reset drops every entry and seeds the stack with one snapshot.
func (s *Stack[T]) Reset(seed T) {
	s.entries = append(s.entries[:0], s.clone(seed))
	s.index = 0
}

// Clear drops every entry.
func (s *Stack[T]) Clear() {
	var zero T
	for i := range s.entries {
		s.entries[i] = zero
	}
	s.entries = s.entries[:0]
	s.index = -1
}

func (s *Stack[T]) Push(snap T) {
	s.entries = s.entries[:s.index+1]
	s.entries = append(s.entries, s.clone(snap))
	if len(s.entries) > s.limit {
		drop := len(s.entries) - s.limit
		s.entries = append(s.entries[:0], s.entries[drop:]...)
	}
	s.index = len(s.entries) - 1
}

func (s *Stack[T]) CanUndo() bool { return s.index > 0 }
func (s *Stack[T]) CanRedo() bool { return s.index >= 0 && s.index < len(s.entries)-1 }

// Undo moves the pointer back and returns a copy of that entry. It reports
// false at the oldest entry.
func (s *Stack[T]) Undo() (T, bool) {
	if !s.CanUndo() {
		var zero T
		return zero, false
	}
	s.index--
	return s.clone(s.entries[s.index]), true
}

// Redo moves the pointer forward and returns a copy of that entry.
func (s *Stack[T]) Redo() (T, bool) {
	if !s.CanRedo() {
		var zero T
		return zero, false
	}
	s.index++
	return s.clone(s.entries[s.index]), true
}

// Current returns a copy of the entry at the pointer.
func (s *Stack[T]) Current() (T, bool) {
	if s.index < 0 {
		var zero T
		return zero, false
	}
	return s.clone(s.entries[s.index]), true
}

// Peek returns the entry at the pointer without copying. Callers must not
// modify it.
func (s *Stack[T]) Peek() (T, bool) {
	if s.index < 0 {
		var zero T
		return zero, false
	}
	return s.entries[s.index], true
}

func (s *Stack[T]) Len() int   { return len(s.entries) }
func (s *Stack[T]) Index() int { return s.index }
func (s *Stack[T]) Limit() int { return s.limit }
