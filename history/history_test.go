package history

import "testing"

func cloneInts(v []int) []int { return append([]int(nil), v...) }

func TestUndoRestoresPreviousPush(t *testing.T) {
	s := New(DefaultLimit, cloneInts)
	for n := 0; n < 10; n++ {
		s.Push([]int{n})
	}
	got, ok := s.Undo()
	if !ok || got[0] != 8 {
		t.Fatalf("expected snapshot 8 after undo, got %v ok=%v", got, ok)
	}
	got, ok = s.Redo()
	if !ok || got[0] != 9 {
		t.Fatalf("expected snapshot 9 after redo, got %v ok=%v", got, ok)
	}
	if _, ok := s.Redo(); ok {
		t.Fatalf("redo at the last entry must be a no-op")
	}
}

func TestUndoAtOldestIsNoop(t *testing.T) {
	s := New(DefaultLimit, cloneInts)
	s.Reset([]int{1})
	if _, ok := s.Undo(); ok {
		t.Fatalf("expected undo at index 0 to be a no-op")
	}
	if s.Index() != 0 {
		t.Fatalf("expected pointer to stay at 0, got %d", s.Index())
	}
}

func TestStackNeverExceedsLimit(t *testing.T) {
	s := New(DefaultLimit, cloneInts)
	for n := 0; n < 250; n++ {
		s.Push([]int{n})
		if s.Len() > DefaultLimit {
			t.Fatalf("stack grew to %d entries", s.Len())
		}
	}
	if s.Index() != DefaultLimit-1 {
		t.Fatalf("expected pointer at last index, got %d", s.Index())
	}
	cur, _ := s.Current()
	if cur[0] != 249 {
		t.Fatalf("expected newest entry 249, got %v", cur)
	}
	steps := 0
	for s.CanUndo() {
		s.Undo()
		steps++
	}
	oldest, _ := s.Current()
	if steps != DefaultLimit-1 || oldest[0] != 150 {
		t.Fatalf("expected 99 undos down to 150, got %d steps ending at %v", steps, oldest)
	}
}

func TestPushAfterUndoDropsRedo(t *testing.T) {
	s := New(DefaultLimit, cloneInts)
	s.Reset([]int{0})
	s.Push([]int{1})
	s.Push([]int{2})
	s.Undo()
	s.Undo()
	s.Push([]int{3})
	if s.CanRedo() {
		t.Fatalf("expected redo entries to be discarded")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
	prev, _ := s.Undo()
	if prev[0] != 0 {
		t.Fatalf("expected seed below the new push, got %v", prev)
	}
}

func TestEntriesAreCopied(t *testing.T) {
	s := New(DefaultLimit, cloneInts)
	live := []int{1}
	s.Reset(live)
	live[0] = 2
	s.Push(live)
	got, _ := s.Undo()
	if got[0] != 1 {
		t.Fatalf("expected stored copy 1, got %v", got)
	}
	got[0] = 99
	again, _ := s.Current()
	if again[0] != 1 {
		t.Fatalf("returned snapshot aliases the stack")
	}
}
