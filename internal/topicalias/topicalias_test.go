package topicalias

import "testing"

func TestSendAssignsSequentialAliases(t *testing.T) {
	s := NewSend(2)
	a1, send1 := s.Resolve("a/b")
	if a1 != 1 || !send1 {
		t.Fatalf("expected alias 1 with topic, got %d send=%v", a1, send1)
	}
	a2, send2 := s.Resolve("c/d")
	if a2 != 2 || !send2 {
		t.Fatalf("expected alias 2 with topic, got %d send=%v", a2, send2)
	}
}

func TestSendReusesMappingWithoutTopic(t *testing.T) {
	s := NewSend(2)
	s.Resolve("a/b")
	alias, sendTopic := s.Resolve("a/b")
	if alias != 1 || sendTopic {
		t.Fatalf("expected alias-only reuse, got %d sendTopic=%v", alias, sendTopic)
	}
}

func TestSendEvictsLeastRecentlyUsed(t *testing.T) {
	s := NewSend(2)
	s.Resolve("a/b") // alias 1
	s.Resolve("c/d") // alias 2
	s.Resolve("a/b") // touches alias 1, now MRU

	// Both slots used; a/b was just touched so c/d is LRU and gets evicted.
	alias, sendTopic := s.Resolve("e/f")
	if alias != 2 || !sendTopic {
		t.Fatalf("expected e/f to take over alias 2, got %d sendTopic=%v", alias, sendTopic)
	}
	if _, ok := s.Find(2); !ok {
		t.Fatal("expected alias 2 to now resolve to e/f")
	}
	topic, _ := s.Peek(2)
	if topic != "e/f" {
		t.Fatalf("expected e/f at alias 2, got %q", topic)
	}
	if _, ok := s.Peek(1); !ok {
		t.Fatal("expected a/b at alias 1 to survive eviction")
	}
}

func TestSendDisabledWhenMaxZero(t *testing.T) {
	s := NewSend(0)
	alias, sendTopic := s.Resolve("a/b")
	if alias != 0 || !sendTopic {
		t.Fatalf("expected aliasing disabled, got %d sendTopic=%v", alias, sendTopic)
	}
}

func TestRecvRegisterRejectsOutOfRange(t *testing.T) {
	r := NewRecv(5)
	if err := r.Register(0, "a/b"); err != ErrAliasInvalid {
		t.Fatalf("expected ErrAliasInvalid for alias 0, got %v", err)
	}
	if err := r.Register(6, "a/b"); err != ErrAliasInvalid {
		t.Fatalf("expected ErrAliasInvalid for alias above max, got %v", err)
	}
	if err := r.Register(5, "a/b"); err != nil {
		t.Fatal(err)
	}
	topic, ok := r.Resolve(5)
	if !ok || topic != "a/b" {
		t.Fatalf("got %q ok=%v", topic, ok)
	}
}

func TestRecvResetClearsTable(t *testing.T) {
	r := NewRecv(5)
	r.Register(1, "a/b")
	r.Reset()
	if _, ok := r.Resolve(1); ok {
		t.Fatal("expected table cleared after reset")
	}
}
