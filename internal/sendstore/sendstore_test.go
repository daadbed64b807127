package sendstore

import (
	"testing"

	"github.com/sawyerbrook/mqttproto/internal/wire"
)

func TestPutAndIterationOrder(t *testing.T) {
	s := New()
	s.PutPublish(&wire.PublishPacket{PacketID: 1, Qos: 1})
	s.PutPublish(&wire.PublishPacket{PacketID: 2, Qos: 2})
	s.PutPublish(&wire.PublishPacket{PacketID: 3, Qos: 1})

	entries := s.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []uint16{1, 2, 3} {
		if entries[i].PacketID != want {
			t.Fatalf("entry %d: expected id %d, got %d", i, want, entries[i].PacketID)
		}
	}
}

func TestSwapToPubrelPreservesPosition(t *testing.T) {
	s := New()
	s.PutPublish(&wire.PublishPacket{PacketID: 1, Qos: 2})
	s.PutPublish(&wire.PublishPacket{PacketID: 2, Qos: 1})

	rel := wire.NewPubrel(1, 0, nil)
	if err := s.SwapToPubrel(1, rel); err != nil {
		t.Fatal(err)
	}

	entries := s.Entries()
	if entries[0].PacketID != 1 || entries[0].Publish != nil || entries[0].Pubrel != rel {
		t.Fatalf("expected entry 0 swapped to pubrel, got %+v", entries[0])
	}
	if entries[1].PacketID != 2 {
		t.Fatalf("expected order preserved, got %+v", entries)
	}
}

func TestRemove(t *testing.T) {
	s := New()
	s.PutPublish(&wire.PublishPacket{PacketID: 5, Qos: 1})
	s.Remove(5)
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	if _, ok := s.Get(5); ok {
		t.Fatal("expected entry to be gone")
	}
}

func TestSwapToPubrelMissingEntry(t *testing.T) {
	s := New()
	if err := s.SwapToPubrel(99, wire.NewPubrel(99, 0, nil)); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClearDropsAllEntries(t *testing.T) {
	s := New()
	s.PutPublish(&wire.PublishPacket{PacketID: 1, Qos: 1})
	s.PutPublish(&wire.PublishPacket{PacketID: 2, Qos: 2})

	s.Clear()

	if s.Len() != 0 {
		t.Fatalf("expected empty store after Clear, got %d", s.Len())
	}
	if _, ok := s.Get(1); ok {
		t.Fatal("expected entry 1 gone after Clear")
	}
	s.PutPublish(&wire.PublishPacket{PacketID: 1, Qos: 1})
	if s.Len() != 1 {
		t.Fatalf("expected Clear to leave the store reusable, got len %d", s.Len())
	}
}
