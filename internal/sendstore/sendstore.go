// Package sendstore retains outgoing QoS>=1 PUBLISH and PUBREL packets
// that await acknowledgment, in the order they were sent, so the
// connection state machine can retransmit or restore them.
package sendstore

import (
	"errors"

	"github.com/rs/xid"
	"github.com/sawyerbrook/mqttproto/internal/wire"
)

// ErrNotFound is returned by SwapToPubrel when no entry exists for the
// given packet id. Remove of a missing id is a silent no-op.
var ErrNotFound = errors.New("sendstore: no entry for packet id")

// ResponseType names the packet type the store expects to clear an entry:
// PUBACK for a QoS 1 PUBLISH, PUBREC then PUBCOMP for a QoS 2 PUBLISH (the
// entry is swapped to a PUBREL while waiting on the PUBCOMP).
type ResponseType wire.PacketType

// Entry is one stored, unacknowledged packet.
type Entry struct {
	PacketID uint16
	Waiting  ResponseType
	Publish  *wire.PublishPacket // nil once swapped to Pubrel
	Pubrel   *wire.PubrelPacket  // nil until the PUBREC arrives
	seq      xid.ID             // stamped on insert and restore; ordering comes from Store.order, not seq
}

// Store is an insertion-order-preserving map keyed by packet id. Iteration
// via Entries always yields entries oldest-inserted first, which is what
// retransmission-on-reconnect and session restore both need.
type Store struct {
	order []uint16
	byID  map[uint16]*Entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{byID: make(map[uint16]*Entry)}
}

// PutPublish records a newly sent QoS>=1 PUBLISH.
func (s *Store) PutPublish(p *wire.PublishPacket) {
	e := &Entry{PacketID: p.PacketID, Waiting: ResponseType(wire.PUBACK), Publish: p, seq: xid.New()}
	if p.Qos == 2 {
		e.Waiting = ResponseType(wire.PUBREC)
	}
	s.put(e)
}

func (s *Store) put(e *Entry) {
	if _, exists := s.byID[e.PacketID]; !exists {
		s.order = append(s.order, e.PacketID)
	}
	s.byID[e.PacketID] = e
}

// SwapToPubrel replaces a QoS 2 PUBLISH entry with its PUBREL after the
// PUBREC arrives, preserving the entry's position in iteration order.
func (s *Store) SwapToPubrel(id uint16, rel *wire.PubrelPacket) error {
	e, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	e.Publish = nil
	e.Pubrel = rel
	e.Waiting = ResponseType(wire.PUBCOMP)
	return nil
}

// Remove drops the entry for id, e.g. on PUBACK or PUBCOMP.
func (s *Store) Remove(id uint16) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Get returns the entry for id, if any.
func (s *Store) Get(id uint16) (*Entry, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.order)
}

// Entries returns every stored entry, oldest-sent first.
func (s *Store) Entries() []*Entry {
	out := make([]*Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Clear drops every stored entry, for use when a transport closes and the
// session is not persistent.
func (s *Store) Clear() {
	s.order = nil
	s.byID = make(map[uint16]*Entry)
}

// Restore re-populates the store from previously persisted entries,
// preserving the order they are given in. It does not validate packet id
// availability; the caller must reserve ids with the packet-id allocator
// first and map ErrPacketIdentifierConflict accordingly.
func (s *Store) Restore(entries []*Entry) {
	for _, e := range entries {
		if e.seq.IsZero() {
			e.seq = xid.New()
		}
		s.put(e)
	}
}
