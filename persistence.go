package mqttproto

import "github.com/sawyerbrook/mqttproto/internal/sendstore"

// StoredPacket is one persistable unacknowledged exchange, tagged by which
// response packet type would clear it. A host persists these across
// restarts for a session with CleanStart=false.
type StoredPacket struct {
	PacketID  uint16
	Waiting   wireResponseType
	Publish   *PublishPacket
	Pubrel    *PubrelPacket
}

// wireResponseType mirrors sendstore.ResponseType without exporting the
// internal package's type directly.
type wireResponseType = sendstore.ResponseType

// GetStoredPackets returns every outstanding send-store entry, oldest-sent
// first, for persistence.
func (c *Connection) GetStoredPackets() []StoredPacket {
	entries := c.store.Entries()
	out := make([]StoredPacket, 0, len(entries))
	for _, e := range entries {
		out = append(out, StoredPacket{
			PacketID: e.PacketID,
			Waiting:  e.Waiting,
			Publish:  e.Publish,
			Pubrel:   e.Pubrel,
		})
	}
	return out
}

// RestorePackets re-populates the send store and packet-id allocator from
// a previously persisted session, in the order given. It returns
// ErrPacketIdentifierConflict and restores nothing if any id collides with
// one already reserved in this Connection (which should never happen on a
// freshly constructed Connection, but guards session-resumption bugs).
func (c *Connection) RestorePackets(packets []StoredPacket) error {
	for _, p := range packets {
		if c.ids.InUse(p.PacketID) {
			return newProtoError(ErrPacketIdentifierConflict, "packet id already reserved")
		}
	}
	entries := make([]*sendstoreEntry, 0, len(packets))
	for _, p := range packets {
		if err := c.ids.Reserve(p.PacketID); err != nil {
			for _, e := range entries {
				c.ids.Release(e.PacketID)
			}
			return newProtoError(ErrPacketIdentifierConflict, err.Error())
		}
		entries = append(entries, &sendstoreEntry{
			PacketID: p.PacketID,
			Waiting:  p.Waiting,
			Publish:  p.Publish,
			Pubrel:   p.Pubrel,
		})
	}
	c.store.Restore(entries)
	return nil
}

type sendstoreEntry = sendstore.Entry

// GetQos2HandledPacketIDs returns the packet ids of inbound QoS 2 PUBLISH
// packets that have been delivered to the application but not yet released
// by a PUBREL, for persistence.
func (c *Connection) GetQos2HandledPacketIDs() []uint16 {
	out := make([]uint16, 0, len(c.qos2Handled))
	for id := range c.qos2Handled {
		out = append(out, id)
	}
	return out
}

// RestoreQos2HandledPacketIDs re-populates the inbound QoS 2 dedup set from
// a previously persisted session.
func (c *Connection) RestoreQos2HandledPacketIDs(ids []uint16) {
	for _, id := range ids {
		c.qos2Handled[id] = struct{}{}
	}
}
