package mqttproto

import "github.com/sawyerbrook/mqttproto/internal/wire"

// flushOfflineQueue sends every publish queued while disconnected, subject
// to the peer's receive-maximum, stopping (and leaving the rest queued) if
// the limit would be exceeded. It is called once a CONNACK confirms the
// connection is live.
func (c *Connection) flushOfflineQueue() []Event {
	var events []Event
	var remaining []*wire.PublishPacket
	for i, pkt := range c.offlineQueue {
		if c.outstandingToPeerWouldExceed() {
			remaining = append(remaining, c.offlineQueue[i:]...)
			break
		}
		c.store.PutPublish(pkt)
		c.outstandingToPeer++
		data, err := pkt.Encode(nil, wire.Version(c.version))
		if err != nil {
			events = append(events, ErrorEvent{Err: err})
			continue
		}
		events = append(events, SendEvent{Data: data, ReleaseID: pkt.PacketID})
	}
	c.offlineQueue = remaining
	return events
}
