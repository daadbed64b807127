package mqttproto

import "github.com/sawyerbrook/mqttproto/internal/wire"

// retryAttemptsPerTick is not consulted by Tick: Tick(TimerPingreqSend)
// only sends a PINGREQ and never retransmits stored entries. Stored
// entries are resent, with Dup=true for PUBLISH, only by Retransmit.
const retryAttemptsPerTick = 1

// Tick notifies the Connection that the timer identified by kind, most
// recently armed via a TimerEvent, has fired. The host calls this instead
// of a callback so the whole engine stays synchronous.
func (c *Connection) Tick(kind TimerKind) ([]Event, error) {
	switch kind {
	case TimerPingreqSend:
		return c.Ping()
	case TimerPingreqRecv:
		// The peer missed its keep-alive window (MQTT-3.1.2-24): tell it
		// why, then close.
		c.status = StatusDisconnected
		c.opts.logger.Warn("peer keep-alive window elapsed, closing")
		pkt := &wire.DisconnectPacket{ReasonCode: byte(ReasonKeepAliveTimeout)}
		data, err := pkt.Encode(nil, wire.Version(c.version))
		if err != nil {
			return nil, err
		}
		return []Event{
			SendEvent{Data: data},
			ErrorEvent{Err: newProtoErrorCode(ErrDisconnectReasonCode, byte(ReasonKeepAliveTimeout), "peer keep-alive window elapsed")},
			CloseEvent{},
		}, nil
	case TimerPingrespRecv:
		c.status = StatusDisconnected
		return []Event{
			ErrorEvent{Err: newProtoError(ErrConnectionReset, "PINGRESP not received in time")},
			CloseEvent{},
		}, nil
	case TimerCloseByDisconnect:
		return []Event{CloseEvent{}}, nil
	default:
		return nil, newProtoError(ErrProtocolError, "unknown timer kind")
	}
}

// Retransmit resends every entry in the send store with Dup=true (for
// PUBLISH entries; PUBREL carries no Dup bit) after a reconnect with an
// existing session, per the teacher's retry-on-reconnect behavior
// generalized to the whole store instead of a single timed entry.
func (c *Connection) Retransmit() ([]Event, error) {
	var events []Event
	entries := c.store.Entries()
	if len(entries) > 0 {
		c.opts.logger.Debug("retransmitting stored entries", "count", len(entries))
	}
	for _, e := range entries {
		var data []byte
		var err error
		switch {
		case e.Publish != nil:
			e.Publish.Dup = true
			data, err = e.Publish.Encode(nil, wire.Version(c.version))
		case e.Pubrel != nil:
			data, err = e.Pubrel.Encode(nil, wire.Version(c.version))
		}
		if err != nil {
			return events, err
		}
		events = append(events, SendEvent{Data: data})
	}
	return events, nil
}
