package mqttproto

import (
	"time"

	"github.com/sawyerbrook/mqttproto/internal/topicalias"
	"github.com/sawyerbrook/mqttproto/internal/wire"
)

// Recv feeds inbound transport bytes to the assembler and returns the
// events produced by every packet that became complete. A decode or
// protocol error aborts processing of the remaining bytes in data (they
// are not retained) and is reported as the returned error; any events
// already produced by earlier, well-formed packets in the same call are
// still returned.
func (c *Connection) Recv(data []byte) ([]Event, error) {
	frames, err := c.assembler.Feed(data)
	var events []Event
	for _, f := range frames {
		pkt, derr := wire.Decode(f.Header, f.Body, wire.Version(c.version))
		if derr != nil {
			events = append(events, ErrorEvent{Err: newProtoErrorWrap(ErrMalformedPacket, derr)})
			return events, derr
		}
		evs, herr := c.handlePacket(pkt)
		events = append(events, evs...)
		if herr != nil {
			events = append(events, ErrorEvent{Err: herr})
			return events, herr
		}
	}
	if err != nil {
		events = append(events, ErrorEvent{Err: err})
		return events, err
	}
	return events, nil
}

func newProtoErrorWrap(kind ErrorKind, parent error) *ProtoError {
	e := newProtoError(kind, parent.Error())
	e.Parent = parent
	return e
}

func (c *Connection) handlePacket(pkt wire.Packet) ([]Event, error) {
	// Any inbound packet resets the peer keep-alive expectation. This timer
	// is server-only (MQTT-3.1.2-24 keep-alive enforcement runs on whichever
	// side holds the session, i.e. the server); a client tracks its own
	// send interval separately via pingreq-send.
	var events []Event
	if c.role == RoleServer && c.opts.keepAlive > 0 && c.status == StatusConnected {
		events = append(events, TimerEvent{Op: TimerReset, Kind: TimerPingreqRecv, Duration: c.opts.keepAlive + c.opts.keepAlive/2})
	}

	switch p := pkt.(type) {
	case *wire.ConnectPacket:
		return append(events, c.onConnect(p)...), nil
	case *wire.ConnackPacket:
		return append(events, c.onConnack(p)...), nil
	case *wire.PublishPacket:
		evs, err := c.onPublish(p)
		return append(events, evs...), err
	case *wire.PubackPacket:
		return append(events, c.onPuback(p)...), nil
	case *wire.PubrecPacket:
		evs, err := c.onPubrec(p)
		return append(events, evs...), err
	case *wire.PubrelPacket:
		evs, err := c.onPubrel(p)
		return append(events, evs...), err
	case *wire.PubcompPacket:
		return append(events, c.onPubcomp(p)...), nil
	case *wire.SubackPacket:
		return append(events, c.onSuback(p)...), nil
	case *wire.UnsubackPacket:
		return append(events, c.onUnsuback(p)...), nil
	case wire.PingreqPacket:
		return append(events, c.onPingreq()...), nil
	case wire.PingrespPacket:
		return append(events, c.onPingresp()...), nil
	case *wire.DisconnectPacket:
		return append(events, c.onDisconnect(p)...), nil
	case *wire.AuthPacket:
		// Extended authentication (MQTT v5 4.12) is opaque to this engine:
		// decode and hand the packet to the host, which owns the actual
		// challenge/response exchange (SCRAM, Kerberos, or whatever the
		// negotiated AuthenticationMethod implies).
		return append(events, PacketReceivedEvent{Packet: p}), nil
	default:
		return events, newProtoError(ErrProtocolError, "unhandled packet type")
	}
}

func (c *Connection) onConnect(p *wire.ConnectPacket) []Event {
	if c.role != RoleServer {
		return []Event{ErrorEvent{Err: newProtoError(ErrProtocolError, "CONNECT received by a client-role Connection")}}
	}
	c.clientID = p.ClientID
	c.willPresent = p.WillFlag
	if p.Properties != nil && p.Properties.ReceiveMaximum != nil {
		c.peerReceiveMax = *p.Properties.ReceiveMaximum
	}
	if p.Properties != nil && p.Properties.TopicAliasMaximum != nil && *p.Properties.TopicAliasMaximum > 0 {
		c.aliasSend = topicalias.NewSend(*p.Properties.TopicAliasMaximum)
	}
	c.status = StatusConnected
	var events []Event
	if c.opts.keepAlive > 0 {
		events = append(events, TimerEvent{Op: TimerReset, Kind: TimerPingreqRecv, Duration: c.opts.keepAlive + c.opts.keepAlive/2})
	}
	return events
}

func (c *Connection) onConnack(p *wire.ConnackPacket) []Event {
	var events []Event
	if p.ReasonCode >= 0x80 {
		c.status = StatusDisconnected
		c.opts.logger.Warn("CONNECT refused", "reason_code", p.ReasonCode)
		events = append(events, ErrorEvent{Err: newProtoErrorCode(ErrDisconnectReasonCode, p.ReasonCode, "CONNECT refused")})
		return events
	}
	c.status = StatusConnected
	c.opts.logger.Debug("connection established", "client_id", c.clientID, "session_present", p.SessionPresent)
	keepAlive := c.opts.keepAlive
	if p.Properties != nil {
		if p.Properties.ReceiveMaximum != nil {
			c.peerReceiveMax = *p.Properties.ReceiveMaximum
		}
		if p.Properties.TopicAliasMaximum != nil && *p.Properties.TopicAliasMaximum > 0 {
			c.aliasSend = topicalias.NewSend(*p.Properties.TopicAliasMaximum)
		}
		if p.Properties.AssignedClientIdentifier != nil {
			c.clientID = *p.Properties.AssignedClientIdentifier
		}
		if p.Properties.ServerKeepAlive != nil {
			keepAlive = time.Duration(*p.Properties.ServerKeepAlive) * time.Second
		}
	}
	if keepAlive > 0 {
		events = append(events, TimerEvent{Op: TimerReset, Kind: TimerPingreqSend, Duration: keepAlive})
	}
	events = append(events, c.flushOfflineQueue()...)
	return events
}

func (c *Connection) onPublish(p *wire.PublishPacket) ([]Event, error) {
	topic := p.Topic
	if c.version == ProtocolV5 && p.Properties != nil && p.Properties.TopicAlias != nil {
		alias := *p.Properties.TopicAlias
		if topic != "" {
			if err := c.aliasRecv.Register(alias, topic); err != nil {
				return nil, newProtoErrorWrap(ErrTopicAliasInvalid, err)
			}
		} else {
			t, ok := c.aliasRecv.Resolve(alias)
			if !ok {
				return nil, newProtoError(ErrProtocolError, "topic alias used before a topic was registered for it")
			}
			topic = t
			p.Topic = t
		}
	}
	if err := validateTopicName(topic, c.remainingMaxTopic()); err != nil {
		return nil, err
	}
	if err := validatePayloadSize(p.Payload, c.remainingMaxPayload()); err != nil {
		return nil, err
	}
	payloadUTF8 := p.Properties != nil && p.Properties.PayloadFormatIndicator != nil && *p.Properties.PayloadFormatIndicator == 1
	if err := validatePayloadFormat(p.Payload, payloadUTF8); err != nil {
		return nil, err
	}

	var events []Event
	switch Qos(p.Qos) {
	case QosAtMostOnce:
		events = append(events, PacketReceivedEvent{Packet: p})
	case QosAtLeastOnce:
		events = append(events, PacketReceivedEvent{Packet: p})
		ack := wire.NewPuback(p.PacketID, 0, nil)
		data, err := ack.Encode(nil, wire.Version(c.version))
		if err != nil {
			return events, err
		}
		events = append(events, SendEvent{Data: data})
	case QosExactlyOnce:
		if _, dup := c.qos2Handled[p.PacketID]; !dup {
			c.qos2Handled[p.PacketID] = struct{}{}
			events = append(events, PacketReceivedEvent{Packet: p})
		}
		rec := wire.NewPubrec(p.PacketID, 0, nil)
		data, err := rec.Encode(nil, wire.Version(c.version))
		if err != nil {
			return events, err
		}
		events = append(events, SendEvent{Data: data})
	}
	return events, nil
}

func (c *Connection) onPuback(p *wire.PubackPacket) []Event {
	c.store.Remove(p.PacketID)
	c.ids.Release(p.PacketID)
	c.outstandingToPeer = decrSat(c.outstandingToPeer)
	return []Event{PacketIDReleasedEvent{PacketID: p.PacketID}}
}

func (c *Connection) onPubrec(p *wire.PubrecPacket) ([]Event, error) {
	if p.ReasonCode >= 0x80 {
		c.store.Remove(p.PacketID)
		c.ids.Release(p.PacketID)
		c.outstandingToPeer = decrSat(c.outstandingToPeer)
		return []Event{
			PacketIDReleasedEvent{PacketID: p.PacketID},
			ErrorEvent{Err: newProtoErrorCode(ErrDisconnectReasonCode, p.ReasonCode, "PUBREC error response")},
		}, nil
	}
	rel := wire.NewPubrel(p.PacketID, 0, nil)
	if err := c.store.SwapToPubrel(p.PacketID, rel); err != nil {
		return nil, err
	}
	data, err := rel.Encode(nil, wire.Version(c.version))
	if err != nil {
		return nil, err
	}
	return []Event{SendEvent{Data: data}}, nil
}

func (c *Connection) onPubrel(p *wire.PubrelPacket) ([]Event, error) {
	delete(c.qos2Handled, p.PacketID)
	comp := wire.NewPubcomp(p.PacketID, 0, nil)
	data, err := comp.Encode(nil, wire.Version(c.version))
	if err != nil {
		return nil, err
	}
	return []Event{SendEvent{Data: data}}, nil
}

func (c *Connection) onPubcomp(p *wire.PubcompPacket) []Event {
	c.store.Remove(p.PacketID)
	c.ids.Release(p.PacketID)
	c.outstandingToPeer = decrSat(c.outstandingToPeer)
	return []Event{PacketIDReleasedEvent{PacketID: p.PacketID}}
}

func (c *Connection) onSuback(p *wire.SubackPacket) []Event {
	c.ids.Release(p.PacketID)
	return []Event{PacketIDReleasedEvent{PacketID: p.PacketID}, PacketReceivedEvent{Packet: p}}
}

func (c *Connection) onUnsuback(p *wire.UnsubackPacket) []Event {
	c.ids.Release(p.PacketID)
	return []Event{PacketIDReleasedEvent{PacketID: p.PacketID}, PacketReceivedEvent{Packet: p}}
}

func (c *Connection) onPingreq() []Event {
	resp := wire.PingrespPacket{}
	data, _ := resp.Encode(nil, wire.Version(c.version))
	return []Event{SendEvent{Data: data}}
}

func (c *Connection) onPingresp() []Event {
	if c.pingOutstanding > 0 {
		c.pingOutstanding--
	}
	return []Event{TimerEvent{Op: TimerCancel, Kind: TimerPingrespRecv}}
}

func (c *Connection) onDisconnect(p *wire.DisconnectPacket) []Event {
	c.status = StatusDisconnected
	c.opts.logger.Debug("received DISCONNECT", "reason", p.ReasonCode)
	if c.role == RoleServer && p.ReasonCode != byte(ReasonDisconnectWithWillMessage) {
		c.willPresent = false
	}
	if p.ReasonCode != 0 {
		return []Event{
			ErrorEvent{Err: newProtoErrorCode(ErrDisconnectReasonCode, p.ReasonCode, "peer sent DISCONNECT")},
			CloseEvent{},
		}
	}
	return []Event{CloseEvent{}}
}

func decrSat(n uint16) uint16 {
	if n == 0 {
		return 0
	}
	return n - 1
}
