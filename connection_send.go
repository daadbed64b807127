package mqttproto

import (
	"time"

	"github.com/sawyerbrook/mqttproto/internal/wire"
)

// Connect builds and returns the events for sending a CONNECT packet. A
// server-role Connection rejects the call; it learns of the peer's CONNECT
// through Recv.
func (c *Connection) Connect(o ConnectOptions) ([]Event, error) {
	if c.role != RoleClient {
		return nil, newProtoError(ErrProtocolError, "Connect is only called by a client-role Connection")
	}
	if c.status != StatusDisconnected {
		return nil, newProtoError(ErrProtocolError, "Connect called while not disconnected")
	}
	if !c.handshaked {
		return nil, newProtoError(ErrProtocolError, "Connect called before NotifyHandshaked")
	}

	c.clientID = assignClientID(o.ClientID)
	c.willPresent = o.WillTopic != ""

	pkt := &wire.ConnectPacket{
		Version:     wire.Version(c.version),
		CleanStart:  o.CleanStart,
		KeepAlive:   uint16(c.opts.keepAlive / time.Second),
		ClientID:    c.clientID,
		Properties:  toWireConnectProps(c.opts, o.Properties),
		HasUsername: o.HasUsername,
		Username:    o.Username,
		HasPassword: o.HasPassword,
		Password:    o.Password,
	}
	if c.willPresent {
		pkt.WillFlag = true
		pkt.WillTopic = o.WillTopic
		pkt.WillPayload = o.WillPayload
		pkt.WillQos = byte(o.WillQos)
		pkt.WillRetain = o.WillRetain
		pkt.WillProperties = o.WillProperties
	}

	data, err := pkt.Encode(nil, wire.Version(c.version))
	if err != nil {
		return nil, err
	}

	c.status = StatusConnecting
	c.opts.logger.Debug("sending CONNECT", "client_id", c.clientID, "clean_start", o.CleanStart)
	events := []Event{SendEvent{Data: data}}
	events = c.armPingreqSend(events)
	return events, nil
}

// armPingreqSend appends the TimerEvent that (re)arms the client-role
// keep-alive ping timer after sending a packet, since MQTT keep-alive is
// measured from the time of the most recently sent packet, not a
// free-running interval. It is a no-op for the server role (pingreq-send is
// client-only; the server side is pingreq-recv, driven from the receive
// path) or when keep-alive is disabled.
func (c *Connection) armPingreqSend(events []Event) []Event {
	if c.role != RoleClient || c.opts.keepAlive <= 0 {
		return events
	}
	return append(events, TimerEvent{Op: TimerReset, Kind: TimerPingreqSend, Duration: c.opts.keepAlive})
}

// toWireConnectProps merges the locally-advertised ReceiveMaximum and
// TopicAliasMaximum into whatever CONNECT properties the caller supplied.
func toWireConnectProps(o connectionOptions, user *Properties) *Properties {
	p := &Properties{}
	if user != nil {
		*p = *user
	}
	rm := o.receiveMaximum
	if rm == 0 {
		rm = 65535
	}
	p.ReceiveMaximum = &rm
	if o.topicAliasMaximum > 0 {
		tam := o.topicAliasMaximum
		p.TopicAliasMaximum = &tam
	}
	return p
}

// Publish sends (or, if disconnected and qos>=1, queues) an application
// PUBLISH. The returned packet id is 0 for QoS 0.
func (c *Connection) Publish(topic string, payload []byte, qos Qos, retain bool, props *Properties) ([]Event, uint16, error) {
	if err := validateTopicName(topic, c.remainingMaxTopic()); err != nil {
		return nil, 0, err
	}
	if err := validatePayloadSize(payload, c.remainingMaxPayload()); err != nil {
		return nil, 0, err
	}

	pkt := &wire.PublishPacket{
		Qos:        byte(qos),
		Retain:     retain,
		Topic:      topic,
		Properties: props,
		Payload:    payload,
	}

	if c.version == ProtocolV5 && c.aliasSend != nil {
		alias, sendTopic := c.aliasSend.Resolve(topic)
		if alias > 0 {
			if pkt.Properties == nil {
				pkt.Properties = &Properties{}
			}
			a := alias
			pkt.Properties.TopicAlias = &a
			if !sendTopic {
				pkt.Topic = ""
			}
		}
	}

	if qos > QosAtMostOnce {
		id, ok := c.ids.Acquire()
		if !ok {
			return nil, 0, newProtoError(ErrPacketIdentifierSpaceExhausted, "packet identifier space exhausted")
		}
		pkt.PacketID = id
	}

	if c.status != StatusConnected {
		if qos == QosAtMostOnce {
			return nil, 0, newProtoError(ErrConnectionReset, "not connected; QoS 0 publish dropped")
		}
		if c.opts.offlineQueueSize > 0 && len(c.offlineQueue) >= c.opts.offlineQueueSize {
			return nil, 0, newProtoError(ErrPacketEnqueued, "offline queue full")
		}
		c.offlineQueue = append(c.offlineQueue, pkt)
		return nil, pkt.PacketID, newProtoError(ErrPacketEnqueued, "queued for delivery once connected")
	}

	if qos > QosAtMostOnce {
		if c.outstandingToPeerWouldExceed() {
			c.ids.Release(pkt.PacketID)
			return nil, 0, newProtoError(ErrReceiveMaximumExceeded, "peer receive maximum would be exceeded")
		}
		c.store.PutPublish(pkt)
		c.outstandingToPeer++
	}

	data, err := pkt.Encode(nil, wire.Version(c.version))
	if err != nil {
		return nil, 0, err
	}
	events := c.armPingreqSend([]Event{SendEvent{Data: data, ReleaseID: pkt.PacketID}})
	return events, pkt.PacketID, nil
}

func (c *Connection) outstandingToPeerWouldExceed() bool {
	max := c.peerReceiveMax
	if max == 0 {
		max = 65535
	}
	return c.outstandingToPeer >= max
}

// Subscribe sends a SUBSCRIBE with the given filters and returns its
// packet id.
func (c *Connection) Subscribe(subs []Subscription, props *Properties) ([]Event, uint16, error) {
	if c.role != RoleClient {
		return nil, 0, newProtoError(ErrProtocolError, "Subscribe is only called by a client-role Connection")
	}
	for _, s := range subs {
		if err := validateTopicFilter(s.Filter, c.remainingMaxTopic()); err != nil {
			return nil, 0, err
		}
	}
	id, ok := c.ids.Acquire()
	if !ok {
		return nil, 0, newProtoError(ErrPacketIdentifierSpaceExhausted, "packet identifier space exhausted")
	}
	pkt := &wire.SubscribePacket{PacketID: id, Properties: props, Subscriptions: subs}
	data, err := pkt.Encode(nil, wire.Version(c.version))
	if err != nil {
		c.ids.Release(id)
		return nil, 0, err
	}
	events := c.armPingreqSend([]Event{SendEvent{Data: data, ReleaseID: id}})
	return events, id, nil
}

// Unsubscribe sends an UNSUBSCRIBE for the given filters.
func (c *Connection) Unsubscribe(filters []string, props *Properties) ([]Event, uint16, error) {
	if c.role != RoleClient {
		return nil, 0, newProtoError(ErrProtocolError, "Unsubscribe is only called by a client-role Connection")
	}
	for _, f := range filters {
		if err := validateTopicFilter(f, c.remainingMaxTopic()); err != nil {
			return nil, 0, err
		}
	}
	id, ok := c.ids.Acquire()
	if !ok {
		return nil, 0, newProtoError(ErrPacketIdentifierSpaceExhausted, "packet identifier space exhausted")
	}
	pkt := &wire.UnsubscribePacket{PacketID: id, Properties: props, Filters: filters}
	data, err := pkt.Encode(nil, wire.Version(c.version))
	if err != nil {
		c.ids.Release(id)
		return nil, 0, err
	}
	events := c.armPingreqSend([]Event{SendEvent{Data: data, ReleaseID: id}})
	return events, id, nil
}

// Disconnect sends DISCONNECT and transitions to StatusDisconnecting; the
// host should close the transport once the returned Send event is
// flushed, or wait for a CloseEvent if one follows.
func (c *Connection) Disconnect(o DisconnectOptions) ([]Event, error) {
	pkt := &wire.DisconnectPacket{ReasonCode: byte(o.ReasonCode), Properties: o.Properties}
	data, err := pkt.Encode(nil, wire.Version(c.version))
	if err != nil {
		return nil, err
	}
	if o.ReasonCode != ReasonDisconnectWithWillMessage {
		c.willPresent = false
	}
	c.status = StatusDisconnecting
	c.opts.logger.Debug("sending DISCONNECT", "reason", o.ReasonCode)
	cancelKind := TimerPingreqRecv
	if c.role == RoleClient {
		cancelKind = TimerPingreqSend
	}
	return []Event{
		SendEvent{Data: data},
		TimerEvent{Op: TimerCancel, Kind: cancelKind},
		TimerEvent{Op: TimerReset, Kind: TimerCloseByDisconnect, Duration: disconnectGrace},
	}, nil
}

// Auth sends an AUTH packet continuing or re-initiating an extended
// authentication exchange (MQTT v5 4.12). The actual challenge/response
// contents live in props; this engine only frames and sends them.
func (c *Connection) Auth(reasonCode ReasonCode, props *Properties) ([]Event, error) {
	if c.version != ProtocolV5 {
		return nil, newProtoError(ErrProtocolError, "AUTH requires protocol version 5")
	}
	pkt := &wire.AuthPacket{ReasonCode: byte(reasonCode), Properties: props}
	data, err := pkt.Encode(nil, wire.Version(c.version))
	if err != nil {
		return nil, err
	}
	return []Event{SendEvent{Data: data}}, nil
}

// Ping sends a PINGREQ and arms the ping-response timeout.
func (c *Connection) Ping() ([]Event, error) {
	if c.role != RoleClient {
		return nil, newProtoError(ErrProtocolError, "Ping is only called by a client-role Connection")
	}
	if c.status != StatusConnected {
		return nil, newProtoError(ErrProtocolError, "Ping called while not connected")
	}
	pkt := wire.PingreqPacket{}
	data, err := pkt.Encode(nil, wire.Version(c.version))
	if err != nil {
		return nil, err
	}
	c.pingOutstanding++
	events := []Event{
		SendEvent{Data: data},
		TimerEvent{Op: TimerReset, Kind: TimerPingrespRecv, Duration: pingTimeout(c.opts)},
	}
	return c.armPingreqSend(events), nil
}
