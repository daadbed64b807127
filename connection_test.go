package mqttproto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawyerbrook/mqttproto/internal/sendstore"
	"github.com/sawyerbrook/mqttproto/internal/topicalias"
	"github.com/sawyerbrook/mqttproto/internal/wire"
)

func findSend(events []Event) (SendEvent, bool) {
	for _, e := range events {
		if s, ok := e.(SendEvent); ok {
			return s, true
		}
	}
	return SendEvent{}, false
}

func decodePublish(t *testing.T, events []Event) *wire.PublishPacket {
	t.Helper()
	send, ok := findSend(events)
	require.True(t, ok, "expected a SendEvent")
	h, n, err := wire.DecodeFixedHeader(send.Data)
	require.NoError(t, err)
	p, err := wire.Decode(h, send.Data[n:], wire.V5)
	require.NoError(t, err)
	return p.(*wire.PublishPacket)
}

func TestQoS1RoundTrip(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	_, err := c.NotifyHandshaked()
	require.NoError(t, err)
	_, err = c.Connect(ConnectOptions{ClientID: "client-a"})
	require.NoError(t, err)

	connack := &wire.ConnackPacket{ReasonCode: byte(ReasonSuccess)}
	data, err := connack.Encode(nil, wire.V5)
	require.NoError(t, err)
	_, err = c.Recv(data)
	require.NoError(t, err)
	require.Equal(t, StatusConnected, c.Status())

	events, id, err := c.Publish("a/b", []byte("hello"), QosAtLeastOnce, false, nil)
	require.NoError(t, err)
	assert.NotZero(t, id, "expected non-zero packet id for QoS 1")
	_, ok := findSend(events)
	assert.True(t, ok, "expected a SendEvent for the PUBLISH")
	assert.Equal(t, 1, c.store.Len(), "expected PUBLISH stored awaiting PUBACK")

	ack := wire.NewPuback(id, 0, nil)
	ackData, err := ack.Encode(nil, wire.V5)
	require.NoError(t, err)
	events, err = c.Recv(ackData)
	require.NoError(t, err)

	released := false
	for _, e := range events {
		if r, ok := e.(PacketIDReleasedEvent); ok && r.PacketID == id {
			released = true
		}
	}
	assert.True(t, released, "expected PacketIDReleasedEvent for acknowledged id")
	assert.Zero(t, c.store.Len(), "expected store emptied after PUBACK")
}

func TestQoS2FullFlow(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	c.status = StatusConnected
	c.peerReceiveMax = 10

	events, id, err := c.Publish("x/y", []byte("payload"), QosExactlyOnce, false, nil)
	require.NoError(t, err)
	_, ok := findSend(events)
	require.True(t, ok, "expected SendEvent for PUBLISH")
	entry, ok := c.store.Get(id)
	require.True(t, ok)
	require.NotNil(t, entry.Publish, "expected PUBLISH stored awaiting PUBREC")

	rec := wire.NewPubrec(id, 0, nil)
	recData, err := rec.Encode(nil, wire.V5)
	require.NoError(t, err)
	events, err = c.Recv(recData)
	require.NoError(t, err)

	relSend, ok := findSend(events)
	require.True(t, ok, "expected PUBREL SendEvent in response to PUBREC")
	h, _, err := wire.DecodeFixedHeader(relSend.Data)
	require.NoError(t, err)
	assert.Equal(t, wire.PUBREL, h.Type)

	entry, ok = c.store.Get(id)
	require.True(t, ok)
	assert.Nil(t, entry.Publish, "expected entry swapped to PUBREL")
	assert.NotNil(t, entry.Pubrel)

	comp := wire.NewPubcomp(id, 0, nil)
	compData, err := comp.Encode(nil, wire.V5)
	require.NoError(t, err)
	events, err = c.Recv(compData)
	require.NoError(t, err)

	_, stillStored := c.store.Get(id)
	assert.False(t, stillStored, "expected store entry removed after PUBCOMP")

	released := false
	for _, e := range events {
		if r, ok := e.(PacketIDReleasedEvent); ok && r.PacketID == id {
			released = true
		}
	}
	assert.True(t, released, "expected PacketIDReleasedEvent after PUBCOMP")
}

func TestTopicAliasAutoMapWithLRUEviction(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	c.status = StatusConnected
	c.peerReceiveMax = 100
	c.aliasSend = topicalias.NewSend(1)

	events, _, err := c.Publish("first/topic", nil, QosAtMostOnce, false, nil)
	require.NoError(t, err)
	pkt := decodePublish(t, events)
	assert.Equal(t, "first/topic", pkt.Topic)
	require.NotNil(t, pkt.Properties)
	require.NotNil(t, pkt.Properties.TopicAlias)
	assert.EqualValues(t, 1, *pkt.Properties.TopicAlias)

	events, _, err = c.Publish("second/topic", nil, QosAtMostOnce, false, nil)
	require.NoError(t, err)
	pkt = decodePublish(t, events)
	assert.Equal(t, "second/topic", pkt.Topic, "expected alias 1 evicted to second topic")
	require.NotNil(t, pkt.Properties)
	require.NotNil(t, pkt.Properties.TopicAlias)
	assert.EqualValues(t, 1, *pkt.Properties.TopicAlias)

	events, _, err = c.Publish("second/topic", nil, QosAtMostOnce, false, nil)
	require.NoError(t, err)
	pkt = decodePublish(t, events)
	assert.Empty(t, pkt.Topic, "expected alias-only publish reusing mapping")
	require.NotNil(t, pkt.Properties)
	require.NotNil(t, pkt.Properties.TopicAlias)
	assert.EqualValues(t, 1, *pkt.Properties.TopicAlias)
}

func TestKeepAliveServerTimeoutClosesConnection(t *testing.T) {
	c := NewConnection(RoleServer, ProtocolV5, WithKeepAlive(30*time.Second))
	c.status = StatusConnected

	events, err := c.Tick(TimerPingreqRecv)
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, c.Status())

	var sawClose, sawErr bool
	for _, e := range events {
		switch ev := e.(type) {
		case CloseEvent:
			sawClose = true
		case ErrorEvent:
			sawErr = true
			var pe *ProtoError
			require.ErrorAs(t, ev.Err, &pe)
			assert.Equal(t, ErrDisconnectReasonCode, pe.Kind)
		}
	}
	assert.True(t, sawClose)
	assert.True(t, sawErr)
}

func TestSessionResumeRetransmitsStoredPubrel(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	rel := &PubrelPacket{PacketID: 42}
	err := c.RestorePackets([]StoredPacket{
		{PacketID: 42, Waiting: sendstore.ResponseType(wire.PUBCOMP), Pubrel: rel},
	})
	require.NoError(t, err)
	assert.True(t, c.ids.InUse(42))

	events, err := c.Retransmit()
	require.NoError(t, err)
	send, ok := findSend(events)
	require.True(t, ok, "expected SendEvent for the stored PUBREL")
	h, _, err := wire.DecodeFixedHeader(send.Data)
	require.NoError(t, err)
	assert.Equal(t, wire.PUBREL, h.Type)
}

func TestRestorePacketsRejectsConflictingID(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	require.NoError(t, c.ids.Reserve(7))

	err := c.RestorePackets([]StoredPacket{{PacketID: 7, Publish: &PublishPacket{PacketID: 7, Qos: 1}}})
	assert.ErrorIs(t, err, ErrPacketIdentifierConflict)
}

func TestRecvRejectsMalformedRemainingLength(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	// A fixed header whose remaining-length field never terminates (all
	// four continuation bytes carry the continuation bit) is malformed.
	bad := []byte{byte(wire.PINGREQ) << 4, 0xFF, 0xFF, 0xFF, 0xFF}
	_, err := c.Recv(bad)
	assert.Error(t, err)
}

func TestPublishRejectsInvalidTopic(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	c.status = StatusConnected
	_, _, err := c.Publish("a/+/b", nil, QosAtMostOnce, false, nil)
	assert.ErrorIs(t, err, ErrTopicNameInvalid)
}

func TestPublishQueuesWhileDisconnected(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	_, id, err := c.Publish("a/b", []byte("x"), QosAtLeastOnce, false, nil)
	assert.ErrorIs(t, err, ErrPacketEnqueued)
	assert.NotZero(t, id, "expected a reserved packet id for the queued publish")
	assert.Len(t, c.offlineQueue, 1)
}

func TestConnectRequiresNotifyHandshaked(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	_, err := c.Connect(ConnectOptions{ClientID: "client-a"})
	assert.Error(t, err, "expected Connect to reject a Connection never notified of a completed handshake")

	_, err = c.NotifyHandshaked()
	require.NoError(t, err)
	_, err = c.Connect(ConnectOptions{ClientID: "client-a"})
	assert.NoError(t, err, "expected Connect to succeed once NotifyHandshaked ran")
}

func TestNotifyClosedPreservesStoreWhenSessionPersistent(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	c.status = StatusConnected
	c.peerReceiveMax = 10
	_, _, err := c.Publish("a/b", []byte("x"), QosAtLeastOnce, false, nil)
	require.NoError(t, err)
	require.Equal(t, 1, c.store.Len())

	_, err = c.NotifyClosed(true)
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.Equal(t, 1, c.store.Len(), "expected stored entries to survive a persistent-session close")
	assert.Zero(t, c.outstandingToPeer, "expected flow-control counters cleared on any close")
}

func TestPublishPopulatesReleaseIDForQoS1(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	c.status = StatusConnected
	c.peerReceiveMax = 10

	events, id, err := c.Publish("a/b", []byte("x"), QosAtLeastOnce, false, nil)
	require.NoError(t, err)
	send, ok := findSend(events)
	require.True(t, ok)
	assert.Equal(t, id, send.ReleaseID, "expected SendEvent.ReleaseID to carry the allocated packet id")

	qos0Events, qos0ID, err := c.Publish("a/b", []byte("x"), QosAtMostOnce, false, nil)
	require.NoError(t, err)
	assert.Zero(t, qos0ID)
	qos0Send, ok := findSend(qos0Events)
	require.True(t, ok)
	assert.Zero(t, qos0Send.ReleaseID, "expected no release id for a QoS 0 publish")
}

func TestReleaseFailedSendFreesIDAndStoreEntry(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	c.status = StatusConnected
	c.peerReceiveMax = 10

	_, id, err := c.Publish("a/b", []byte("x"), QosAtLeastOnce, false, nil)
	require.NoError(t, err)
	require.Equal(t, 1, c.store.Len())
	require.True(t, c.ids.InUse(id))

	events := c.ReleaseFailedSend(id)
	released := false
	for _, e := range events {
		if r, ok := e.(PacketIDReleasedEvent); ok && r.PacketID == id {
			released = true
		}
	}
	assert.True(t, released)
	assert.Zero(t, c.store.Len(), "expected the store entry dropped")
	assert.False(t, c.ids.InUse(id), "expected the packet id freed")
}

func TestClientArmsPingreqSendTimerOnConnect(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(20*time.Second))
	_, err := c.NotifyHandshaked()
	require.NoError(t, err)
	events, err := c.Connect(ConnectOptions{ClientID: "client-a"})
	require.NoError(t, err)

	var sawTimer bool
	for _, e := range events {
		if te, ok := e.(TimerEvent); ok && te.Kind == TimerPingreqSend && te.Op == TimerReset {
			sawTimer = true
		}
	}
	assert.True(t, sawTimer, "expected Connect to arm the client's pingreq-send timer")
}

func TestServerOnlyResetsPingreqRecvTimer(t *testing.T) {
	client := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(10*time.Second))
	client.status = StatusConnected
	pkt := wire.PingreqPacket{}
	data, err := pkt.Encode(nil, wire.V5)
	require.NoError(t, err)

	events, err := client.Recv(data)
	require.NoError(t, err)
	for _, e := range events {
		if te, ok := e.(TimerEvent); ok && te.Kind == TimerPingreqRecv {
			t.Fatalf("did not expect a client-role Connection to drive TimerPingreqRecv, got %+v", te)
		}
	}

	server := NewConnection(RoleServer, ProtocolV5, WithKeepAlive(10*time.Second))
	server.status = StatusConnected
	events, err = server.Recv(data)
	require.NoError(t, err)
	var sawTimer bool
	for _, e := range events {
		if te, ok := e.(TimerEvent); ok && te.Kind == TimerPingreqRecv && te.Op == TimerReset {
			sawTimer = true
		}
	}
	assert.True(t, sawTimer, "expected a server-role Connection to reset pingreq-recv on an inbound packet")
}

func TestKeepAliveTimeoutSendsDisconnectBeforeClose(t *testing.T) {
	c := NewConnection(RoleServer, ProtocolV311, WithKeepAlive(30*time.Second))
	c.status = StatusConnected

	events, err := c.Tick(TimerPingreqRecv)
	require.NoError(t, err)

	send, ok := findSend(events)
	require.True(t, ok, "expected a SendEvent for DISCONNECT before the close")
	h, _, err := wire.DecodeFixedHeader(send.Data)
	require.NoError(t, err)
	assert.Equal(t, wire.DISCONNECT, h.Type)

	sendIdx, closeIdx := -1, -1
	for i, e := range events {
		switch e.(type) {
		case SendEvent:
			sendIdx = i
		case CloseEvent:
			closeIdx = i
		}
	}
	require.NotEqual(t, -1, closeIdx)
	assert.Less(t, sendIdx, closeIdx, "expected DISCONNECT sent before the transport is closed")
}

func TestSubscribeUnsubscribePingRejectServerRole(t *testing.T) {
	c := NewConnection(RoleServer, ProtocolV5, WithKeepAlive(0))
	c.status = StatusConnected

	_, _, err := c.Subscribe([]Subscription{{Filter: "a/b"}}, nil)
	assert.Error(t, err, "expected a server-role Connection to reject Subscribe")

	_, _, err = c.Unsubscribe([]string{"a/b"}, nil)
	assert.Error(t, err, "expected a server-role Connection to reject Unsubscribe")

	_, err = c.Ping()
	assert.Error(t, err, "expected a server-role Connection to reject Ping")
}

func TestNotifyClosedClearsStoreWhenSessionNotPersistent(t *testing.T) {
	c := NewConnection(RoleClient, ProtocolV5, WithKeepAlive(0))
	c.status = StatusConnected
	c.peerReceiveMax = 10
	_, _, err := c.Publish("a/b", []byte("x"), QosAtLeastOnce, false, nil)
	require.NoError(t, err)
	require.Equal(t, 1, c.store.Len())

	_, err = c.NotifyClosed(false)
	require.NoError(t, err)
	assert.Zero(t, c.store.Len(), "expected stored entries cleared on a non-persistent close")

	_, err = c.NotifyHandshaked()
	require.NoError(t, err)
	_, err = c.Connect(ConnectOptions{ClientID: "client-a"})
	assert.NoError(t, err, "expected Connect allowed again after a fresh handshake notification")
}
