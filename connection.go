package mqttproto

import (
	"time"

	"github.com/google/uuid"
	"github.com/sawyerbrook/mqttproto/internal/assembler"
	"github.com/sawyerbrook/mqttproto/internal/packetid"
	"github.com/sawyerbrook/mqttproto/internal/sendstore"
	"github.com/sawyerbrook/mqttproto/internal/topicalias"
	"github.com/sawyerbrook/mqttproto/internal/wire"
)

// disconnectGrace bounds how long the host waits for the transport to
// finish flushing a DISCONNECT before forcing it closed.
const disconnectGrace = 2 * time.Second

// Status is the connection's position in the MQTT session lifecycle.
type Status uint8

const (
	StatusDisconnected Status = iota
	StatusConnecting          // CONNECT sent, CONNACK pending (client role only; a server-role Connection moves straight to StatusConnected on receiving CONNECT)
	StatusConnected
	StatusDisconnecting // DISCONNECT sent, waiting for transport close
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}

// Connection is the sans-I/O MQTT engine. It holds no transport and starts
// no goroutines; every public method is a synchronous call that returns
// the events the host must act on.
type Connection struct {
	role    Role
	version ProtocolVersion
	opts    connectionOptions

	status Status

	assembler assembler.Assembler

	ids         *packetid.Allocator
	store       *sendstore.Store
	aliasSend   *topicalias.Send
	aliasRecv   *topicalias.Recv
	qos2Handled map[uint16]struct{}

	offlineQueue []*wire.PublishPacket

	peerReceiveMax    uint16
	outstandingToPeer uint16 // count of our unacked QoS>=1 sends the peer has not yet acked, bounded by peerReceiveMax

	pingOutstanding int
	willPresent     bool
	handshaked      bool

	clientID string
}

// NewConnection constructs a Connection for the given role and protocol
// version with default options overridden by opts, in the order given.
func NewConnection(role Role, version ProtocolVersion, opts ...Option) *Connection {
	o := defaultConnectionOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Connection{
		role:        role,
		version:     version,
		opts:        o,
		qos2Handled: make(map[uint16]struct{}),
		ids:         packetid.New(),
		store:       sendstore.New(),
		aliasRecv:   topicalias.NewRecv(o.topicAliasMaximum),
		peerReceiveMax: 65535,
	}
	c.assembler.MaxPacketSize = o.maxPacketSize
	return c
}

// Status reports the connection's current lifecycle position.
func (c *Connection) Status() Status { return c.status }

// Role reports which side of the connection this engine instance plays.
func (c *Connection) Role() Role { return c.role }

// Version reports the negotiated MQTT protocol version.
func (c *Connection) Version() ProtocolVersion { return c.version }

// WillWaived reports whether the current session's will message (if any)
// has been waived by a clean DISCONNECT, so the host knows not to publish
// it on transport loss.
func (c *Connection) WillWaived() bool {
	return !c.willPresent
}

func (c *Connection) remainingMaxTopic() int  { return c.opts.maxTopicLength }
func (c *Connection) remainingMaxPayload() int { return c.opts.maxPayloadSize }

// NotifyHandshaked tells a client-role Connection that the transport's own
// handshake (TCP connect, TLS handshake, WebSocket upgrade, whatever the
// host's transport requires before any bytes may be written) has completed,
// so CONNECT is now allowed to be sent. Like every other Connection method
// it runs synchronously and returns no events of its own.
func (c *Connection) NotifyHandshaked() ([]Event, error) {
	if c.role != RoleClient {
		return nil, newProtoError(ErrProtocolError, "NotifyHandshaked is only called by a client-role Connection")
	}
	c.handshaked = true
	return nil, nil
}

// NotifyClosed tells the Connection that the host observed (or itself
// caused) the underlying transport closing. It unconditionally clears
// packet-id, topic-alias, and flow-control state, since none of that can
// mean anything once the transport that carried it is gone. sessionPersistent
// tells it whether the host intends to resume this session on a future
// reconnect: when true, the send store and QoS-2 dedup set survive for
// replay; when false, they are cleared too.
func (c *Connection) NotifyClosed(sessionPersistent bool) ([]Event, error) {
	c.status = StatusDisconnected
	c.handshaked = false
	c.ids.Clear()
	if c.aliasSend != nil {
		c.aliasSend.Reset()
	}
	c.aliasRecv.Reset()
	c.outstandingToPeer = 0
	c.pingOutstanding = 0
	if !sessionPersistent {
		c.store.Clear()
		c.qos2Handled = make(map[uint16]struct{})
	}
	return nil, nil
}

// ReleaseFailedSend releases a packet id that the host failed to actually
// write to the transport after a send-path method returned a SendEvent
// carrying a non-zero ReleaseID, and drops any send-store entry holding
// it, so the id isn't reserved forever for a packet the peer never saw.
// Per the transport contract the host must call this, if the event
// carried a non-zero ReleaseID, before NotifyClosed.
func (c *Connection) ReleaseFailedSend(id uint16) []Event {
	if id == 0 {
		return nil
	}
	c.store.Remove(id)
	c.ids.Release(id)
	c.outstandingToPeer = decrSat(c.outstandingToPeer)
	return []Event{PacketIDReleasedEvent{PacketID: id}}
}

func assignClientID(id string) string {
	if id != "" {
		return id
	}
	full := uuid.NewString()
	if len(full) > MaxClientIDLength {
		return full[:MaxClientIDLength]
	}
	return full
}

func pingTimeout(o connectionOptions) time.Duration {
	if o.pingTimeout > 0 {
		return o.pingTimeout
	}
	return o.keepAlive / 2
}
