package mqttproto

import (
	"io"
	"log/slog"
	"time"
)

// Option configures a Connection at construction time, following the
// functional-options pattern used throughout this codebase's teacher
// lineage: each Option mutates a connectionOptions value, and NewConnection
// applies a set of defaults before any caller-supplied Option runs.
type Option func(*connectionOptions)

type connectionOptions struct {
	keepAlive         time.Duration
	receiveMaximum    uint16
	topicAliasMaximum uint16
	maxPacketSize     uint32
	maxTopicLength    int
	maxPayloadSize    int
	offlineQueueSize  int
	pingTimeout       time.Duration
	logger            *slog.Logger
}

func defaultConnectionOptions() connectionOptions {
	return connectionOptions{
		keepAlive:         60 * time.Second,
		receiveMaximum:    65535,
		topicAliasMaximum: 0,
		maxPacketSize:     0, // 0 = DefaultMaxIncomingPacket
		maxTopicLength:    DefaultMaxTopicLength,
		maxPayloadSize:    DefaultMaxPayloadSize,
		offlineQueueSize:  0, // 0 = unbounded
		pingTimeout:       0, // 0 = keepAlive/2, computed lazily
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithKeepAlive sets the keep-alive interval advertised on CONNECT (client
// role) or enforced against an inbound CONNECT (server role). Zero
// disables keep-alive entirely.
func WithKeepAlive(d time.Duration) Option {
	return func(o *connectionOptions) { o.keepAlive = d }
}

// WithReceiveMaximum bounds how many QoS>=1 exchanges this side will have
// outstanding from the peer at once (the value sent in the local
// ReceiveMaximum property). Defaults to 65535 (the v3.1.1/no-property
// behavior) when left zero.
func WithReceiveMaximum(n uint16) Option {
	return func(o *connectionOptions) { o.receiveMaximum = n }
}

// WithTopicAliasMaximum bounds how many aliases this side will accept on
// received PUBLISH packets. Zero (the default) disables receive-side
// aliasing.
func WithTopicAliasMaximum(n uint16) Option {
	return func(o *connectionOptions) { o.topicAliasMaximum = n }
}

// WithMaxPacketSize bounds the size of an incoming packet the assembler
// will frame before reporting PacketTooLarge. Zero means
// DefaultMaxIncomingPacket.
func WithMaxPacketSize(n uint32) Option {
	return func(o *connectionOptions) { o.maxPacketSize = n }
}

// WithMaxTopicLength overrides DefaultMaxTopicLength for topic name/filter
// validation.
func WithMaxTopicLength(n int) Option {
	return func(o *connectionOptions) { o.maxTopicLength = n }
}

// WithMaxPayloadSize overrides DefaultMaxPayloadSize for outgoing and
// incoming PUBLISH payloads.
func WithMaxPayloadSize(n int) Option {
	return func(o *connectionOptions) { o.maxPayloadSize = n }
}

// WithOfflineQueueSize bounds the number of QoS>=1 publishes queued while
// disconnected. Zero means unbounded; the offline queue never holds QoS 0
// publishes regardless of this setting (spec-resolved: QoS 0 is never
// durable).
func WithOfflineQueueSize(n int) Option {
	return func(o *connectionOptions) { o.offlineQueueSize = n }
}

// WithPingTimeout sets how long the connection waits for PINGRESP after
// sending PINGREQ before treating the link as dead. Zero means half the
// keep-alive interval.
func WithPingTimeout(d time.Duration) Option {
	return func(o *connectionOptions) { o.pingTimeout = d }
}

// WithLogger sets the logger the Connection uses for low-volume internal
// diagnostics (state transitions, retransmits). Defaults to a discarding
// logger so a host that never calls this sees no output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *connectionOptions) { o.logger = logger }
}

// ConnectOptions parameterizes Connection.Connect.
type ConnectOptions struct {
	ClientID       string
	CleanStart     bool
	Username       string
	HasUsername    bool
	Password       []byte
	HasPassword    bool
	WillTopic      string
	WillPayload    []byte
	WillQos        Qos
	WillRetain     bool
	WillProperties *Properties
	Properties     *Properties
}

// DisconnectOptions parameterizes Connection.Disconnect.
type DisconnectOptions struct {
	ReasonCode ReasonCode
	Properties *Properties
}
