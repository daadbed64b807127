package mqttproto

import "github.com/sawyerbrook/mqttproto/internal/wire"

// These aliases re-export the wire codec's packet and property types under
// the root package so a host never needs (and is not permitted, being
// internal/) to import internal/wire directly to type-switch on a
// PacketReceivedEvent.Packet value.
type (
	Packet              = wire.Packet
	PublishPacket       = wire.PublishPacket
	ConnectPacket       = wire.ConnectPacket
	ConnackPacket       = wire.ConnackPacket
	PubackPacket        = wire.PubackPacket
	PubrecPacket        = wire.PubrecPacket
	PubrelPacket        = wire.PubrelPacket
	PubcompPacket       = wire.PubcompPacket
	SubscribePacket     = wire.SubscribePacket
	SubackPacket        = wire.SubackPacket
	UnsubscribePacket   = wire.UnsubscribePacket
	UnsubackPacket      = wire.UnsubackPacket
	PingreqPacket       = wire.PingreqPacket
	PingrespPacket      = wire.PingrespPacket
	DisconnectPacket    = wire.DisconnectPacket
	AuthPacket          = wire.AuthPacket
	Properties          = wire.Properties
	PropertyID          = wire.PropertyID
	StringPair          = wire.StringPair
	Subscription        = wire.Subscription
	SubscriptionOption  = wire.SubscriptionOption
)

const (
	PayloadFormatIndicator = wire.PayloadFormatIndicator
	TopicAlias             = wire.TopicAlias
	UserProperty           = wire.UserProperty
)
