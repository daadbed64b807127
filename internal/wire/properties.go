package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// PropertyID identifies one of the 27 MQTT v5.0 properties.
type PropertyID byte

const (
	PayloadFormatIndicator          PropertyID = 1
	MessageExpiryInterval           PropertyID = 2
	ContentType                     PropertyID = 3
	ResponseTopic                   PropertyID = 8
	CorrelationData                 PropertyID = 9
	SubscriptionIdentifier          PropertyID = 11
	SessionExpiryInterval           PropertyID = 17
	AssignedClientIdentifier        PropertyID = 18
	ServerKeepAlive                 PropertyID = 19
	AuthenticationMethod            PropertyID = 21
	AuthenticationData              PropertyID = 22
	RequestProblemInformation       PropertyID = 23
	WillDelayInterval               PropertyID = 24
	RequestResponseInformation      PropertyID = 25
	ResponseInformation             PropertyID = 26
	ServerReference                 PropertyID = 28
	ReasonString                    PropertyID = 31
	ReceiveMaximum                  PropertyID = 33
	TopicAliasMaximum               PropertyID = 34
	TopicAlias                      PropertyID = 35
	MaximumQoS                      PropertyID = 36
	RetainAvailable                 PropertyID = 37
	UserProperty                    PropertyID = 38
	MaximumPacketSize               PropertyID = 39
	WildcardSubscriptionAvailable   PropertyID = 40
	SubscriptionIdentifierAvailable PropertyID = 41
	SharedSubscriptionAvailable     PropertyID = 42
)

// propKind is the wire representation of a property's value.
type propKind byte

const (
	kindByte propKind = iota
	kindU16
	kindU32
	kindVarInt
	kindString
	kindBinary
	kindStringPair
)

type propMeta struct {
	kind       propKind
	repeatable bool
	locations  map[PacketType]bool
}

// loc builds a location set from a list of packet types.
func loc(types ...PacketType) map[PacketType]bool {
	m := make(map[PacketType]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

var propertyTable = map[PropertyID]propMeta{
	PayloadFormatIndicator:          {kindByte, false, loc(PUBLISH)},
	MessageExpiryInterval:           {kindU32, false, loc(PUBLISH)},
	ContentType:                     {kindString, false, loc(PUBLISH)},
	ResponseTopic:                   {kindString, false, loc(PUBLISH)},
	CorrelationData:                 {kindBinary, false, loc(PUBLISH)},
	SubscriptionIdentifier:          {kindVarInt, false, loc(PUBLISH, SUBSCRIBE)},
	SessionExpiryInterval:           {kindU32, false, loc(CONNECT, CONNACK, DISCONNECT)},
	AssignedClientIdentifier:        {kindString, false, loc(CONNACK)},
	ServerKeepAlive:                 {kindU16, false, loc(CONNACK)},
	AuthenticationMethod:            {kindString, false, loc(CONNECT, CONNACK, AUTH)},
	AuthenticationData:              {kindBinary, false, loc(CONNECT, CONNACK, AUTH)},
	RequestProblemInformation:       {kindByte, false, loc(CONNECT)},
	WillDelayInterval:               {kindU32, false, loc(CONNECT)},
	RequestResponseInformation:      {kindByte, false, loc(CONNECT)},
	ResponseInformation:             {kindString, false, loc(CONNACK)},
	ServerReference:                 {kindString, false, loc(CONNACK, DISCONNECT)},
	ReasonString: {kindString, false, loc(CONNACK, PUBACK, PUBREC, PUBREL, PUBCOMP,
		SUBACK, UNSUBACK, DISCONNECT, AUTH)},
	ReceiveMaximum:    {kindU16, false, loc(CONNECT, CONNACK)},
	TopicAliasMaximum: {kindU16, false, loc(CONNECT, CONNACK)},
	TopicAlias:        {kindU16, false, loc(PUBLISH)},
	MaximumQoS:        {kindByte, false, loc(CONNACK)},
	RetainAvailable:   {kindByte, false, loc(CONNACK)},
	UserProperty: {kindStringPair, true, loc(CONNECT, CONNACK, PUBLISH, PUBACK, PUBREC,
		PUBREL, PUBCOMP, SUBSCRIBE, SUBACK, UNSUBSCRIBE, UNSUBACK, DISCONNECT, AUTH)},
	MaximumPacketSize:               {kindU32, false, loc(CONNECT, CONNACK)},
	WildcardSubscriptionAvailable:   {kindByte, false, loc(CONNACK)},
	SubscriptionIdentifierAvailable: {kindByte, false, loc(CONNACK)},
	SharedSubscriptionAvailable:     {kindByte, false, loc(CONNACK)},
}

// StringPair is a MQTT User Property key/value pair.
type StringPair struct {
	Key   string
	Value string
}

// Properties holds the decoded property set of one packet. Presence is a
// bitmask indexed by PropertyID so callers can test for a property without
// a nil-pointer check; the pointer fields below carry the value when
// present. UserProperties is separate because it is the one repeatable
// property.
type Properties struct {
	Presence uint64

	PayloadFormatIndicator     *byte
	MessageExpiryInterval      *uint32
	ContentType                *string
	ResponseTopic              *string
	CorrelationData            []byte
	SubscriptionIdentifier     *uint32
	SessionExpiryInterval      *uint32
	AssignedClientIdentifier   *string
	ServerKeepAlive            *uint16
	AuthenticationMethod       *string
	AuthenticationData         []byte
	RequestProblemInformation  *byte
	WillDelayInterval          *uint32
	RequestResponseInformation *byte
	ResponseInformation        *string
	ServerReference            *string
	ReasonString               *string
	ReceiveMaximum             *uint16
	TopicAliasMaximum          *uint16
	TopicAlias                 *uint16
	MaximumQoS                 *byte
	RetainAvailable            *byte
	UserProperties             []StringPair
	MaximumPacketSize          *uint32
	WildcardSubAvailable       *byte
	SubIDAvailable             *byte
	SharedSubAvailable         *byte
}

// Has reports whether property id was present when this value was decoded.
func (p *Properties) Has(id PropertyID) bool {
	return p.Presence&(1<<uint(id)) != 0
}

func (p *Properties) set(id PropertyID) {
	p.Presence |= 1 << uint(id)
}

var (
	ErrPropertyNotAllowedHere  = errors.New("wire: property not allowed in this packet")
	ErrPropertyDuplicate       = errors.New("wire: non-repeatable property appears twice")
	ErrPropertyUnknown         = errors.New("wire: unknown property identifier")
	ErrPropertyMalformed       = errors.New("wire: malformed property value")
)

// EncodeProperties appends the variable-byte-integer length prefix followed
// by each present property, in field-declaration order, to dst. Unlike
// DecodeProperties it takes no packet type and checks no allow-list: the
// caller is trusted to have only set fields legal for its packet.
func EncodeProperties(dst []byte, p *Properties) ([]byte, error) {
	if p == nil {
		return AppendVarInt(dst, 0)
	}
	body := GetBuffer()
	defer PutBuffer(body)

	appendByteProp := func(id PropertyID, v *byte) {
		if v != nil {
			body = append(body, byte(id), *v)
		}
	}
	appendU16Prop := func(id PropertyID, v *uint16) {
		if v != nil {
			body = append(body, byte(id))
			body = binary.BigEndian.AppendUint16(body, *v)
		}
	}
	appendU32Prop := func(id PropertyID, v *uint32) {
		if v != nil {
			body = append(body, byte(id))
			body = binary.BigEndian.AppendUint32(body, *v)
		}
	}
	appendVarIntProp := func(id PropertyID, v *uint32) error {
		if v == nil {
			return nil
		}
		body = append(body, byte(id))
		var err error
		body, err = AppendVarInt(body, *v)
		return err
	}
	appendStringProp := func(id PropertyID, v *string) {
		if v != nil {
			body = append(body, byte(id))
			body = AppendString(body, *v)
		}
	}
	appendBinaryProp := func(id PropertyID, v []byte) {
		if v != nil {
			body = append(body, byte(id))
			body = AppendBinary(body, v)
		}
	}

	appendByteProp(PayloadFormatIndicator, p.PayloadFormatIndicator)
	appendU32Prop(MessageExpiryInterval, p.MessageExpiryInterval)
	appendStringProp(ContentType, p.ContentType)
	appendStringProp(ResponseTopic, p.ResponseTopic)
	appendBinaryProp(CorrelationData, p.CorrelationData)
	if err := appendVarIntProp(SubscriptionIdentifier, p.SubscriptionIdentifier); err != nil {
		return dst, err
	}
	appendU32Prop(SessionExpiryInterval, p.SessionExpiryInterval)
	appendStringProp(AssignedClientIdentifier, p.AssignedClientIdentifier)
	appendU16Prop(ServerKeepAlive, p.ServerKeepAlive)
	appendStringProp(AuthenticationMethod, p.AuthenticationMethod)
	appendBinaryProp(AuthenticationData, p.AuthenticationData)
	appendByteProp(RequestProblemInformation, p.RequestProblemInformation)
	appendU32Prop(WillDelayInterval, p.WillDelayInterval)
	appendByteProp(RequestResponseInformation, p.RequestResponseInformation)
	appendStringProp(ResponseInformation, p.ResponseInformation)
	appendStringProp(ServerReference, p.ServerReference)
	appendStringProp(ReasonString, p.ReasonString)
	appendU16Prop(ReceiveMaximum, p.ReceiveMaximum)
	appendU16Prop(TopicAliasMaximum, p.TopicAliasMaximum)
	appendU16Prop(TopicAlias, p.TopicAlias)
	appendByteProp(MaximumQoS, p.MaximumQoS)
	appendByteProp(RetainAvailable, p.RetainAvailable)
	for _, up := range p.UserProperties {
		body = append(body, byte(UserProperty))
		body = AppendString(body, up.Key)
		body = AppendString(body, up.Value)
	}
	appendU32Prop(MaximumPacketSize, p.MaximumPacketSize)
	appendByteProp(WildcardSubscriptionAvailable, p.WildcardSubAvailable)
	appendByteProp(SubscriptionIdentifierAvailable, p.SubIDAvailable)
	appendByteProp(SharedSubscriptionAvailable, p.SharedSubAvailable)

	var err error
	dst, err = AppendVarInt(dst, uint32(len(body)))
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

// DecodeProperties reads a variable-byte-integer length followed by that
// many bytes of properties from the front of buf, validating each property
// id against packetType's allow-list. It returns the number of bytes
// consumed (including the length prefix).
func DecodeProperties(buf []byte, packetType PacketType) (*Properties, int, error) {
	length, ln, err := DecodeVarInt(buf)
	if err != nil {
		return nil, 0, err
	}
	total := ln + int(length)
	if len(buf) < total {
		return nil, 0, ErrPropertyMalformed
	}
	body := buf[ln:total]
	p := &Properties{}

	for len(body) > 0 {
		id := PropertyID(body[0])
		body = body[1:]
		meta, ok := propertyTable[id]
		if !ok {
			return nil, 0, fmt.Errorf("%w: 0x%02x", ErrPropertyUnknown, id)
		}
		if !meta.locations[packetType] {
			return nil, 0, fmt.Errorf("%w: property 0x%02x in %s", ErrPropertyNotAllowedHere, id, packetType)
		}
		if !meta.repeatable && p.Has(id) {
			return nil, 0, fmt.Errorf("%w: 0x%02x", ErrPropertyDuplicate, id)
		}

		var n int
		switch meta.kind {
		case kindByte:
			if len(body) < 1 {
				return nil, 0, ErrPropertyMalformed
			}
			v := body[0]
			n = 1
			assignByte(p, id, &v)
		case kindU16:
			if len(body) < 2 {
				return nil, 0, ErrPropertyMalformed
			}
			v := binary.BigEndian.Uint16(body)
			n = 2
			assignU16(p, id, &v)
		case kindU32:
			if len(body) < 4 {
				return nil, 0, ErrPropertyMalformed
			}
			v := binary.BigEndian.Uint32(body)
			n = 4
			assignU32(p, id, &v)
		case kindVarInt:
			v, vn, err := DecodeVarInt(body)
			if err != nil {
				return nil, 0, err
			}
			n = vn
			assignU32(p, id, &v)
		case kindString:
			s, sn, err := DecodeString(body)
			if err != nil {
				return nil, 0, err
			}
			n = sn
			assignString(p, id, &s)
		case kindBinary:
			d, bn, err := DecodeBinary(body)
			if err != nil {
				return nil, 0, err
			}
			n = bn
			assignBinary(p, id, d)
		case kindStringPair:
			k, kn, err := DecodeString(body)
			if err != nil {
				return nil, 0, err
			}
			v, vn, err := DecodeString(body[kn:])
			if err != nil {
				return nil, 0, err
			}
			n = kn + vn
			p.UserProperties = append(p.UserProperties, StringPair{Key: k, Value: v})
		}
		p.set(id)
		body = body[n:]
	}
	return p, total, nil
}

func assignByte(p *Properties, id PropertyID, v *byte) {
	switch id {
	case PayloadFormatIndicator:
		p.PayloadFormatIndicator = v
	case RequestProblemInformation:
		p.RequestProblemInformation = v
	case RequestResponseInformation:
		p.RequestResponseInformation = v
	case MaximumQoS:
		p.MaximumQoS = v
	case RetainAvailable:
		p.RetainAvailable = v
	case WildcardSubscriptionAvailable:
		p.WildcardSubAvailable = v
	case SubscriptionIdentifierAvailable:
		p.SubIDAvailable = v
	case SharedSubscriptionAvailable:
		p.SharedSubAvailable = v
	}
}

func assignU16(p *Properties, id PropertyID, v *uint16) {
	switch id {
	case ServerKeepAlive:
		p.ServerKeepAlive = v
	case ReceiveMaximum:
		p.ReceiveMaximum = v
	case TopicAliasMaximum:
		p.TopicAliasMaximum = v
	case TopicAlias:
		p.TopicAlias = v
	}
}

func assignU32(p *Properties, id PropertyID, v *uint32) {
	switch id {
	case MessageExpiryInterval:
		p.MessageExpiryInterval = v
	case SubscriptionIdentifier:
		p.SubscriptionIdentifier = v
	case SessionExpiryInterval:
		p.SessionExpiryInterval = v
	case WillDelayInterval:
		p.WillDelayInterval = v
	case MaximumPacketSize:
		p.MaximumPacketSize = v
	}
}

func assignString(p *Properties, id PropertyID, v *string) {
	switch id {
	case ContentType:
		p.ContentType = v
	case ResponseTopic:
		p.ResponseTopic = v
	case AssignedClientIdentifier:
		p.AssignedClientIdentifier = v
	case AuthenticationMethod:
		p.AuthenticationMethod = v
	case ResponseInformation:
		p.ResponseInformation = v
	case ServerReference:
		p.ServerReference = v
	case ReasonString:
		p.ReasonString = v
	}
}

func assignBinary(p *Properties, id PropertyID, v []byte) {
	switch id {
	case CorrelationData:
		p.CorrelationData = v
	case AuthenticationData:
		p.AuthenticationData = v
	}
}

// PropertiesLen returns the encoded length of p's property list, including
// its own variable-byte-integer length prefix. Used by callers that must
// know a packet's remaining length before the final encode pass.
func PropertiesLen(p *Properties) int {
	buf, err := EncodeProperties(nil, p)
	if err != nil {
		return 0
	}
	return len(buf)
}
