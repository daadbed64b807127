package wire

// SubscriptionOption packs the per-filter options of an MQTT v5 SUBSCRIBE
// (v3.1.1 uses only MaxQos).
type SubscriptionOption struct {
	MaxQos           byte
	NoLocal          bool
	RetainAsPublished bool
	RetainHandling   byte // 0,1,2
}

func (o SubscriptionOption) encode() byte {
	b := o.MaxQos & 0x03
	if o.NoLocal {
		b |= 0x04
	}
	if o.RetainAsPublished {
		b |= 0x08
	}
	b |= (o.RetainHandling & 0x03) << 4
	return b
}

func decodeSubscriptionOption(b byte) SubscriptionOption {
	return SubscriptionOption{
		MaxQos:            b & 0x03,
		NoLocal:           b&0x04 != 0,
		RetainAsPublished: b&0x08 != 0,
		RetainHandling:    (b >> 4) & 0x03,
	}
}

// Subscription is one topic filter + options entry of a SUBSCRIBE packet.
type Subscription struct {
	Filter  string
	Options SubscriptionOption
}

// SubscribePacket requests delivery of topics matching one or more filters.
type SubscribePacket struct {
	PacketID      uint16
	Properties    *Properties
	Subscriptions []Subscription
}

func (s *SubscribePacket) Type() PacketType { return SUBSCRIBE }

func (s *SubscribePacket) Encode(dst []byte, version Version) ([]byte, error) {
	body := GetBuffer()
	defer PutBuffer(body)

	body = appendU16(body, s.PacketID)
	if version == V5 {
		var err error
		body, err = EncodeProperties(body, s.Properties)
		if err != nil {
			return dst, err
		}
	}
	for _, sub := range s.Subscriptions {
		body = AppendString(body, sub.Filter)
		body = append(body, sub.Options.encode())
	}

	var err error
	dst, err = AppendFixedHeader(dst, FixedHeader{Type: SUBSCRIBE, Flags: 0x02, RemainingLength: uint32(len(body))})
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

func init() {
	register(SUBSCRIBE, func(h FixedHeader, buf []byte, version Version) (Packet, error) {
		if h.Flags != 0x02 {
			return nil, ErrInvalidFlags
		}
		if len(buf) < 2 {
			return nil, ErrPacketTruncated
		}
		s := &SubscribePacket{PacketID: u16(buf)}
		rest := buf[2:]
		if version == V5 {
			props, n, err := DecodeProperties(rest, SUBSCRIBE)
			if err != nil {
				return nil, err
			}
			s.Properties = props
			rest = rest[n:]
		}
		for len(rest) > 0 {
			filter, n, err := DecodeString(rest)
			if err != nil {
				return nil, err
			}
			rest = rest[n:]
			if len(rest) < 1 {
				return nil, ErrPacketTruncated
			}
			s.Subscriptions = append(s.Subscriptions, Subscription{
				Filter:  filter,
				Options: decodeSubscriptionOption(rest[0]),
			})
			rest = rest[1:]
		}
		if len(s.Subscriptions) == 0 {
			return nil, ErrProtocolViolation
		}
		return s, nil
	})
}
