package wire

// UnsubscribePacket requests removal of one or more topic filters.
type UnsubscribePacket struct {
	PacketID   uint16
	Properties *Properties
	Filters    []string
}

func (u *UnsubscribePacket) Type() PacketType { return UNSUBSCRIBE }

func (u *UnsubscribePacket) Encode(dst []byte, version Version) ([]byte, error) {
	body := GetBuffer()
	defer PutBuffer(body)

	body = appendU16(body, u.PacketID)
	if version == V5 {
		var err error
		body, err = EncodeProperties(body, u.Properties)
		if err != nil {
			return dst, err
		}
	}
	for _, f := range u.Filters {
		body = AppendString(body, f)
	}

	var err error
	dst, err = AppendFixedHeader(dst, FixedHeader{Type: UNSUBSCRIBE, Flags: 0x02, RemainingLength: uint32(len(body))})
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

func init() {
	register(UNSUBSCRIBE, func(h FixedHeader, buf []byte, version Version) (Packet, error) {
		if h.Flags != 0x02 {
			return nil, ErrInvalidFlags
		}
		if len(buf) < 2 {
			return nil, ErrPacketTruncated
		}
		u := &UnsubscribePacket{PacketID: u16(buf)}
		rest := buf[2:]
		if version == V5 {
			props, n, err := DecodeProperties(rest, UNSUBSCRIBE)
			if err != nil {
				return nil, err
			}
			u.Properties = props
			rest = rest[n:]
		}
		for len(rest) > 0 {
			filter, n, err := DecodeString(rest)
			if err != nil {
				return nil, err
			}
			u.Filters = append(u.Filters, filter)
			rest = rest[n:]
		}
		if len(u.Filters) == 0 {
			return nil, ErrProtocolViolation
		}
		return u, nil
	})
}
