package wire

// UnsubackPacket acknowledges an UNSUBSCRIBE. v3.1.1 carries no payload
// beyond the packet id; v5 adds one reason code per filter.
type UnsubackPacket struct {
	PacketID    uint16
	Properties  *Properties
	ReasonCodes []byte
}

func (u *UnsubackPacket) Type() PacketType { return UNSUBACK }

func (u *UnsubackPacket) Encode(dst []byte, version Version) ([]byte, error) {
	body := GetBuffer()
	defer PutBuffer(body)

	body = appendU16(body, u.PacketID)
	if version == V5 {
		var err error
		body, err = EncodeProperties(body, u.Properties)
		if err != nil {
			return dst, err
		}
		body = append(body, u.ReasonCodes...)
	}

	var err error
	dst, err = AppendFixedHeader(dst, FixedHeader{Type: UNSUBACK, RemainingLength: uint32(len(body))})
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

func init() {
	register(UNSUBACK, func(h FixedHeader, buf []byte, version Version) (Packet, error) {
		if len(buf) < 2 {
			return nil, ErrPacketTruncated
		}
		u := &UnsubackPacket{PacketID: u16(buf)}
		rest := buf[2:]
		if version == V5 {
			props, n, err := DecodeProperties(rest, UNSUBACK)
			if err != nil {
				return nil, err
			}
			u.Properties = props
			rest = rest[n:]
			u.ReasonCodes = append([]byte(nil), rest...)
		}
		return u, nil
	})
}
