package wire

// ConnackPacket acknowledges a CONNECT.
type ConnackPacket struct {
	SessionPresent bool
	ReasonCode     byte
	Properties     *Properties
}

func (c *ConnackPacket) Type() PacketType { return CONNACK }

func (c *ConnackPacket) Encode(dst []byte, version Version) ([]byte, error) {
	body := GetBuffer()
	defer PutBuffer(body)

	flags := byte(0)
	if c.SessionPresent {
		flags = 0x01
	}
	body = append(body, flags, c.ReasonCode)
	if version == V5 {
		var err error
		body, err = EncodeProperties(body, c.Properties)
		if err != nil {
			return dst, err
		}
	}

	var err error
	dst, err = AppendFixedHeader(dst, FixedHeader{Type: CONNACK, RemainingLength: uint32(len(body))})
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

func init() {
	register(CONNACK, func(h FixedHeader, buf []byte, version Version) (Packet, error) {
		if len(buf) < 2 {
			return nil, ErrPacketTruncated
		}
		c := &ConnackPacket{
			SessionPresent: buf[0]&0x01 != 0,
			ReasonCode:     buf[1],
		}
		rest := buf[2:]
		if version == V5 && len(rest) > 0 {
			props, _, err := DecodeProperties(rest, CONNACK)
			if err != nil {
				return nil, err
			}
			c.Properties = props
		}
		return c, nil
	})
}
