package wire

// SubackPacket reports the server's acceptance (or not) of each filter in
// a SUBSCRIBE, one reason/return code per subscription in order.
type SubackPacket struct {
	PacketID    uint16
	Properties  *Properties
	ReasonCodes []byte
}

func (s *SubackPacket) Type() PacketType { return SUBACK }

func (s *SubackPacket) Encode(dst []byte, version Version) ([]byte, error) {
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
	body = append(body, s.ReasonCodes...)

	var err error
	dst, err = AppendFixedHeader(dst, FixedHeader{Type: SUBACK, RemainingLength: uint32(len(body))})
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

func init() {
	register(SUBACK, func(h FixedHeader, buf []byte, version Version) (Packet, error) {
		if len(buf) < 2 {
			return nil, ErrPacketTruncated
		}
		s := &SubackPacket{PacketID: u16(buf)}
		rest := buf[2:]
		if version == V5 {
			props, n, err := DecodeProperties(rest, SUBACK)
			if err != nil {
				return nil, err
			}
			s.Properties = props
			rest = rest[n:]
		}
		s.ReasonCodes = append([]byte(nil), rest...)
		return s, nil
	})
}
