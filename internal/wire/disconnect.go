package wire

// DisconnectPacket announces an orderly or abnormal end to a session. The
// zero value encodes as a bare, 2-byte packet (Normal Disconnect, no
// properties) per MQTT-3.14.2-1.
type DisconnectPacket struct {
	ReasonCode byte
	Properties *Properties
}

func (d *DisconnectPacket) Type() PacketType { return DISCONNECT }

func (d *DisconnectPacket) Encode(dst []byte, version Version) ([]byte, error) {
	if version != V5 || (d.ReasonCode == 0 && d.Properties == nil) {
		return AppendFixedHeader(dst, FixedHeader{Type: DISCONNECT})
	}

	body := GetBuffer()
	defer PutBuffer(body)
	body = append(body, d.ReasonCode)
	if d.Properties != nil {
		var err error
		body, err = EncodeProperties(body, d.Properties)
		if err != nil {
			return dst, err
		}
	}

	var err error
	dst, err = AppendFixedHeader(dst, FixedHeader{Type: DISCONNECT, RemainingLength: uint32(len(body))})
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

func init() {
	register(DISCONNECT, func(h FixedHeader, buf []byte, version Version) (Packet, error) {
		d := &DisconnectPacket{}
		if version != V5 || len(buf) == 0 {
			return d, nil
		}
		d.ReasonCode = buf[0]
		rest := buf[1:]
		if len(rest) > 0 {
			props, _, err := DecodeProperties(rest, DISCONNECT)
			if err != nil {
				return nil, err
			}
			d.Properties = props
		}
		return d, nil
	})
}
