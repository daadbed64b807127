package wire

// AuthPacket carries an extended (SASL-style) authentication exchange.
// MQTT v5.0 only; never legal when Version is V311.
type AuthPacket struct {
	ReasonCode byte
	Properties *Properties
}

func (a *AuthPacket) Type() PacketType { return AUTH }

func (a *AuthPacket) Encode(dst []byte, version Version) ([]byte, error) {
	if version != V5 {
		return dst, ErrAuthRequiresV5
	}
	if a.ReasonCode == 0 && a.Properties == nil {
		return AppendFixedHeader(dst, FixedHeader{Type: AUTH})
	}

	body := GetBuffer()
	defer PutBuffer(body)
	body = append(body, a.ReasonCode)
	var err error
	body, err = EncodeProperties(body, a.Properties)
	if err != nil {
		return dst, err
	}

	dst, err = AppendFixedHeader(dst, FixedHeader{Type: AUTH, RemainingLength: uint32(len(body))})
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

func init() {
	register(AUTH, func(h FixedHeader, buf []byte, version Version) (Packet, error) {
		if version != V5 {
			return nil, ErrAuthRequiresV5
		}
		a := &AuthPacket{}
		if len(buf) == 0 {
			return a, nil
		}
		a.ReasonCode = buf[0]
		rest := buf[1:]
		if len(rest) > 0 {
			props, _, err := DecodeProperties(rest, AUTH)
			if err != nil {
				return nil, err
			}
			a.Properties = props
		}
		return a, nil
	})
}
