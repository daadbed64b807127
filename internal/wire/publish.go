package wire

// PublishPacket carries application payload. A decoded Payload aliases the
// buffer it was decoded from; callers that retain it past the lifetime of
// that buffer must copy it themselves. A decoded Topic is a copy.
type PublishPacket struct {
	Dup        bool
	Qos        byte
	Retain     bool
	Topic      string
	PacketID   uint16 // zero for QoS 0
	Properties *Properties
	Payload    []byte
}

func (p *PublishPacket) Type() PacketType { return PUBLISH }

func (p *PublishPacket) flags() byte {
	f := byte(0)
	if p.Dup {
		f |= 0x08
	}
	f |= (p.Qos & 0x03) << 1
	if p.Retain {
		f |= 0x01
	}
	return f
}

// Encode appends the whole packet to dst as one contiguous slice, whatever
// the QoS. The payload bytes are copied into that slice; no separate
// gather buffer referencing the caller's payload is produced.
func (p *PublishPacket) Encode(dst []byte, version Version) ([]byte, error) {
	body := GetBuffer()
	defer PutBuffer(body)

	body = AppendString(body, p.Topic)
	if p.Qos > 0 {
		body = appendU16(body, p.PacketID)
	}
	if version == V5 {
		var err error
		body, err = EncodeProperties(body, p.Properties)
		if err != nil {
			return dst, err
		}
	}
	body = append(body, p.Payload...)

	var err error
	dst, err = AppendFixedHeader(dst, FixedHeader{Type: PUBLISH, Flags: p.flags(), RemainingLength: uint32(len(body))})
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

func init() {
	register(PUBLISH, func(h FixedHeader, buf []byte, version Version) (Packet, error) {
		qos := (h.Flags >> 1) & 0x03
		if qos == 3 {
			return nil, ErrInvalidQoS
		}
		p := &PublishPacket{
			Dup:    h.Flags&0x08 != 0,
			Qos:    qos,
			Retain: h.Flags&0x01 != 0,
		}
		topic, n, err := DecodeString(buf)
		if err != nil {
			return nil, err
		}
		p.Topic = topic
		rest := buf[n:]
		if qos > 0 {
			if len(rest) < 2 {
				return nil, ErrPacketTruncated
			}
			p.PacketID = u16(rest)
			rest = rest[2:]
		}
		if version == V5 {
			props, pn, err := DecodeProperties(rest, PUBLISH)
			if err != nil {
				return nil, err
			}
			p.Properties = props
			rest = rest[pn:]
		}
		p.Payload = rest
		return p, nil
	})
}
