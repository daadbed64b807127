package wire

const protocolNameMQTT = "MQTT"

// ConnectPacket opens a session.
type ConnectPacket struct {
	Version        Version
	CleanStart     bool
	KeepAlive      uint16
	ClientID       string
	Properties     *Properties
	WillFlag       bool
	WillQos        byte
	WillRetain     bool
	WillTopic      string
	WillPayload    []byte
	WillProperties *Properties
	Username       string
	HasUsername    bool
	Password       []byte
	HasPassword    bool
}

func (c *ConnectPacket) Type() PacketType { return CONNECT }

func (c *ConnectPacket) connectFlags() byte {
	f := byte(0)
	if c.HasUsername {
		f |= 0x80
	}
	if c.HasPassword {
		f |= 0x40
	}
	if c.WillFlag {
		f |= 0x04
		f |= (c.WillQos & 0x03) << 3
		if c.WillRetain {
			f |= 0x20
		}
	}
	if c.CleanStart {
		f |= 0x02
	}
	return f
}

func (c *ConnectPacket) Encode(dst []byte, version Version) ([]byte, error) {
	body := GetBuffer()
	defer PutBuffer(body)

	body = AppendString(body, protocolNameMQTT)
	body = append(body, byte(version))
	body = append(body, c.connectFlags())
	body = appendU16(body, c.KeepAlive)

	if version == V5 {
		var err error
		body, err = EncodeProperties(body, c.Properties)
		if err != nil {
			return dst, err
		}
	}

	body = AppendString(body, c.ClientID)

	if c.WillFlag {
		if version == V5 {
			var err error
			body, err = EncodeProperties(body, c.WillProperties)
			if err != nil {
				return dst, err
			}
		}
		body = AppendString(body, c.WillTopic)
		body = AppendBinary(body, c.WillPayload)
	}
	if c.HasUsername {
		body = AppendString(body, c.Username)
	}
	if c.HasPassword {
		body = AppendBinary(body, c.Password)
	}

	var err error
	dst, err = AppendFixedHeader(dst, FixedHeader{Type: CONNECT, RemainingLength: uint32(len(body))})
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

func init() {
	register(CONNECT, func(h FixedHeader, buf []byte, _ Version) (Packet, error) {
		name, n, err := DecodeString(buf)
		if err != nil {
			return nil, err
		}
		if name != protocolNameMQTT {
			return nil, ErrMalformedConnect
		}
		rest := buf[n:]
		if len(rest) < 4 {
			return nil, ErrPacketTruncated
		}
		version := Version(rest[0])
		flags := rest[1]
		keepAlive := u16(rest[2:])
		rest = rest[4:]

		c := &ConnectPacket{
			Version:     version,
			CleanStart:  flags&0x02 != 0,
			KeepAlive:   keepAlive,
			WillFlag:    flags&0x04 != 0,
			WillQos:     (flags >> 3) & 0x03,
			WillRetain:  flags&0x20 != 0,
			HasUsername: flags&0x80 != 0,
			HasPassword: flags&0x40 != 0,
		}

		if version == V5 {
			props, pn, err := DecodeProperties(rest, CONNECT)
			if err != nil {
				return nil, err
			}
			c.Properties = props
			rest = rest[pn:]
		}

		clientID, n, err := DecodeString(rest)
		if err != nil {
			return nil, err
		}
		c.ClientID = clientID
		rest = rest[n:]

		if c.WillFlag {
			if version == V5 {
				props, pn, err := DecodeProperties(rest, CONNECT)
				if err != nil {
					return nil, err
				}
				c.WillProperties = props
				rest = rest[pn:]
			}
			topic, n, err := DecodeString(rest)
			if err != nil {
				return nil, err
			}
			c.WillTopic = topic
			rest = rest[n:]
			payload, n, err := DecodeBinary(rest)
			if err != nil {
				return nil, err
			}
			c.WillPayload = payload
			rest = rest[n:]
		}
		if c.HasUsername {
			u, n, err := DecodeString(rest)
			if err != nil {
				return nil, err
			}
			c.Username = u
			rest = rest[n:]
		}
		if c.HasPassword {
			p, n, err := DecodeBinary(rest)
			if err != nil {
				return nil, err
			}
			c.Password = p
			rest = rest[n:]
		}
		return c, nil
	})
}
