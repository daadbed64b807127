package wire

// PubrelPacket releases a QoS 2 PUBLISH after receiving its PUBREC. The
// fixed header flags are always 0x02 (MQTT-3.6.1-1).
type PubrelPacket struct{ simpleAck }

func NewPubrel(id uint16, reason byte, props *Properties) *PubrelPacket {
	return &PubrelPacket{simpleAck{packetType: PUBREL, flags: 0x02, PacketID: id, ReasonCode: reason, Properties: props}}
}

func init() {
	register(PUBREL, func(h FixedHeader, buf []byte, v Version) (Packet, error) {
		if h.Flags != 0x02 {
			return nil, ErrInvalidFlags
		}
		a, err := decodeSimpleAck(PUBREL, h.Flags, buf, v)
		if err != nil {
			return nil, err
		}
		return &PubrelPacket{*a}, nil
	})
}
