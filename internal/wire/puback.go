package wire

// PubackPacket acknowledges a QoS 1 PUBLISH.
type PubackPacket struct{ simpleAck }

func NewPuback(id uint16, reason byte, props *Properties) *PubackPacket {
	return &PubackPacket{simpleAck{packetType: PUBACK, PacketID: id, ReasonCode: reason, Properties: props}}
}

func init() {
	register(PUBACK, func(h FixedHeader, buf []byte, v Version) (Packet, error) {
		a, err := decodeSimpleAck(PUBACK, h.Flags, buf, v)
		if err != nil {
			return nil, err
		}
		return &PubackPacket{*a}, nil
	})
}
