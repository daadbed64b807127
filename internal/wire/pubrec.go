package wire

// PubrecPacket is the first acknowledgment of a QoS 2 PUBLISH.
type PubrecPacket struct{ simpleAck }

func NewPubrec(id uint16, reason byte, props *Properties) *PubrecPacket {
	return &PubrecPacket{simpleAck{packetType: PUBREC, PacketID: id, ReasonCode: reason, Properties: props}}
}

func init() {
	register(PUBREC, func(h FixedHeader, buf []byte, v Version) (Packet, error) {
		a, err := decodeSimpleAck(PUBREC, h.Flags, buf, v)
		if err != nil {
			return nil, err
		}
		return &PubrecPacket{*a}, nil
	})
}
