package wire

// PubcompPacket completes a QoS 2 PUBLISH exchange.
type PubcompPacket struct{ simpleAck }

func NewPubcomp(id uint16, reason byte, props *Properties) *PubcompPacket {
	return &PubcompPacket{simpleAck{packetType: PUBCOMP, PacketID: id, ReasonCode: reason, Properties: props}}
}

func init() {
	register(PUBCOMP, func(h FixedHeader, buf []byte, v Version) (Packet, error) {
		a, err := decodeSimpleAck(PUBCOMP, h.Flags, buf, v)
		if err != nil {
			return nil, err
		}
		return &PubcompPacket{*a}, nil
	})
}
