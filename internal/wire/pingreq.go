package wire

// PingreqPacket has no payload.
type PingreqPacket struct{}

func (PingreqPacket) Type() PacketType { return PINGREQ }

func (PingreqPacket) Encode(dst []byte, _ Version) ([]byte, error) {
	return AppendFixedHeader(dst, FixedHeader{Type: PINGREQ})
}

func init() {
	register(PINGREQ, func(h FixedHeader, buf []byte, _ Version) (Packet, error) {
		return PingreqPacket{}, nil
	})
}
