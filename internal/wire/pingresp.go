package wire

// PingrespPacket has no payload.
type PingrespPacket struct{}

func (PingrespPacket) Type() PacketType { return PINGRESP }

func (PingrespPacket) Encode(dst []byte, _ Version) ([]byte, error) {
	return AppendFixedHeader(dst, FixedHeader{Type: PINGRESP})
}

func init() {
	register(PINGRESP, func(h FixedHeader, buf []byte, _ Version) (Packet, error) {
		return PingrespPacket{}, nil
	})
}
