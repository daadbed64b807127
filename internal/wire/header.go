package wire

import "errors"

// FixedHeader is the first 2-5 bytes of every MQTT packet: a type+flags
// byte followed by the variable-byte-integer remaining length.
type FixedHeader struct {
	Type            PacketType
	Flags           byte
	RemainingLength uint32
}

var ErrFixedHeaderTruncated = errors.New("wire: fixed header truncated")

// AppendFixedHeader appends the encoded fixed header to dst.
func AppendFixedHeader(dst []byte, h FixedHeader) ([]byte, error) {
	dst = append(dst, byte(h.Type)<<4|h.Flags&0x0f)
	return AppendVarInt(dst, h.RemainingLength)
}

// DecodeFixedHeader reads a fixed header from the front of buf, returning
// the header and the number of bytes consumed. It returns
// ErrFixedHeaderTruncated if buf does not yet contain a complete header;
// callers (the assembler) treat that as "need more bytes", not a
// malformed-packet error.
func DecodeFixedHeader(buf []byte) (h FixedHeader, n int, err error) {
	if len(buf) < 1 {
		return FixedHeader{}, 0, ErrFixedHeaderTruncated
	}
	b0 := buf[0]
	length, ln, err := DecodeVarInt(buf[1:])
	if err != nil {
		if errors.Is(err, ErrVarIntTruncated) {
			return FixedHeader{}, 0, ErrFixedHeaderTruncated
		}
		return FixedHeader{}, 0, err
	}
	return FixedHeader{
		Type:            PacketType(b0 >> 4),
		Flags:           b0 & 0x0f,
		RemainingLength: length,
	}, 1 + ln, nil
}
