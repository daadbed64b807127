// Package assembler turns a byte stream into framed MQTT packets. It is a
// pure state machine: Feed consumes as many complete packets as the input
// contains and retains only the unconsumed tail across calls, grounded on
// async_mqtt's recv_packet_builder (there a three-state machine; collapsed
// here to two since this codec's fixed-header decode already handles a
// truncated variable-byte-integer length internally, so there is nothing
// distinct for a dedicated "decoding remaining length" state to do).
package assembler

import (
	"errors"

	"github.com/sawyerbrook/mqttproto/internal/wire"
)

type state int

const (
	stateHeader state = iota
	statePayload
)

// ErrPacketTooLarge is reported when a framed packet's remaining length
// would exceed MaxPacketSize.
var ErrPacketTooLarge = errors.New("assembler: packet exceeds configured maximum size")

// Frame is one fully received, still-encoded packet: its raw fixed header
// plus a contiguous body slice of exactly RemainingLength bytes.
type Frame struct {
	Header wire.FixedHeader
	Body   []byte
}

// Assembler holds only the bytes of a partially received packet between
// Feed calls; it never blocks and never allocates beyond growing that
// retained buffer.
type Assembler struct {
	MaxPacketSize uint32 // 0 means wire.MaxRemainingLength

	state   state
	partial []byte // accumulated fixed-header bytes while framing the length
	header  wire.FixedHeader
	body    []byte // accumulated payload bytes across short reads
	needed  int
}

// Feed appends data to the assembler's state and returns every packet that
// became complete as a result, plus any framing error. On error the
// Assembler's internal state is unspecified and the connection should be
// closed; Feed performs no recovery.
func (a *Assembler) Feed(data []byte) ([]Frame, error) {
	var frames []Frame
	for len(data) > 0 {
		switch a.state {
		case stateHeader:
			a.partial = append(a.partial, data[0])
			data = data[1:]
			h, _, err := wire.DecodeFixedHeader(a.partial)
			if err != nil {
				if errors.Is(err, wire.ErrFixedHeaderTruncated) {
					continue
				}
				return frames, err
			}
			limit := a.MaxPacketSize
			if limit == 0 {
				limit = wire.MaxRemainingLength
			}
			if h.RemainingLength > limit {
				return frames, ErrPacketTooLarge
			}
			a.header = h
			a.needed = int(h.RemainingLength)
			a.body = make([]byte, 0, a.needed)
			a.partial = a.partial[:0]
			if a.needed == 0 {
				frames = append(frames, Frame{Header: a.header, Body: nil})
				continue
			}
			a.state = statePayload

		case statePayload:
			want := a.needed - len(a.body)
			take := want
			if take > len(data) {
				take = len(data)
			}
			a.body = append(a.body, data[:take]...)
			data = data[take:]
			if len(a.body) == a.needed {
				frames = append(frames, Frame{Header: a.header, Body: a.body})
				a.body = nil
				a.state = stateHeader
			}
		}
	}
	return frames, nil
}
