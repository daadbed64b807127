package wire

import "errors"

var (
	ErrUnknownPacketType = errors.New("wire: unknown packet type")
	ErrPacketTruncated    = errors.New("wire: packet body truncated")
	ErrInvalidFlags       = errors.New("wire: invalid fixed header flags")
	ErrInvalidQoS         = errors.New("wire: invalid QoS in fixed header flags")
	ErrMalformedConnect   = errors.New("wire: invalid CONNECT protocol name")
	ErrProtocolViolation  = errors.New("wire: packet violates a structural protocol rule")
	ErrAuthRequiresV5     = errors.New("wire: AUTH packet is only legal under MQTT v5.0")
)
