package mqttproto

// Role identifies which side of an MQTT connection this engine instance
// plays. The role governs legality tables (which packet types a side may
// send/receive) and default flow-control values.
type Role uint8

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// ProtocolVersion selects the wire format and property legality rules.
type ProtocolVersion uint8

const (
	ProtocolV311 ProtocolVersion = 4
	ProtocolV5   ProtocolVersion = 5
)

func (v ProtocolVersion) String() string {
	switch v {
	case ProtocolV311:
		return "3.1.1"
	case ProtocolV5:
		return "5.0"
	default:
		return "unknown"
	}
}

// HasProperties reports whether this protocol version carries a Properties
// block on its packets at all (v3.1.1 never does).
func (v ProtocolVersion) HasProperties() bool {
	return v == ProtocolV5
}
