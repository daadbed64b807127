package mqttproto

// ReasonCode is an MQTT v5.0 reason code, carried on CONNACK, PUBACK,
// PUBREC, PUBREL, PUBCOMP, SUBACK, UNSUBACK, DISCONNECT, and AUTH. For
// MQTT v3.1.1 the engine never produces these on the wire; they still
// appear internally so the connection state machine has one vocabulary for
// both protocol versions (see spec §4.G auto-behaviors).
//
// Values 0x00-0x7F indicate success or normal operation; 0x80-0xFF
// indicate failure.
type ReasonCode uint8

// Error satisfies the error interface so a ReasonCode can be passed to
// errors.Is/errors.As and wrapped by ProtoError.
func (r ReasonCode) Error() string {
	if name, ok := reasonCodeNames[r]; ok {
		return name
	}
	return "unknown reason code"
}

const (
	ReasonSuccess                     ReasonCode = 0x00
	ReasonNormalDisconnect            ReasonCode = 0x00
	ReasonGrantedQoS0                 ReasonCode = 0x00
	ReasonGrantedQoS1                 ReasonCode = 0x01
	ReasonGrantedQoS2                 ReasonCode = 0x02
	ReasonDisconnectWithWillMessage   ReasonCode = 0x04
	ReasonNoMatchingSubscribers       ReasonCode = 0x10
	ReasonNoSubscriptionExisted       ReasonCode = 0x11
	ReasonContinueAuthentication      ReasonCode = 0x18
	ReasonReAuthenticate              ReasonCode = 0x19
	ReasonUnspecifiedError            ReasonCode = 0x80
	ReasonMalformedPacket             ReasonCode = 0x81
	ReasonProtocolError               ReasonCode = 0x82
	ReasonImplementationSpecificError ReasonCode = 0x83
	ReasonUnsupportedProtocolVersion  ReasonCode = 0x84
	ReasonClientIdentifierNotValid    ReasonCode = 0x85
	ReasonBadUserNameOrPassword       ReasonCode = 0x86
	ReasonNotAuthorized               ReasonCode = 0x87
	ReasonServerUnavailable           ReasonCode = 0x88
	ReasonServerBusy                  ReasonCode = 0x89
	ReasonBanned                      ReasonCode = 0x8A
	ReasonServerShuttingDown          ReasonCode = 0x8B
	ReasonBadAuthenticationMethod     ReasonCode = 0x8C
	ReasonKeepAliveTimeout            ReasonCode = 0x8D
	ReasonSessionTakenOver            ReasonCode = 0x8E
	ReasonTopicFilterInvalid          ReasonCode = 0x8F
	ReasonTopicNameInvalid            ReasonCode = 0x90
	ReasonPacketIdentifierInUse       ReasonCode = 0x91
	ReasonPacketIdentifierNotFound    ReasonCode = 0x92
	ReasonReceiveMaximumExceeded      ReasonCode = 0x93
	ReasonTopicAliasInvalid           ReasonCode = 0x94
	ReasonPacketTooLarge              ReasonCode = 0x95
	ReasonMessageRateTooHigh          ReasonCode = 0x96
	ReasonQuotaExceeded               ReasonCode = 0x97
	ReasonAdministrativeAction        ReasonCode = 0x98
	ReasonPayloadFormatInvalid        ReasonCode = 0x99
	ReasonRetainNotSupported          ReasonCode = 0x9A
	ReasonQoSNotSupported             ReasonCode = 0x9B
	ReasonUseAnotherServer            ReasonCode = 0x9C
	ReasonServerMoved                 ReasonCode = 0x9D
	ReasonSharedSubscriptionsNotSupp  ReasonCode = 0x9E
	ReasonConnectionRateExceeded      ReasonCode = 0x9F
	ReasonMaximumConnectTime          ReasonCode = 0xA0
	ReasonSubscriptionIDsNotSupported ReasonCode = 0xA1
	ReasonWildcardSubsNotSupported    ReasonCode = 0xA2
)

var reasonCodeNames = map[ReasonCode]string{
	ReasonSuccess:                     "success",
	ReasonDisconnectWithWillMessage:   "disconnect with will message",
	ReasonNoMatchingSubscribers:       "no matching subscribers",
	ReasonNoSubscriptionExisted:       "no subscription existed",
	ReasonContinueAuthentication:      "continue authentication",
	ReasonReAuthenticate:              "re-authenticate",
	ReasonUnspecifiedError:            "unspecified error",
	ReasonMalformedPacket:             "malformed packet",
	ReasonProtocolError:               "protocol error",
	ReasonImplementationSpecificError: "implementation specific error",
	ReasonUnsupportedProtocolVersion:  "unsupported protocol version",
	ReasonClientIdentifierNotValid:    "client identifier not valid",
	ReasonBadUserNameOrPassword:       "bad user name or password",
	ReasonNotAuthorized:               "not authorized",
	ReasonServerUnavailable:           "server unavailable",
	ReasonServerBusy:                  "server busy",
	ReasonBanned:                      "banned",
	ReasonServerShuttingDown:          "server shutting down",
	ReasonBadAuthenticationMethod:     "bad authentication method",
	ReasonKeepAliveTimeout:            "keep alive timeout",
	ReasonSessionTakenOver:            "session taken over",
	ReasonTopicFilterInvalid:          "topic filter invalid",
	ReasonTopicNameInvalid:            "topic name invalid",
	ReasonPacketIdentifierInUse:       "packet identifier in use",
	ReasonPacketIdentifierNotFound:    "packet identifier not found",
	ReasonReceiveMaximumExceeded:      "receive maximum exceeded",
	ReasonTopicAliasInvalid:           "topic alias invalid",
	ReasonPacketTooLarge:              "packet too large",
	ReasonMessageRateTooHigh:          "message rate too high",
	ReasonQuotaExceeded:               "quota exceeded",
	ReasonAdministrativeAction:        "administrative action",
	ReasonPayloadFormatInvalid:        "payload format invalid",
	ReasonRetainNotSupported:          "retain not supported",
	ReasonQoSNotSupported:             "qos not supported",
	ReasonUseAnotherServer:            "use another server",
	ReasonServerMoved:                 "server moved",
	ReasonSharedSubscriptionsNotSupp:  "shared subscriptions not supported",
	ReasonConnectionRateExceeded:      "connection rate exceeded",
	ReasonMaximumConnectTime:          "maximum connect time",
	ReasonSubscriptionIDsNotSupported: "subscription identifiers not supported",
	ReasonWildcardSubsNotSupported:    "wildcard subscriptions not supported",
}

// IsSuccess reports whether the code is in the 0x00-0x7F success range.
func (r ReasonCode) IsSuccess() bool {
	return uint8(r) < 0x80
}
