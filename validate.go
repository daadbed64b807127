package mqttproto

import (
	"strings"
	"unicode/utf8"
)

// MQTT wire-format limits. Defaults apply when a Connection's Options leave
// the corresponding field at zero.
const (
	// DefaultMaxTopicLength is the maximum encoded length of a topic name or
	// filter (2-byte length prefix).
	DefaultMaxTopicLength = 65535

	// DefaultMaxPayloadSize is the maximum PUBLISH payload size addressable
	// by the 4-byte variable-length-integer remaining-length encoding.
	DefaultMaxPayloadSize = 268435455

	// DefaultMaxIncomingPacket is the maximum size of an incoming packet the
	// assembler will frame before reporting PacketTooLarge.
	DefaultMaxIncomingPacket = 268435455

	// MaxClientIDLength is the length a server is required to accept for a
	// client identifier assigned by the client (MQTT-3.1.3-5).
	MaxClientIDLength = 23
)

func limitOrDefault(configured, def int) int {
	if configured > 0 {
		return configured
	}
	return def
}

// validateTopicName checks a PUBLISH topic name: no wildcards, no embedded
// null byte, valid UTF-8 with no surrogate code points, within length.
func validateTopicName(topic string, maxLen int) error {
	if topic == "" {
		return newProtoError(ErrTopicNameInvalid, "topic name is empty")
	}
	if len(topic) > limitOrDefault(maxLen, DefaultMaxTopicLength) {
		return newProtoError(ErrTopicNameInvalid, "topic name exceeds maximum length")
	}
	if strings.ContainsAny(topic, "+#") {
		return newProtoError(ErrTopicNameInvalid, "topic name must not contain wildcard characters")
	}
	if !validUTF8NoSurrogate(topic) {
		return newProtoError(ErrTopicNameInvalid, "topic name is not valid UTF-8")
	}
	return nil
}

// validateTopicFilter checks a SUBSCRIBE/UNSUBSCRIBE topic filter: wildcard
// placement rules, no embedded null byte, valid UTF-8, within length.
func validateTopicFilter(filter string, maxLen int) error {
	if filter == "" {
		return newProtoError(ErrTopicFilterInvalid, "topic filter is empty")
	}
	if len(filter) > limitOrDefault(maxLen, DefaultMaxTopicLength) {
		return newProtoError(ErrTopicFilterInvalid, "topic filter exceeds maximum length")
	}
	if !validUTF8NoSurrogate(filter) {
		return newProtoError(ErrTopicFilterInvalid, "topic filter is not valid UTF-8")
	}
	parts := strings.Split(filter, "/")
	for i, part := range parts {
		if strings.Contains(part, "+") && part != "+" {
			return newProtoError(ErrTopicFilterInvalid, "'+' must occupy an entire topic level")
		}
		if strings.Contains(part, "#") {
			if part != "#" {
				return newProtoError(ErrTopicFilterInvalid, "'#' must occupy an entire topic level")
			}
			if i != len(parts)-1 {
				return newProtoError(ErrTopicFilterInvalid, "'#' must be the last topic level")
			}
		}
	}
	return nil
}

// validatePayloadSize rejects payloads beyond the configured limit.
func validatePayloadSize(payload []byte, maxLen int) error {
	if len(payload) > limitOrDefault(maxLen, DefaultMaxPayloadSize) {
		return newProtoError(ErrPacketTooLarge, "payload exceeds maximum size")
	}
	return nil
}

// validatePayloadFormat enforces the PayloadFormatIndicator=UTF8 contract
// from a decoded Properties set against the payload bytes actually carried.
func validatePayloadFormat(payload []byte, payloadFormatUTF8 bool) error {
	if !payloadFormatUTF8 {
		return nil
	}
	if !utf8.Valid(payload) {
		return newProtoError(ErrPayloadFormatInvalid, "payload is not valid UTF-8 as declared by PayloadFormatIndicator")
	}
	return nil
}

// validUTF8NoSurrogate reports whether s is valid UTF-8 containing no
// embedded null byte and no UTF-16 surrogate-range code points encoded via
// CESU-8/WTF-8 style sequences (MQTT-1.5.4-1, MQTT-1.5.4-2).
func validUTF8NoSurrogate(s string) bool {
	if strings.IndexByte(s, 0) >= 0 {
		return false
	}
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r >= 0xD800 && r <= 0xDFFF {
			return false
		}
		if r == utf8.RuneError {
			return false
		}
	}
	return true
}
