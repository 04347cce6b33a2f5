package mqtt

import "fmt"

// ConnAck is a decoded CONNACK packet.
type ConnAck struct {
	SessionPresent bool
	ReasonCode     uint8
	Properties     Properties
}

// reasonStrings names the representative CONNACK reason codes that get
// logged by name. v3 used the low single-digit codes 0-5; v5 reuses
// 0x00 for success and defines the rest of this table.
var reasonStrings = map[uint8]string{
	0x00: "Success",
	0x01: "Unacceptable protocol version",
	0x02: "Identifier rejected",
	0x03: "Server unavailable",
	0x04: "Bad username or password",
	0x05: "Not authorized",
	0x80: "Unspecified error",
	0x81: "Malformed packet",
	0x82: "Protocol error",
	0x84: "Unsupported protocol version",
	0x85: "Invalid client ID",
	0x86: "Bad credentials",
	0x87: "Not authorized",
	0x88: "Server unavailable",
	0x89: "Server busy",
	0x8A: "Banned",
	0x8C: "Bad authentication method",
	0x90: "Invalid topic",
	0x95: "Packet too large",
	0x97: "Quota exceeded",
	0x99: "Payload format invalid",
	0x9A: "Retain not supported",
	0x9B: "QoS not supported",
	0x9C: "Use another server",
	0x9D: "Server moved",
	0x9F: "Connection rate exceeded",
}

// ReasonString names a CONNACK (or other ack) reason code for logging.
func ReasonString(code uint8) string {
	if s, ok := reasonStrings[code]; ok {
		return s
	}
	return fmt.Sprintf("Unknown reason 0x%02X", code)
}

// ParseConnAck decodes a CONNACK packet's remaining bytes. Only a
// ReasonCode of 0 promotes the client state machine to Connected.
func ParseConnAck(remaining []byte, version uint8) (ConnAck, error) {
	if len(remaining) < 2 {
		return ConnAck{}, fmt.Errorf("%w: short CONNACK", ErrNeedMoreData)
	}
	ack := ConnAck{
		SessionPresent: remaining[0]&0x01 != 0,
		ReasonCode:     remaining[1],
	}
	if version == 5 && len(remaining) > 2 {
		props, _, err := DecodeProperties(remaining[2:])
		if err != nil {
			return ConnAck{}, err
		}
		ack.Properties = props
	}
	return ack, nil
}
