package mqtt

import "encoding/binary"

// Subscription is one topic filter + requested QoS in a SUBSCRIBE packet.
type Subscription struct {
	Filter string
	QoS    uint8
}

// BuildSubscribe encodes a SUBSCRIBE packet. Its fixed-header flags are
// always 0b0010 per the protocol.
func BuildSubscribe(id uint16, subs []Subscription, v5Props []Property, version uint8) ([]byte, error) {
	var body []byte
	var idBuf [2]byte
	binary.BigEndian.PutUint16(idBuf[:], id)
	body = append(body, idBuf[:]...)

	if version == 5 {
		propBytes, err := EncodeProperties(v5Props)
		if err != nil {
			return nil, err
		}
		body = append(body, propBytes...)
	}

	for _, s := range subs {
		body = EncodeString(body, s.Filter)
		body = append(body, s.QoS&0x03)
	}
	return EncodeFixedHeader(SUBSCRIBE, 0x02, body)
}

// BuildUnsubscribe encodes an UNSUBSCRIBE packet; flags are fixed at
// 0b0010 like SUBSCRIBE.
func BuildUnsubscribe(id uint16, filters []string, v5Props []Property, version uint8) ([]byte, error) {
	var body []byte
	var idBuf [2]byte
	binary.BigEndian.PutUint16(idBuf[:], id)
	body = append(body, idBuf[:]...)

	if version == 5 {
		propBytes, err := EncodeProperties(v5Props)
		if err != nil {
			return nil, err
		}
		body = append(body, propBytes...)
	}

	for _, f := range filters {
		body = EncodeString(body, f)
	}
	return EncodeFixedHeader(UNSUBSCRIBE, 0x02, body)
}

// SubAck is a decoded SUBACK packet: one reason/granted-QoS byte per
// requested filter, in request order.
type SubAck struct {
	Identifier  uint16
	ReasonCodes []uint8
	Properties  Properties
}

// ParseSubAck decodes a SUBACK packet's remaining bytes.
func ParseSubAck(remaining []byte, version uint8) (SubAck, error) {
	if len(remaining) < 2 {
		return SubAck{}, ErrNeedMoreData
	}
	ack := SubAck{Identifier: binary.BigEndian.Uint16(remaining[:2])}
	rest := remaining[2:]
	if version == 5 {
		props, n, err := DecodeProperties(rest)
		if err != nil {
			return SubAck{}, err
		}
		ack.Properties = props
		rest = rest[n:]
	}
	ack.ReasonCodes = append([]byte(nil), rest...)
	return ack, nil
}

// UnsubAck is a decoded UNSUBACK packet.
type UnsubAck struct {
	Identifier  uint16
	ReasonCodes []uint8 // v5 only; empty for v3.1.1
	Properties  Properties
}

// ParseUnsubAck decodes an UNSUBACK packet's remaining bytes.
func ParseUnsubAck(remaining []byte, version uint8) (UnsubAck, error) {
	if len(remaining) < 2 {
		return UnsubAck{}, ErrNeedMoreData
	}
	ack := UnsubAck{Identifier: binary.BigEndian.Uint16(remaining[:2])}
	rest := remaining[2:]
	if version == 5 {
		props, n, err := DecodeProperties(rest)
		if err != nil {
			return UnsubAck{}, err
		}
		ack.Properties = props
		rest = rest[n:]
		ack.ReasonCodes = append([]byte(nil), rest...)
	}
	return ack, nil
}
