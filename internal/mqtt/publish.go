package mqtt

import "encoding/binary"

// PUBLISH fixed-header flag bits.
const (
	publishFlagDup    = 0x08
	publishFlagQoS    = 0x06
	publishFlagQoSOff = 1
	publishFlagRetain = 0x01
)

// Publish is a decoded PUBLISH packet.
type Publish struct {
	Dup        bool
	QoS        uint8
	Retain     bool
	Topic      string
	Identifier uint16 // only meaningful when QoS > 0
	Payload    []byte
	Properties Properties
}

// ParsePublish decodes a PUBLISH packet's remaining bytes, given the
// fixed-header flags byte and the protocol version.
func ParsePublish(flags uint8, remaining []byte, version uint8) (Publish, error) {
	p := Publish{
		Dup:    flags&publishFlagDup != 0,
		QoS:    (flags & publishFlagQoS) >> publishFlagQoSOff,
		Retain: flags&publishFlagRetain != 0,
	}
	topic, rest, err := ExtractString(remaining)
	if err != nil {
		return Publish{}, err
	}
	p.Topic = topic

	if p.QoS > 0 {
		if len(rest) < 2 {
			return Publish{}, ErrNeedMoreData
		}
		p.Identifier = binary.BigEndian.Uint16(rest[:2])
		rest = rest[2:]
	}

	if version == 5 {
		props, n, err := DecodeProperties(rest)
		if err != nil {
			return Publish{}, err
		}
		p.Properties = props
		rest = rest[n:]
	}

	p.Payload = append([]byte(nil), rest...)
	return p, nil
}

// BuildPublish encodes an outgoing PUBLISH packet: the fixed-header
// flags byte is (qos<<1)|retain.
func BuildPublish(p Publish, version uint8) ([]byte, error) {
	flags := (p.QoS << publishFlagQoSOff) & publishFlagQoS
	if p.Retain {
		flags |= publishFlagRetain
	}
	if p.Dup {
		flags |= publishFlagDup
	}

	var body []byte
	body = EncodeString(body, p.Topic)
	if p.QoS > 0 {
		var idBuf [2]byte
		binary.BigEndian.PutUint16(idBuf[:], p.Identifier)
		body = append(body, idBuf[:]...)
	}
	if version == 5 {
		propBytes, err := EncodeProperties(p.Properties.Items)
		if err != nil {
			return nil, err
		}
		body = append(body, propBytes...)
	}
	body = append(body, p.Payload...)

	return EncodeFixedHeader(PUBLISH, flags, body)
}

// buildIdentifierOnly builds the trivial {type, flags=0, 2-byte id}
// packets shared by PUBACK/PUBREC/PUBREL/PUBCOMP in their v3.1.1 form
// (PUBREL gets its required 0b0010 flags).
func buildIdentifierOnly(t MessageType, id uint16) ([]byte, error) {
	flags := uint8(0)
	if t == PUBREL {
		flags = 0x02 // PUBREL fixed header flags are 0b0010, per spec table
	}
	var body [2]byte
	binary.BigEndian.PutUint16(body[:], id)
	return EncodeFixedHeader(t, flags, body[:])
}

func BuildPubAck(id uint16) ([]byte, error)  { return buildIdentifierOnly(PUBACK, id) }
func BuildPubRec(id uint16) ([]byte, error)  { return buildIdentifierOnly(PUBREC, id) }
func BuildPubRel(id uint16) ([]byte, error)  { return buildIdentifierOnly(PUBREL, id) }
func BuildPubComp(id uint16) ([]byte, error) { return buildIdentifierOnly(PUBCOMP, id) }

// ParseIdentifierOnly decodes the 2-byte identifier shared by
// PUBACK/PUBREC/PUBREL/PUBCOMP packets (ignoring any v5 reason code and
// properties that may follow it, which this client does not need).
func ParseIdentifierOnly(remaining []byte) (uint16, error) {
	if len(remaining) < 2 {
		return 0, ErrNeedMoreData
	}
	return binary.BigEndian.Uint16(remaining[:2]), nil
}
