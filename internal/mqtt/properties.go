package mqtt

import (
	"encoding/binary"
	"fmt"
)

// PropertyID identifies a single MQTT v5 property TLV.
type PropertyID uint8

const (
	PropPayloadFormat          PropertyID = 0x01
	PropMessageExpiry          PropertyID = 0x02
	PropContentType            PropertyID = 0x03
	PropResponseTopic          PropertyID = 0x08
	PropCorrelationData        PropertyID = 0x09
	PropSubscriptionID         PropertyID = 0x0B
	PropSessionExpiry          PropertyID = 0x11
	PropAssignedClientID       PropertyID = 0x12
	PropServerKeepAlive        PropertyID = 0x13
	PropAuthMethod             PropertyID = 0x15
	PropAuthData               PropertyID = 0x16
	PropRequestProblemInfo     PropertyID = 0x17
	PropWillDelay              PropertyID = 0x18
	PropRequestResponseInfo    PropertyID = 0x19
	PropResponseInfo           PropertyID = 0x1A
	PropServerReference        PropertyID = 0x1C
	PropReasonString           PropertyID = 0x1F
	PropReceiveMaximum         PropertyID = 0x21
	PropTopicAliasMaximum      PropertyID = 0x22
	PropTopicAlias             PropertyID = 0x23
	PropMaximumQoS             PropertyID = 0x24
	PropRetainAvailable        PropertyID = 0x25
	PropUserProperty           PropertyID = 0x26
	PropMaximumPacketSize      PropertyID = 0x27
	PropWildcardSubAvailable   PropertyID = 0x28
	PropSubscriptionIDAvail    PropertyID = 0x29
	PropSharedSubAvailable     PropertyID = 0x2A
)

// ErrUnknownProperty is a protocol error: an unrecognised property identifier.
var ErrUnknownProperty = fmt.Errorf("mqtt: unknown property identifier")

type propertyKind int

const (
	kindByte propertyKind = iota
	kindU16
	kindU32
	kindVarInt
	kindString
	kindStringPair
	kindBinary
)

var propertyKinds = map[PropertyID]propertyKind{
	PropPayloadFormat:        kindByte,
	PropMessageExpiry:        kindU32,
	PropContentType:          kindString,
	PropResponseTopic:        kindString,
	PropCorrelationData:      kindBinary,
	PropSubscriptionID:       kindVarInt,
	PropSessionExpiry:        kindU32,
	PropAssignedClientID:     kindString,
	PropServerKeepAlive:      kindU16,
	PropAuthMethod:           kindString,
	PropAuthData:             kindBinary,
	PropRequestProblemInfo:   kindByte,
	PropWillDelay:            kindU32,
	PropRequestResponseInfo:  kindByte,
	PropResponseInfo:         kindString,
	PropServerReference:      kindString,
	PropReasonString:         kindString,
	PropReceiveMaximum:       kindU16,
	PropTopicAliasMaximum:    kindU16,
	PropTopicAlias:           kindU16,
	PropMaximumQoS:           kindByte,
	PropRetainAvailable:      kindByte,
	PropUserProperty:         kindStringPair,
	PropMaximumPacketSize:    kindU32,
	PropWildcardSubAvailable: kindByte,
	PropSubscriptionIDAvail:  kindByte,
	PropSharedSubAvailable:   kindByte,
}

// Property is one decoded v5 property. Exactly one of the typed fields
// is meaningful, per ID's kind; StrPairKey/StrPairVal are used for
// PropUserProperty (and duplicates accumulate into Properties.UserProps).
type Property struct {
	ID         PropertyID
	Byte       uint8
	U16        uint16
	U32        uint32
	VarInt     uint32
	Str        string
	StrPairKey string
	StrPairVal string
	Bin        []byte
}

// Properties is a decoded v5 property set. Duplicate USER_PROPERTY
// entries accumulate in order.
type Properties struct {
	Items     []Property
	UserProps []Property // subset of Items with ID==PropUserProperty, in order
}

// Get returns the first property with the given ID, if present.
func (p Properties) Get(id PropertyID) (Property, bool) {
	for _, it := range p.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Property{}, false
}

// EncodeProperties renders a property set as a VarInt-length-prefixed
// TLV block, as required after the CONNECT keep-alive and in every v5
// variable header that carries properties.
func EncodeProperties(props []Property) ([]byte, error) {
	var body []byte
	for _, p := range props {
		kind, ok := propertyKinds[p.ID]
		if !ok {
			return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownProperty, uint8(p.ID))
		}
		body = append(body, byte(p.ID))
		switch kind {
		case kindByte:
			body = append(body, p.Byte)
		case kindU16:
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], p.U16)
			body = append(body, b[:]...)
		case kindU32:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], p.U32)
			body = append(body, b[:]...)
		case kindVarInt:
			var err error
			body, err = EncodeVarInt(body, p.VarInt)
			if err != nil {
				return nil, err
			}
		case kindString:
			body = EncodeString(body, p.Str)
		case kindStringPair:
			body = EncodeString(body, p.StrPairKey)
			body = EncodeString(body, p.StrPairVal)
		case kindBinary:
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], uint16(len(p.Bin)))
			body = append(body, b[:]...)
			body = append(body, p.Bin...)
		}
	}
	out, err := EncodeVarInt(nil, uint32(len(body)))
	if err != nil {
		return nil, err
	}
	return append(out, body...), nil
}

// DecodeProperties parses a VarInt-length-prefixed property block from
// the front of buf, returning the decoded set and bytes consumed.
func DecodeProperties(buf []byte) (Properties, int, error) {
	totalLen, varLen, err := DecodeVarInt(buf)
	if err != nil {
		return Properties{}, 0, err
	}
	if len(buf) < varLen+int(totalLen) {
		return Properties{}, 0, ErrNeedMoreData
	}
	body := buf[varLen : varLen+int(totalLen)]
	var props Properties
	for len(body) > 0 {
		id := PropertyID(body[0])
		body = body[1:]
		kind, ok := propertyKinds[id]
		if !ok {
			return Properties{}, 0, fmt.Errorf("%w: 0x%02X", ErrUnknownProperty, uint8(id))
		}
		var p Property
		p.ID = id
		switch kind {
		case kindByte:
			if len(body) < 1 {
				return Properties{}, 0, ErrNeedMoreData
			}
			p.Byte = body[0]
			body = body[1:]
		case kindU16:
			if len(body) < 2 {
				return Properties{}, 0, ErrNeedMoreData
			}
			p.U16 = binary.BigEndian.Uint16(body[:2])
			body = body[2:]
		case kindU32:
			if len(body) < 4 {
				return Properties{}, 0, ErrNeedMoreData
			}
			p.U32 = binary.BigEndian.Uint32(body[:4])
			body = body[4:]
		case kindVarInt:
			v, n, err := DecodeVarInt(body)
			if err != nil {
				return Properties{}, 0, err
			}
			p.VarInt = v
			body = body[n:]
		case kindString:
			s, n, err := DecodeString(body)
			if err != nil {
				return Properties{}, 0, err
			}
			p.Str = s
			body = body[n:]
		case kindStringPair:
			k, n, err := DecodeString(body)
			if err != nil {
				return Properties{}, 0, err
			}
			body = body[n:]
			v, n2, err := DecodeString(body)
			if err != nil {
				return Properties{}, 0, err
			}
			p.StrPairKey, p.StrPairVal = k, v
			body = body[n2:]
		case kindBinary:
			if len(body) < 2 {
				return Properties{}, 0, ErrNeedMoreData
			}
			l := int(binary.BigEndian.Uint16(body[:2]))
			if len(body) < 2+l {
				return Properties{}, 0, ErrNeedMoreData
			}
			p.Bin = append([]byte(nil), body[2:2+l]...)
			body = body[2+l:]
		}
		props.Items = append(props.Items, p)
		if id == PropUserProperty {
			props.UserProps = append(props.UserProps, p)
		}
	}
	return props, varLen + int(totalLen), nil
}
