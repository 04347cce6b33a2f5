package mqtt

import "encoding/binary"

// Connect flag bits.
const (
	flagUserName     = 0x80
	flagPassword     = 0x40
	flagWillRetain   = 0x20
	flagWillQoSShift = 3
	flagWillFlag     = 0x04
	flagCleanSession = 0x02
)

// ConnectOptions carries everything needed to build a CONNECT packet for
// either protocol version.
type ConnectOptions struct {
	Version      uint8 // 4 or 5
	ClientID     string
	KeepAlive    uint16
	CleanSession bool
	UserName     string
	Password     string
	WillTopic    string
	WillMessage  string
	WillQoS      uint8
	WillRetain   bool
	V5Properties []Property
}

// BuildConnect renders the CONNECT variable header and payload, then
// wraps it in the fixed header. Field order is exact:
// "MQTT" string, version byte, flags, keep-alive, (v5) properties,
// client-id, will-topic, will-message, user-name, user-password.
func BuildConnect(o ConnectOptions) ([]byte, error) {
	var body []byte
	body = EncodeString(body, "MQTT")
	body = append(body, o.Version)

	var flags uint8
	if o.UserName != `` {
		flags |= flagUserName
		if o.Password != `` {
			flags |= flagPassword
		}
	}
	if o.WillMessage != `` {
		flags |= flagWillFlag
		flags |= uint8(o.WillQoS&0x03) << flagWillQoSShift
		if o.WillRetain {
			flags |= flagWillRetain
		}
	}
	if o.CleanSession {
		flags |= flagCleanSession
	}
	body = append(body, flags)

	var ka [2]byte
	binary.BigEndian.PutUint16(ka[:], o.KeepAlive)
	body = append(body, ka[:]...)

	if o.Version == 5 {
		propBytes, err := EncodeProperties(o.V5Properties)
		if err != nil {
			return nil, err
		}
		body = append(body, propBytes...)
	}

	body = EncodeString(body, o.ClientID)
	if flags&flagWillFlag != 0 {
		body = EncodeString(body, o.WillTopic)
		body = EncodeString(body, o.WillMessage)
	}
	if flags&flagUserName != 0 {
		body = EncodeString(body, o.UserName)
		if flags&flagPassword != 0 {
			body = EncodeString(body, o.Password)
		}
	}

	return EncodeFixedHeader(CONNECT, 0, body)
}
