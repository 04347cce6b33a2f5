package mqtt

import "encoding/binary"

const maxMqttStringLen = 65535

// EncodeString appends an MQTT string to dst: a two-byte big-endian
// length prefix followed by the (possibly binary) payload. Encoding
// clamps an oversized payload to 65535 bytes.
func EncodeString(dst []byte, s string) []byte {
	if len(s) > maxMqttStringLen {
		s = s[:maxMqttStringLen]
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, s...)
	return dst
}

// DecodeString extracts one MQTT string from the front of buf, returning
// the decoded payload and the number of input bytes consumed. It does
// not mutate buf; the caller advances its own cursor.
func DecodeString(buf []byte) (s string, n int, err error) {
	if len(buf) < 2 {
		return ``, 0, ErrNeedMoreData
	}
	l := int(binary.BigEndian.Uint16(buf[:2]))
	if len(buf) < 2+l {
		return ``, 0, ErrNeedMoreData
	}
	return string(buf[2 : 2+l]), 2 + l, nil
}

// ExtractString behaves like the source's extractMqttString: it decodes
// the leading MQTT string and returns the remainder of buf alongside it,
// for callers that want to consume their input in place.
func ExtractString(buf []byte) (s string, rest []byte, err error) {
	s, n, err := DecodeString(buf)
	if err != nil {
		return ``, buf, err
	}
	return s, buf[n:], nil
}
