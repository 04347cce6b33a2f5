package modbus

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/plagn-go/plagn/internal/value"
)

// DataType names the scalar interpretation of one or more 16-bit
// registers.
type DataType int

const (
	TypeBool DataType = iota
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeFloat16
	TypeFloat32
	TypeFloat64
)

// ErrFloat16Unsupported marks an acknowledged stub: FLOAT16 may be
// declared on a register but is not decoded.
var ErrFloat16Unsupported = errors.New("modbus: FLOAT16 decoding is not implemented")

// RegisterCount returns how many 16-bit registers t occupies on the wire.
func (t DataType) RegisterCount() int {
	switch t {
	case TypeInt32, TypeUint32, TypeFloat32:
		return 2
	case TypeFloat64:
		return 4
	}
	return 1
}

// SwapPolicy carries the two independent swap flags read from
// configuration. Word-swap reverses 16-bit-word order; byte-swap flips
// the two bytes within each word; the two commute, so application order
// does not matter.
type SwapPolicy struct {
	WordsSwapped bool
	BytesSwapped bool
}

// reorder applies the swap policy to a big-endian register block,
// returning the bytes in the order DecodeScalar expects: natural
// big-endian, word 0 first.
func (p SwapPolicy) reorder(raw []byte) []byte {
	out := make([]byte, len(raw))
	words := len(raw) / 2
	for i := 0; i < words; i++ {
		wordPos := i
		if p.WordsSwapped {
			wordPos = words - 1 - i
		}
		srcLo, srcHi := raw[i*2], raw[i*2+1]
		if p.BytesSwapped {
			srcLo, srcHi = srcHi, srcLo
		}
		out[wordPos*2] = srcLo
		out[wordPos*2+1] = srcHi
	}
	return out
}

// DecodeScalar interprets raw (exactly t.RegisterCount()*2 bytes, wire
// big-endian) as t, after applying policy's word/byte swap.
func DecodeScalar(t DataType, policy SwapPolicy, raw []byte) (value.Value, error) {
	want := t.RegisterCount() * 2
	if len(raw) < want {
		return value.Invalid(), ErrNeedMoreData
	}
	ordered := policy.reorder(raw[:want])
	switch t {
	case TypeBool, TypeUint16:
		return value.Uint(uint32(binary.BigEndian.Uint16(ordered))), nil
	case TypeInt16:
		return value.Int(int32(int16(binary.BigEndian.Uint16(ordered)))), nil
	case TypeUint32:
		return value.Uint(binary.BigEndian.Uint32(ordered)), nil
	case TypeInt32:
		return value.Int(int32(binary.BigEndian.Uint32(ordered))), nil
	case TypeFloat32:
		// the post-swap bytes are copied verbatim into the IEEE-754 bit
		// pattern (as a memcpy onto a little-endian host would), not
		// re-interpreted big-endian: ordered[0] lands in the mantissa's
		// low byte.
		bits := binary.LittleEndian.Uint32(ordered)
		return value.Float64(float64(math.Float32frombits(bits))), nil
	case TypeFloat64:
		bits := binary.LittleEndian.Uint64(ordered)
		return value.Float64(math.Float64frombits(bits)), nil
	case TypeFloat16:
		return value.Invalid(), ErrFloat16Unsupported
	}
	return value.Invalid(), errors.New("modbus: unknown data type")
}

// EncodeScalar is DecodeScalar's inverse: render v as t's wire bytes,
// then apply policy's swap so the result round-trips through
// DecodeScalar with the same policy.
func EncodeScalar(t DataType, policy SwapPolicy, v value.Value) ([]byte, error) {
	natural := make([]byte, t.RegisterCount()*2)
	switch t {
	case TypeBool, TypeUint16:
		binary.BigEndian.PutUint16(natural, uint16(v.ToUint(0)))
	case TypeInt16:
		binary.BigEndian.PutUint16(natural, uint16(int16(v.ToInt(0))))
	case TypeUint32:
		binary.BigEndian.PutUint32(natural, v.ToUint(0))
	case TypeInt32:
		binary.BigEndian.PutUint32(natural, uint32(v.ToInt(0)))
	case TypeFloat32:
		binary.LittleEndian.PutUint32(natural, math.Float32bits(float32(v.ToDouble(0))))
	case TypeFloat64:
		binary.LittleEndian.PutUint64(natural, math.Float64bits(v.ToDouble(0)))
	case TypeFloat16:
		return nil, ErrFloat16Unsupported
	default:
		return nil, errors.New("modbus: unknown data type")
	}
	// reorder is an involution for a given policy only when applied
	// twice with the same flags; encode must produce bytes that, when
	// passed back through reorder, yield natural order again. Since
	// reorder(reorder(x)) == x for both the swap and no-swap cases (each
	// swap is its own inverse), applying it once more here is correct.
	return policy.reorder(natural), nil
}
