package record

import "github.com/plagn-go/plagn/internal/value"

// UdpRecord is the native shape for the (trivial, out-of-scope) UDP
// broadcast adapter: one opaque datagram payload.
type UdpRecord struct {
	Base
	Payload string
}

func NewUdpRecord(sourceName, payload string) *UdpRecord {
	return &UdpRecord{Base: NewBase(sourceName), Payload: payload}
}

func (r *UdpRecord) Variant() Variant { return VariantUdp }

func (r *UdpRecord) Get(key string) (value.Value, error) {
	switch key {
	case `payload`, `content`:
		return value.String(r.Payload), nil
	}
	return r.Base.GetBase(r, key)
}

func (r *UdpRecord) Set(key string, v value.Value) error {
	switch key {
	case `payload`, `content`:
		r.Payload = v.ToString()
		return nil
	}
	return r.Base.SetBase(key, v)
}

func (r *UdpRecord) String() string { return r.Base.toString("UdpRecord") }
