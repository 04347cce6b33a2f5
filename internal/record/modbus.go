package record

import "github.com/plagn-go/plagn/internal/value"

// ModbusRecord is the native Record shape for the Modbus Adapter: one
// register's worth of decoded value plus the function code it arrived
// under.
type ModbusRecord struct {
	Base
	FunctionCode    uint8
	RegisterAddress uint16
	Value           value.Value
}

// NewModbusRecord constructs a record for one decoded register.
func NewModbusRecord(sourceName string, fc uint8, register uint16, v value.Value) *ModbusRecord {
	return &ModbusRecord{
		Base:            NewBase(sourceName),
		FunctionCode:    fc,
		RegisterAddress: register,
		Value:           v,
	}
}

func (r *ModbusRecord) Variant() Variant { return VariantModbus }

func (r *ModbusRecord) Get(key string) (value.Value, error) {
	switch key {
	case `function_code`:
		return value.Uint(uint32(r.FunctionCode)), nil
	case `register`, `register_address`:
		return value.Uint(uint32(r.RegisterAddress)), nil
	case `value`:
		return r.Value, nil
	}
	return r.Base.GetBase(r, key)
}

func (r *ModbusRecord) Set(key string, v value.Value) error {
	switch key {
	case `function_code`:
		r.FunctionCode = uint8(v.ToUint(0))
		return nil
	case `register`, `register_address`:
		r.RegisterAddress = uint16(v.ToUint(0))
		return nil
	case `value`:
		r.Value = v
		return nil
	}
	return r.Base.SetBase(key, v)
}

func (r *ModbusRecord) String() string { return r.Base.toString("ModbusRecord") }
