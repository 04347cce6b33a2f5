package record

import "fmt"

// New constructs an empty Record of the given variant, sourced from
// sourceName — the "fresh Record of the target Adapter's native variant"
// a Translator builds before running its rewrite table.
func New(v Variant, sourceName string) (Record, error) {
	switch v {
	case VariantMap:
		return NewMapRecord(sourceName), nil
	case VariantMqtt:
		return &MqttRecord{Base: NewBase(sourceName), Action: ActionPublish}, nil
	case VariantModbus:
		return &ModbusRecord{Base: NewBase(sourceName)}, nil
	case VariantHttpServer:
		return &HttpServerRecord{Base: NewBase(sourceName)}, nil
	case VariantUdp:
		return &UdpRecord{Base: NewBase(sourceName)}, nil
	}
	return nil, fmt.Errorf("record: unknown variant %v", v)
}
