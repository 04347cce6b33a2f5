package record

import (
	"github.com/plagn-go/plagn/internal/value"
)

// MqttAction names what an outgoing MqttRecord asks the MQTT Adapter to
// do with it.
type MqttAction string

const (
	ActionPublish     MqttAction = "publish"
	ActionSubscribe   MqttAction = "subscribe"
	ActionUnsubscribe MqttAction = "unsubscribe"
)

// MqttRecord is the native Record shape for the MQTT Adapter: a single
// topic/payload pair plus the delivery attributes that travel with it.
type MqttRecord struct {
	Base
	Action  MqttAction
	Topic   string
	Payload string
	QoS     uint8
	Retain  bool
}

// NewMqttRecord constructs an incoming PUBLISH record, as built by
// mqtt.Client when it handles a PUBLISH decoded by ParsePublish.
func NewMqttRecord(sourceName, topic, payload string, qos uint8, retain bool) *MqttRecord {
	return &MqttRecord{
		Base:    NewBase(sourceName),
		Action:  ActionPublish,
		Topic:   topic,
		Payload: payload,
		QoS:     qos,
		Retain:  retain,
	}
}

func (r *MqttRecord) Variant() Variant { return VariantMqtt }

func (r *MqttRecord) Get(key string) (value.Value, error) {
	switch key {
	case `topic`:
		return value.String(r.Topic), nil
	case `payload`, `content`:
		return value.String(r.Payload), nil
	case `qos`:
		return value.Uint(uint32(r.QoS)), nil
	case `retain`:
		if r.Retain {
			return value.Uint(1), nil
		}
		return value.Uint(0), nil
	case `action`:
		return value.String(string(r.Action)), nil
	}
	return r.Base.GetBase(r, key)
}

func (r *MqttRecord) Set(key string, v value.Value) error {
	switch key {
	case `topic`:
		r.Topic = v.ToString()
		return nil
	case `payload`, `content`:
		r.Payload = v.ToString()
		return nil
	case `qos`:
		r.QoS = uint8(v.ToUint(0))
		return nil
	case `retain`:
		r.Retain = v.ToUint(0) != 0
		return nil
	case `action`:
		r.Action = MqttAction(v.ToString())
		return nil
	}
	return r.Base.SetBase(key, v)
}

func (r *MqttRecord) String() string { return r.Base.toString("MqttRecord") }
