package adapter

import (
	"time"

	"github.com/plagn-go/plagn/internal/logging"
	"github.com/plagn-go/plagn/internal/mqtt"
	"github.com/plagn-go/plagn/internal/record"
	"github.com/plagn-go/plagn/internal/transport"
)

// MqttAdapter binds an mqtt.Client to the Adapter trait: its Step drains
// transport bytes into the client's framer, drains decoded Records into
// the Distributor, and drains the ingress queue of outgoing MqttRecords:
// publish records go to client.Publish, while subscribe and unsubscribe
// records are dropped.
type MqttAdapter struct {
	Base

	tr     transport.Transport
	client *mqtt.Client
	opts   mqtt.Options

	connectAttempted bool
}

// NewMqttAdapter constructs an MqttAdapter. Init performs the actual
// connection attempt.
func NewMqttAdapter(name string, plagID uint64, tr transport.Transport, opts mqtt.Options, log *logging.Logger) *MqttAdapter {
	a := &MqttAdapter{
		Base: NewBase(name, plagID, KindMqtt, log),
		tr:   tr,
		opts: opts,
	}
	a.client = mqtt.NewClient(name, tr, opts, a.Log)
	return a
}

// Init is idempotent: it only drives the initial Connect() attempt once.
func (a *MqttAdapter) Init() error {
	if a.connectAttempted {
		return nil
	}
	a.connectAttempted = true
	return a.client.Connect(time.Now())
}

// Step drains one chunk of transport input, offers any newly decoded
// Records to the Distributor, and sends at most one queued outgoing
// Record, reporting whether any of that made progress.
func (a *MqttAdapter) Step(now time.Time) (bool, error) {
	progressed := false

	if a.client.State() == mqtt.Disconnected {
		if err := a.client.Connect(now); err != nil {
			a.Log.Warn("mqtt reconnect failed", logging.KVErr(err))
			return false, err
		}
		progressed = true
	}

	n, err := a.tr.AvailableBytes()
	if err != nil {
		return progressed, err
	}
	if n > 0 {
		data, err := a.tr.RecvBytes(n)
		if err != nil {
			return progressed, err
		}
		if len(data) > 0 {
			if err := a.client.Step(data, now); err != nil {
				a.Log.Warn("mqtt framing error", logging.KVErr(err))
				return progressed, err
			}
			progressed = true
		}
	} else if err := a.client.Step(nil, now); err != nil {
		a.Log.Warn("mqtt keep-alive tick error", logging.KVErr(err))
		return progressed, err
	}

	select {
	case rec := <-a.client.Records:
		a.Distributor.Dispatch(rec)
		progressed = true
	default:
	}

	if out, ok := a.DequeueIngress(); ok {
		if err := a.dispatchOutgoing(out, now); err != nil {
			a.Log.Warn("mqtt outgoing record dropped", logging.KVErr(err))
		}
		progressed = true
	}

	return progressed, nil
}

func (a *MqttAdapter) dispatchOutgoing(r record.Record, now time.Time) error {
	mr, ok := r.(*record.MqttRecord)
	if !ok {
		return record.ErrRecordTypeMismatch
	}
	switch mr.Action {
	case record.ActionPublish:
		return a.client.Publish(mr.Topic, []byte(mr.Payload), mr.QoS, mr.Retain, now)
	case record.ActionSubscribe, record.ActionUnsubscribe:
		// dropped without effect: the client subscribes only to
		// Options.Subscriptions, once after each successful CONNACK, and
		// never sends UNSUBSCRIBE.
		return nil
	}
	return nil
}
