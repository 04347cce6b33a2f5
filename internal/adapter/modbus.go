package adapter

import (
	"time"

	"github.com/plagn-go/plagn/internal/logging"
	"github.com/plagn-go/plagn/internal/modbus"
	"github.com/plagn-go/plagn/internal/record"
	"github.com/plagn-go/plagn/internal/transport"
)

// PollEntry is one scheduled read the ModbusAdapter issues on its own,
// independent of any ingress traffic — a PLC rarely pushes data
// unsolicited, so something has to ask.
type PollEntry struct {
	FunctionCode modbus.FunctionCode
	StartAddress uint16
	Quantity     uint16
	Every        time.Duration

	lastPolled time.Time
	nextTID    uint16
}

// ModbusAdapter binds a modbus.Codec to the Adapter trait: Step reads
// whatever the transport has buffered, decodes one frame into Records,
// issues due polls, and encodes one queued outgoing write per call.
type ModbusAdapter struct {
	Base

	tr    transport.Transport
	codec *modbus.Codec
	polls []*PollEntry

	nextTransactionID uint16
}

// NewModbusAdapter constructs a ModbusAdapter with its own poll schedule.
func NewModbusAdapter(name string, plagID uint64, tr transport.Transport, codec *modbus.Codec, polls []*PollEntry, log *logging.Logger) *ModbusAdapter {
	return &ModbusAdapter{
		Base:  NewBase(name, plagID, KindModbus, log),
		tr:    tr,
		codec: codec,
		polls: polls,
	}
}

// Init connects the transport. It does not reset the codec, so requests
// still pending from an earlier connection stay in its pending table.
func (a *ModbusAdapter) Init() error {
	if a.tr.IsConnected() {
		return nil
	}
	return a.tr.Connect(0)
}

func (a *ModbusAdapter) allocTID() uint16 {
	a.nextTransactionID++
	return a.nextTransactionID
}

// Step issues any due poll, decodes one response frame, and encodes one
// queued outgoing write, in that order, reporting whether it did
// anything.
func (a *ModbusAdapter) Step(now time.Time) (bool, error) {
	progressed := false

	for _, p := range a.polls {
		if now.Sub(p.lastPolled) < p.Every {
			continue
		}
		p.nextTID = a.allocTID()
		req, err := a.codec.BuildReadRequest(p.FunctionCode, p.StartAddress, p.Quantity, p.nextTID)
		if err != nil {
			a.Log.Warn("modbus poll build failed", logging.KVErr(err))
			continue
		}
		if err := a.tr.Send(req); err != nil {
			a.Log.Warn("modbus poll send failed", logging.KVErr(err))
			continue
		}
		p.lastPolled = now
		progressed = true
	}

	n, err := a.tr.AvailableBytes()
	if err != nil {
		return progressed, err
	}
	if n > 0 {
		buf, err := a.tr.PeekAndRecv(n)
		if err != nil {
			return progressed, err
		}
		if len(buf) > 0 {
			records, consumed, err := a.codec.DecodeResponse(buf, a.nextTransactionID)
			if err != nil {
				a.Log.Warn("modbus decode error", logging.KVErr(err))
			}
			if consumed > 0 {
				if _, err := a.tr.RecvBytes(consumed); err != nil {
					return progressed, err
				}
				for _, rec := range records {
					a.Distributor.Dispatch(rec)
				}
				progressed = true
			}
		}
	}

	if out, ok := a.DequeueIngress(); ok {
		if err := a.dispatchOutgoing(out); err != nil {
			a.Log.Warn("modbus outgoing record dropped", logging.KVErr(err))
		}
		progressed = true
	}

	return progressed, nil
}

func (a *ModbusAdapter) dispatchOutgoing(r record.Record) error {
	mr, ok := r.(*record.ModbusRecord)
	if !ok {
		return record.ErrRecordTypeMismatch
	}
	fc := modbus.FunctionCode(mr.FunctionCode)
	if fc != modbus.WriteSingleCoil {
		fc = modbus.WriteSingleRegister
	}
	req, err := a.codec.BuildWriteRequest(fc, mr.RegisterAddress, mr.Value, a.allocTID())
	if err != nil {
		return err
	}
	return a.tr.Send(req)
}
