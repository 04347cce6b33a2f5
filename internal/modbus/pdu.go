package modbus

import "encoding/binary"

// ExtractFrame peels one PDU off the front of buf, handling the serial
// slave-id prefix when serial is true. CRC framing is assumed to
// already be stripped by the transport layer beneath this codec, since
// that layer may itself add/verify the CRC.
//
// It always computes consumed (the number of buf bytes the frame
// occupies) even when the frame belongs to a different slave, so the
// caller can skip it; ErrForeignSlave signals exactly that case.
func ExtractFrame(buf []byte, serial bool, ownID uint8, isRequest bool) (slaveID uint8, pdu []byte, consumed int, err error) {
	idx := 0
	if serial {
		if len(buf) < 1 {
			return 0, nil, 0, ErrNeedMoreData
		}
		slaveID = buf[0]
		idx = 1
	}
	if len(buf) <= idx {
		return slaveID, nil, 0, ErrNeedMoreData
	}
	fc := FunctionCode(buf[idx])
	body := buf[idx+1:]

	bodyLen, err := bodyLength(fc, isRequest, body)
	if err != nil {
		return slaveID, nil, 0, err
	}
	total := idx + 1 + bodyLen
	if len(buf) < total {
		return slaveID, nil, 0, ErrNeedMoreData
	}
	pdu = buf[idx:total]
	consumed = total
	if serial && slaveID != ownID {
		return slaveID, nil, consumed, ErrForeignSlave
	}
	return slaveID, pdu, consumed, nil
}

// bodyLength returns the number of bytes following the function-code
// byte, per the per-function PDU length table. On the wire, every "N" in
// that table is backed by a literal byte-count (or count) field at a
// fixed offset within body; this reads that field instead of
// re-deriving N, since the two are identical in the protocol itself.
func bodyLength(fc FunctionCode, isRequest bool, body []byte) (int, error) {
	if fc.IsException() {
		return 1, nil
	}
	need := func(n int) error {
		if len(body) < n {
			return ErrNeedMoreData
		}
		return nil
	}
	switch fc.Base() {
	case ReadCoil, ReadInput, ReadHoldingRegister, ReadInputRegister:
		if isRequest {
			return 4, nil
		}
		if err := need(1); err != nil {
			return 0, err
		}
		return 1 + int(body[0]), nil

	case WriteSingleCoil, WriteSingleRegister:
		return 4, nil

	case ReadException:
		if isRequest {
			return 0, nil
		}
		return 1, nil

	case Diagnostics:
		return 4, nil

	case GetComCounter:
		return 4, nil

	case GetComLog:
		if isRequest {
			return 0, nil
		}
		if err := need(1); err != nil {
			return 0, err
		}
		return 1 + int(body[0]), nil

	case WriteCoils, WriteRegisters:
		if isRequest {
			if err := need(5); err != nil {
				return 0, err
			}
			return 5 + int(body[4]), nil
		}
		return 4, nil

	case ReportServerID:
		if isRequest {
			return 0, nil
		}
		if err := need(1); err != nil {
			return 0, err
		}
		return 1 + int(body[0]), nil

	case ReadFile, WriteFile:
		if err := need(1); err != nil {
			return 0, err
		}
		return 1 + int(body[0]), nil

	case MaskWriteRegister:
		return 6, nil

	case ReadWriteRegisters:
		if isRequest {
			if err := need(9); err != nil {
				return 0, err
			}
			return 9 + int(body[8]), nil
		}
		if err := need(1); err != nil {
			return 0, err
		}
		return 1 + int(body[0]), nil

	case ReadFIFO:
		if isRequest {
			return 2, nil
		}
		if err := need(4); err != nil {
			return 0, err
		}
		fifoCount := int(binary.BigEndian.Uint16(body[2:4]))
		return 4 + 2*fifoCount, nil

	case Encapsulated:
		if err := need(1); err != nil {
			return 0, err
		}
		return 1 + int(body[0]), nil
	}
	return 0, ErrUnknownFunctionCode
}
