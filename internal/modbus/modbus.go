// Package modbus implements the Modbus TCP/serial PDU codec:
// function-code dispatch, per-function PDU length recovery, word/byte
// swap policy, coil-bit extraction, and the register-type table that
// drives decoding a raw register block into typed Values.
package modbus

import "errors"

// FunctionCode identifies a Modbus request/response's operation.
type FunctionCode uint8

const (
	ReadCoil             FunctionCode = 0x01
	ReadInput            FunctionCode = 0x02
	ReadHoldingRegister  FunctionCode = 0x03
	ReadInputRegister    FunctionCode = 0x04
	WriteSingleCoil      FunctionCode = 0x05
	WriteSingleRegister  FunctionCode = 0x06
	ReadException        FunctionCode = 0x07
	Diagnostics          FunctionCode = 0x08
	GetComCounter        FunctionCode = 0x0B
	GetComLog            FunctionCode = 0x0C
	WriteCoils           FunctionCode = 0x0F
	WriteRegisters       FunctionCode = 0x10
	ReportServerID       FunctionCode = 0x11
	ReadFile             FunctionCode = 0x14
	WriteFile            FunctionCode = 0x15
	MaskWriteRegister    FunctionCode = 0x16
	ReadWriteRegisters   FunctionCode = 0x17
	ReadFIFO             FunctionCode = 0x18
	Encapsulated         FunctionCode = 0x2B

	exceptionBit FunctionCode = 0x80
)

// IsException reports whether fc has the exception bit set.
func (fc FunctionCode) IsException() bool { return fc&exceptionBit != 0 }

// Base strips the exception bit, returning the function code an
// exception reply was responding to.
func (fc FunctionCode) Base() FunctionCode { return fc &^ exceptionBit }

func (fc FunctionCode) String() string {
	switch fc.Base() {
	case ReadCoil:
		return `READ_COIL`
	case ReadInput:
		return `READ_INPUT`
	case ReadHoldingRegister:
		return `READ_HOLDING_REGISTER`
	case ReadInputRegister:
		return `READ_INPUT_REGISTER`
	case WriteSingleCoil:
		return `WRITE_SINGLE_COIL`
	case WriteSingleRegister:
		return `WRITE_SINGLE_REGISTER`
	case ReadException:
		return `READ_EXCEPTION`
	case Diagnostics:
		return `DIAGNOSTICS`
	case GetComCounter:
		return `GET_COM_COUNTER`
	case GetComLog:
		return `GET_COM_LOG`
	case WriteCoils:
		return `WRITE_COILS`
	case WriteRegisters:
		return `WRITE_REGISTERS`
	case ReportServerID:
		return `REPORT_SERVER_ID`
	case ReadFile:
		return `READ_FILE`
	case WriteFile:
		return `WRITE_FILE`
	case MaskWriteRegister:
		return `MASK_WRITE_REGISTER`
	case ReadWriteRegisters:
		return `READ_WRITE_REGISTERS`
	case ReadFIFO:
		return `READ_FIFO`
	case Encapsulated:
		return `ENCAPSULATED`
	}
	return `UNKNOWN`
}

var (
	// ErrUnknownFunctionCode is a fatal parse error: an unrecognised,
	// non-exception function code.
	ErrUnknownFunctionCode = errors.New("modbus: unknown function code")
	// ErrNeedMoreData signals the PDU extractor needs more bytes.
	ErrNeedMoreData = errors.New("modbus: need more data")
	// ErrForeignSlave is returned (not fatal) when a serial frame's slave
	// id does not match our configured id; the caller should drop the
	// frame silently.
	ErrForeignSlave = errors.New("modbus: frame addressed to a different slave")
)
