package modbus

import "testing"

func TestExtractFrameTCPReadHoldingRegisterResponse(t *testing.T) {
	// fc=0x03, byteCount=4, two registers of data
	buf := []byte{0x03, 0x04, 0x00, 0x01, 0x00, 0x02}
	_, pdu, consumed, err := ExtractFrame(buf, false, 0, false)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if consumed != len(buf) {
		t.Fatalf("expected to consume %d bytes, got %d", len(buf), consumed)
	}
	if len(pdu) != len(buf) {
		t.Fatalf("expected pdu to be whole buffer for TCP, got %d bytes", len(pdu))
	}
}

func TestExtractFrameNeedsMoreData(t *testing.T) {
	buf := []byte{0x03, 0x04, 0x00, 0x01} // byteCount says 4 but only 2 present
	_, _, _, err := ExtractFrame(buf, false, 0, false)
	if err != ErrNeedMoreData {
		t.Fatalf("expected ErrNeedMoreData, got %v", err)
	}
}

func TestExtractFrameSerialForeignSlaveStillConsumes(t *testing.T) {
	// slave 9, fc=0x06 (write single register, fixed 4-byte body)
	buf := []byte{9, 0x06, 0x00, 0x01, 0x00, 0x2A}
	slaveID, pdu, consumed, err := ExtractFrame(buf, true, 5, false)
	if err != ErrForeignSlave {
		t.Fatalf("expected ErrForeignSlave, got %v", err)
	}
	if slaveID != 9 || pdu != nil || consumed != len(buf) {
		t.Fatalf("expected frame fully consumed despite foreign slave: id=%d pdu=%v consumed=%d", slaveID, pdu, consumed)
	}
}

func TestExtractFrameExceptionReply(t *testing.T) {
	buf := []byte{0x83, 0x02} // exception on FC 0x03, illegal data address
	_, pdu, consumed, err := ExtractFrame(buf, false, 0, false)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if consumed != 2 || len(pdu) != 2 {
		t.Fatalf("expected 2-byte exception pdu, got consumed=%d pdu=%v", consumed, pdu)
	}
	if !FunctionCode(pdu[0]).IsException() {
		t.Fatal("expected exception bit set")
	}
}

func TestUnknownFunctionCodeIsFatal(t *testing.T) {
	buf := []byte{0x19, 0x00, 0x00}
	_, _, _, err := ExtractFrame(buf, false, 0, false)
	if err != ErrUnknownFunctionCode {
		t.Fatalf("expected ErrUnknownFunctionCode, got %v", err)
	}
}

func TestExtractFrameWriteCoilsRequest(t *testing.T) {
	// addr(2) qty(2) byteCount=2 data(2 bytes)
	buf := []byte{0x0F, 0x00, 0x00, 0x00, 0x10, 0x02, 0xFF, 0x00}
	_, pdu, consumed, err := ExtractFrame(buf, false, 0, true)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if consumed != len(buf) || len(pdu) != len(buf) {
		t.Fatalf("expected full frame consumed, got %d/%d", consumed, len(buf))
	}
}
