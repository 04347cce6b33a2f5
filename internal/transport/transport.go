// Package transport provides the interchangeable byte-stream layer that
// every application-level Adapter (MQTT, Modbus) is built on top of,
// mirroring the original TransportLayer interface: Plags only translate
// the application level, so the transport underneath is swappable.
package transport

import (
	"errors"
	"time"
)

var (
	// ErrNotConnected is returned by any I/O method called before Connect
	// (or after Disconnect / a detected drop).
	ErrNotConnected = errors.New("transport: not connected")
	// ErrConnectTimeout is returned when Connect does not complete within
	// its deadline.
	ErrConnectTimeout = errors.New("transport: connect timed out")
	// ErrConnectionFailure wraps any lower-level dial/read/write failure.
	ErrConnectionFailure = errors.New("transport: connection failure")
)

// Kind names the concrete transport implementation, mirroring the
// original's LayerType enum.
type Kind int

const (
	KindTCPClient Kind = iota
	KindTLSClient
	KindTCPServerOneClient
	KindTLSServerOneClient
	KindSerial
	KindUndefined
)

func (k Kind) String() string {
	switch k {
	case KindTCPClient:
		return `tcp_client`
	case KindTLSClient:
		return `tls_client`
	case KindTCPServerOneClient:
		return `tcp_server_one_client`
	case KindTLSServerOneClient:
		return `tls_server_one_client`
	case KindSerial:
		return `serial`
	}
	return `undefined`
}

// Transport is the contract every Adapter talks to instead of a raw
// net.Conn, so MQTT/Modbus codecs never need to know whether they sit on
// TCP, TLS, or a serial line.
type Transport interface {
	Kind() Kind

	// Connect dials the remote end, failing with ErrConnectTimeout if the
	// given timeout elapses first. A zero timeout uses the transport's
	// configured default.
	Connect(timeout time.Duration) error

	// Disconnect tears the connection down. Safe to call when already
	// disconnected.
	Disconnect() error

	// IsConnected reports connection status by actually checking the
	// underlying resource where feasible, not just a cached flag.
	IsConnected() bool

	// AvailableBytes reports how many bytes can be read without blocking.
	AvailableBytes() (int, error)

	// RecvBytes returns exactly n bytes, blocking until that many are
	// buffered or, when the transport has a non-zero timeout, until the
	// timeout elapses. With n == 0 it returns whatever is currently
	// buffered, possibly nothing, without blocking.
	RecvBytes(n int) ([]byte, error)

	// PeekAndRecv returns exactly n bytes only if n bytes are already
	// available, without blocking; otherwise it returns an empty slice
	// and no error, per the original's peekAndReceive contract.
	PeekAndRecv(n int) ([]byte, error)

	// Send writes appData to the transport in full or returns an error.
	Send(appData []byte) error
}
