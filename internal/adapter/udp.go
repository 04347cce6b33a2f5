package adapter

import (
	"net"
	"time"

	"github.com/plagn-go/plagn/internal/logging"
	"github.com/plagn-go/plagn/internal/record"
)

// UdpAdapter is a thin contract-level binding: one datagram in becomes
// one UdpRecord out; one queued outgoing UdpRecord's payload is written
// to the adapter's configured remote peer.
type UdpAdapter struct {
	Base

	conn    *net.UDPConn
	laddr   *net.UDPAddr
	remote  *net.UDPAddr
	readBuf []byte
}

// NewUdpAdapter constructs a UdpAdapter bound to laddr (not yet
// listening until Init). remote may be nil if this adapter only ever
// receives.
func NewUdpAdapter(name string, plagID uint64, laddr, remote *net.UDPAddr, log *logging.Logger) *UdpAdapter {
	return &UdpAdapter{
		Base:    NewBase(name, plagID, KindUdp, log),
		laddr:   laddr,
		remote:  remote,
		readBuf: make([]byte, 65535),
	}
}

func (a *UdpAdapter) Init() error {
	if a.conn != nil {
		return nil
	}
	conn, err := net.ListenUDP("udp", a.laddr)
	if err != nil {
		return err
	}
	a.conn = conn
	return nil
}

// Step reads at most one pending datagram (non-blocking) and flushes at
// most one queued outgoing datagram.
func (a *UdpAdapter) Step(now time.Time) (bool, error) {
	progressed := false

	if err := a.conn.SetReadDeadline(now.Add(time.Millisecond)); err == nil {
		n, _, err := a.conn.ReadFromUDP(a.readBuf)
		if err == nil && n > 0 {
			rec := record.NewUdpRecord(a.Name(), string(a.readBuf[:n]))
			a.Distributor.Dispatch(rec)
			progressed = true
		}
	}

	if out, ok := a.DequeueIngress(); ok {
		if err := a.dispatchOutgoing(out); err != nil {
			a.Log.Warn("udp outgoing record dropped", logging.KVErr(err))
		}
		progressed = true
	}

	return progressed, nil
}

func (a *UdpAdapter) dispatchOutgoing(r record.Record) error {
	if a.remote == nil {
		return nil
	}
	payloadV, err := r.Get(`payload`)
	if err != nil {
		return err
	}
	_, err = a.conn.WriteToUDP([]byte(payloadV.ToString()), a.remote)
	return err
}
