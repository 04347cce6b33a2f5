package mqtt

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/plagn-go/plagn/internal/transport"
)

// fakeTransport is an in-memory transport.Transport double: Send appends
// to outbox (for assertions), and test code feeds inbound bytes directly
// to Client.Step rather than through RecvBytes, so only the handful of
// methods Client actually drives need real behaviour.
type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	outbox    [][]byte
}

func (f *fakeTransport) Kind() transport.Kind { return transport.KindTCPClient }
func (f *fakeTransport) Connect(time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}
func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}
func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}
func (f *fakeTransport) AvailableBytes() (int, error) { return 0, nil }
func (f *fakeTransport) RecvBytes(int) ([]byte, error) { return nil, nil }
func (f *fakeTransport) PeekAndRecv(int) ([]byte, error) { return nil, nil }
func (f *fakeTransport) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), data...)
	f.outbox = append(f.outbox, cp)
	return nil
}
func (f *fakeTransport) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.outbox) == 0 {
		return nil
	}
	return f.outbox[len(f.outbox)-1]
}
func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outbox)
}

func TestClientConnectSendsConnectThenPromotesOnConnAck(t *testing.T) {
	tr := &fakeTransport{}
	c := NewClient("broker1", tr, Options{Version: 4, ClientID: "cid", KeepAlive: 2 * time.Second}, nil)
	now := time.Unix(1000, 0)
	if err := c.Connect(now); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if c.State() != MqttConnecting {
		t.Fatalf("expected MqttConnecting, got %v", c.State())
	}
	connectPkt := tr.last()
	if MessageType(connectPkt[0]>>4) != CONNECT {
		t.Fatalf("expected CONNECT to be sent first")
	}

	connack, err := EncodeFixedHeader(CONNACK, 0, []byte{0x00, 0x00})
	if err != nil {
		t.Fatalf("build connack: %v", err)
	}
	if err := c.Step(connack, now); err != nil {
		t.Fatalf("step: %v", err)
	}
	if c.State() != Connected {
		t.Fatalf("expected Connected after successful CONNACK, got %v", c.State())
	}
}

func TestClientKeepAliveSendsPingThenDeclaresDead(t *testing.T) {
	tr := &fakeTransport{}
	c := NewClient("broker1", tr, Options{Version: 4, ClientID: "cid", KeepAlive: 2 * time.Second}, nil)
	now := time.Unix(2000, 0)
	_ = c.Connect(now)
	connack, _ := EncodeFixedHeader(CONNACK, 0, []byte{0x00, 0x00})
	_ = c.Step(connack, now)

	before := tr.count()
	// advance 2s with no TX/RX -> one PINGREQ
	now = now.Add(2 * time.Second)
	if err := c.Step(nil, now); err != nil {
		t.Fatalf("step: %v", err)
	}
	if tr.count() != before+1 {
		t.Fatalf("expected one PINGREQ sent, outbox grew by %d", tr.count()-before)
	}
	if MessageType(tr.last()[0]>>4) != PINGREQ {
		t.Fatalf("expected PINGREQ, got %v", MessageType(tr.last()[0]>>4))
	}

	// advance past 4s with no RX at all since connack -> dead
	now = now.Add(2*time.Second + time.Millisecond)
	if err := c.Step(nil, now); err != nil {
		t.Fatalf("step: %v", err)
	}
	if c.State() != Disconnected {
		t.Fatalf("expected Disconnected after keep-alive expiry, got %v", c.State())
	}
}

func TestClientPublishQoS1RegistersRetryAndResendsOnStale(t *testing.T) {
	tr := &fakeTransport{}
	c := NewClient("broker1", tr, Options{Version: 4, ClientID: "cid", KeepAlive: 10 * time.Second, RetryInterval: time.Second}, nil)
	now := time.Unix(3000, 0)
	_ = c.Connect(now)
	connack, _ := EncodeFixedHeader(CONNACK, 0, []byte{0x00, 0x00})
	_ = c.Step(connack, now)

	if err := c.Publish("a/b", []byte("hi"), 1, false, now); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if c.retry.Len() != 1 {
		t.Fatalf("expected one pending entry, got %d", c.retry.Len())
	}

	now = now.Add(2 * time.Second)
	if err := c.Step(nil, now); err != nil {
		t.Fatalf("step: %v", err)
	}
	last := tr.last()
	if MessageType(last[0]>>4) != PUBLISH {
		t.Fatalf("expected resent PUBLISH, got %v", MessageType(last[0]>>4))
	}
	if last[0]&publishFlagDup == 0 {
		t.Fatal("expected DUP flag set on resend")
	}
}

func TestClientPublishIncomingQoS1SendsPubAckAndEmitsRecord(t *testing.T) {
	tr := &fakeTransport{}
	c := NewClient("broker1", tr, Options{Version: 4, ClientID: "cid", KeepAlive: 10 * time.Second}, nil)
	now := time.Unix(4000, 0)
	_ = c.Connect(now)
	connack, _ := EncodeFixedHeader(CONNACK, 0, []byte{0x00, 0x00})
	_ = c.Step(connack, now)

	pub, err := BuildPublish(Publish{Topic: "t/1", QoS: 1, Identifier: 5, Payload: []byte("x")}, 4)
	if err != nil {
		t.Fatalf("build publish: %v", err)
	}
	if err := c.Step(pub, now); err != nil {
		t.Fatalf("step: %v", err)
	}
	if MessageType(tr.last()[0]>>4) != PUBACK {
		t.Fatalf("expected PUBACK reply, got %v", MessageType(tr.last()[0]>>4))
	}
	select {
	case rec := <-c.Records:
		if rec.Topic != "t/1" || rec.Payload != "x" {
			t.Fatalf("unexpected record: %+v", rec)
		}
	default:
		t.Fatal("expected a record to be emitted")
	}
}

func TestClientFramesAcrossPartialSteps(t *testing.T) {
	tr := &fakeTransport{}
	c := NewClient("broker1", tr, Options{Version: 4, ClientID: "cid", KeepAlive: 10 * time.Second}, nil)
	now := time.Unix(5000, 0)
	_ = c.Connect(now)
	connack, _ := EncodeFixedHeader(CONNACK, 0, []byte{0x00, 0x00})

	// feed the CONNACK split across two Step calls
	if err := c.Step(connack[:1], now); err != nil {
		t.Fatalf("step partial: %v", err)
	}
	if c.State() != MqttConnecting {
		t.Fatalf("expected still MqttConnecting on partial frame, got %v", c.State())
	}
	if err := c.Step(connack[1:], now); err != nil {
		t.Fatalf("step remainder: %v", err)
	}
	if c.State() != Connected {
		t.Fatalf("expected Connected, got %v", c.State())
	}
	if !bytes.Equal(c.inBuf, nil) {
		t.Fatalf("expected buffer drained, got %v", c.inBuf)
	}
}
