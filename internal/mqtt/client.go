package mqtt

import (
	"fmt"
	"time"

	"github.com/plagn-go/plagn/internal/logging"
	"github.com/plagn-go/plagn/internal/record"
	"github.com/plagn-go/plagn/internal/transport"
)

// State is one node of the client state machine: Disconnected -> TcpConnecting -> MqttConnecting -> Connected,
// with failure at any step returning to Disconnected.
type State int

const (
	Disconnected State = iota
	TcpConnecting
	MqttConnecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return `disconnected`
	case TcpConnecting:
		return `tcp_connecting`
	case MqttConnecting:
		return `mqtt_connecting`
	case Connected:
		return `connected`
	}
	return `unknown`
}

// Options configures a Client for one broker connection.
type Options struct {
	Version      uint8 // 4 or 5
	ClientID     string
	KeepAlive    time.Duration
	CleanSession bool
	UserName     string
	Password     string
	WillTopic    string
	WillMessage  string
	WillQoS      uint8
	WillRetain   bool
	V5Properties []Property

	ConnectTimeout time.Duration
	RetryInterval  time.Duration // defaults to KeepAlive

	Subscriptions []Subscription
}

// Client drives one MQTT connection's state machine over a
// transport.Transport: framing, CONNECT/CONNACK, QoS-driven PUBLISH
// delivery with retry, keep-alive, and reconnection.
type Client struct {
	opts Options
	tr   transport.Transport
	log  *logging.Logger

	state     State
	retry     *RetryTable
	inBuf     []byte
	lastSend  time.Time
	lastRecv  time.Time
	sessionOk bool

	sourceName string

	// Incoming decodes become Records on this channel; the owning
	// Adapter's Step drains it.
	Records chan *record.MqttRecord
}

// NewClient constructs a Client bound to tr, not yet connected.
func NewClient(sourceName string, tr transport.Transport, opts Options, log *logging.Logger) *Client {
	if opts.RetryInterval == 0 {
		opts.RetryInterval = opts.KeepAlive
	}
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Client{
		opts:       opts,
		tr:         tr,
		log:        log,
		state:      Disconnected,
		retry:      NewRetryTable(),
		sourceName: sourceName,
		Records:    make(chan *record.MqttRecord, 64),
	}
}

// State reports the client's current state-machine node.
func (c *Client) State() State { return c.state }

// Connect drives Disconnected -> TcpConnecting -> MqttConnecting,
// blocking until the transport is up and CONNECT is sent. The caller
// must then feed received bytes to Step until CONNACK promotes the
// client to Connected.
func (c *Client) Connect(now time.Time) error {
	c.state = TcpConnecting
	timeout := c.opts.ConnectTimeout
	if timeout == 0 {
		timeout = 2500 * time.Millisecond
	}
	if err := c.tr.Connect(timeout); err != nil {
		c.state = Disconnected
		return fmt.Errorf("mqtt: tcp connect: %w", err)
	}

	c.state = MqttConnecting
	pkt, err := BuildConnect(ConnectOptions{
		Version:      c.opts.Version,
		ClientID:     c.opts.ClientID,
		KeepAlive:    uint16(c.opts.KeepAlive / time.Second),
		CleanSession: c.opts.CleanSession,
		UserName:     c.opts.UserName,
		Password:     c.opts.Password,
		WillTopic:    c.opts.WillTopic,
		WillMessage:  c.opts.WillMessage,
		WillQoS:      c.opts.WillQoS,
		WillRetain:   c.opts.WillRetain,
		V5Properties: c.opts.V5Properties,
	})
	if err != nil {
		c.state = Disconnected
		return fmt.Errorf("mqtt: build connect: %w", err)
	}
	if err := c.tr.Send(pkt); err != nil {
		c.state = Disconnected
		return fmt.Errorf("mqtt: send connect: %w", err)
	}
	c.lastSend = now
	c.lastRecv = now
	return nil
}

// Disconnect sends DISCONNECT (best-effort) and tears the transport down,
// returning the client to Disconnected.
func (c *Client) Disconnect() error {
	if c.state == Connected {
		pkt, err := EncodeFixedHeader(DISCONNECT, 0, nil)
		if err == nil {
			_ = c.tr.Send(pkt)
		}
	}
	c.state = Disconnected
	return c.tr.Disconnect()
}

// Step feeds newly received bytes into the client's framer, processing
// every complete packet, and advances now-based keep-alive bookkeeping.
// It must be called frequently (e.g. from an Adapter's 1ms worker loop).
func (c *Client) Step(data []byte, now time.Time) error {
	if len(data) > 0 {
		c.inBuf = append(c.inBuf, data...)
	}
	for {
		pkt, consumed, err := ParseNext(c.inBuf)
		if err == ErrNeedMoreData {
			break
		}
		if err != nil {
			return fmt.Errorf("mqtt: framing error: %w", err)
		}
		c.inBuf = c.inBuf[consumed:]
		c.lastRecv = now
		if err := c.handlePacket(pkt, now); err != nil {
			return err
		}
	}
	return c.tick(now)
}

func (c *Client) handlePacket(pkt Packet, now time.Time) error {
	switch pkt.Type {
	case CONNACK:
		ack, err := ParseConnAck(pkt.Remaining, c.opts.Version)
		if err != nil {
			return err
		}
		c.log.Info("connack received", logging.KV(`reason`, ReasonString(ack.ReasonCode)))
		if ack.ReasonCode == 0x00 {
			c.state = Connected
			c.sessionOk = ack.SessionPresent
			return c.resubscribe(now)
		}
		c.state = Disconnected
		return fmt.Errorf("mqtt: connect refused: %s", ReasonString(ack.ReasonCode))

	case PUBLISH:
		pub, err := ParsePublish(pkt.Flags, pkt.Remaining, c.opts.Version)
		if err != nil {
			return err
		}
		// string(pub.Payload) is a byte-for-byte copy, not a UTF-8 check —
		// a binary payload survives unchanged through Value and Record.
		rec := record.NewMqttRecord(c.sourceName, pub.Topic, string(pub.Payload), pub.QoS, pub.Retain)
		select {
		case c.Records <- rec:
		default:
			c.log.Warn("record queue full, dropping publish", logging.KV(`topic`, pub.Topic))
		}
		switch pub.QoS {
		case 1:
			ackPkt, err := BuildPubAck(pub.Identifier)
			if err != nil {
				return err
			}
			return c.send(ackPkt, now)
		case 2:
			ackPkt, err := BuildPubRec(pub.Identifier)
			if err != nil {
				return err
			}
			return c.send(ackPkt, now)
		}
		return nil

	case PUBACK:
		id, err := ParseIdentifierOnly(pkt.Remaining)
		if err != nil {
			return err
		}
		c.retry.Resolve(id)
		return nil

	case PUBREC:
		id, err := ParseIdentifierOnly(pkt.Remaining)
		if err != nil {
			return err
		}
		relPkt, err := BuildPubRel(id)
		if err != nil {
			return err
		}
		c.retry.Advance(id, relPkt, now)
		return c.send(relPkt, now)

	case PUBREL:
		id, err := ParseIdentifierOnly(pkt.Remaining)
		if err != nil {
			return err
		}
		compPkt, err := BuildPubComp(id)
		if err != nil {
			return err
		}
		return c.send(compPkt, now)

	case PUBCOMP:
		id, err := ParseIdentifierOnly(pkt.Remaining)
		if err != nil {
			return err
		}
		c.retry.Resolve(id)
		return nil

	case SUBACK:
		ack, err := ParseSubAck(pkt.Remaining, c.opts.Version)
		if err != nil {
			return err
		}
		c.retry.Resolve(ack.Identifier)
		return nil

	case UNSUBACK:
		ack, err := ParseUnsubAck(pkt.Remaining, c.opts.Version)
		if err != nil {
			return err
		}
		c.retry.Resolve(ack.Identifier)
		return nil

	case PINGRESP:
		return nil

	case DISCONNECT:
		c.state = Disconnected
		return c.tr.Disconnect()
	}
	return nil
}

func (c *Client) resubscribe(now time.Time) error {
	if len(c.opts.Subscriptions) == 0 {
		return nil
	}
	id, err := c.retry.NextIdentifier()
	if err != nil {
		return err
	}
	pkt, err := BuildSubscribe(id, c.opts.Subscriptions, nil, c.opts.Version)
	if err != nil {
		return err
	}
	c.retry.Register(id, PendingSubAck, pkt, now)
	return c.send(pkt, now)
}

// Publish sends an outgoing PUBLISH, registering it in the retry table
// when qos > 0.
func (c *Client) Publish(topic string, payload []byte, qos uint8, retain bool, now time.Time) error {
	if c.state != Connected {
		return fmt.Errorf("mqtt: publish while %s", c.state)
	}
	var id uint16
	if qos > 0 {
		var err error
		id, err = c.retry.NextIdentifier()
		if err != nil {
			return err
		}
	}
	pkt, err := BuildPublish(Publish{
		QoS:        qos,
		Retain:     retain,
		Topic:      topic,
		Identifier: id,
		Payload:    payload,
	}, c.opts.Version)
	if err != nil {
		return err
	}
	if qos > 0 {
		kind := PendingPubAck
		if qos == 2 {
			kind = PendingPubRec
		}
		c.retry.Register(id, kind, pkt, now)
	}
	return c.send(pkt, now)
}

func (c *Client) send(pkt []byte, now time.Time) error {
	if err := c.tr.Send(pkt); err != nil {
		return err
	}
	c.lastSend = now
	return nil
}

// tick implements the keep-alive half of the state machine:
// send PINGREQ when idle for keep_alive_seconds, declare the connection
// dead after 2x keep_alive_seconds with no RX, and resend any retry-table
// entry older than RetryInterval.
func (c *Client) tick(now time.Time) error {
	if c.state != Connected || c.opts.KeepAlive <= 0 {
		return nil
	}
	if now.Sub(c.lastRecv) > 2*c.opts.KeepAlive {
		c.log.Warn("keep-alive expired, declaring connection dead")
		c.state = Disconnected
		return c.tr.Disconnect()
	}
	if now.Sub(c.lastSend) >= c.opts.KeepAlive {
		pkt, err := EncodeFixedHeader(PINGREQ, 0, nil)
		if err != nil {
			return err
		}
		if err := c.send(pkt, now); err != nil {
			return err
		}
	}
	for _, id := range c.retry.Stale(now, c.opts.RetryInterval) {
		raw, ok := c.retry.Raw(id)
		if !ok {
			continue
		}
		if len(raw) > 0 && MessageType(raw[0]>>4) == PUBLISH {
			raw[0] |= publishFlagDup
		}
		if err := c.send(raw, now); err != nil {
			return err
		}
		c.retry.MarkResent(id, now)
	}
	return nil
}
