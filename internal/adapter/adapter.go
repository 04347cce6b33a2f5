// Package adapter implements the Adapter trait: a named,
// protocol-bound worker with an ingress queue of outgoing Records and an
// egress Distributor that fans decoded Records out to Translators.
package adapter

import (
	"sync"
	"time"

	"github.com/plagn-go/plagn/internal/logging"
	"github.com/plagn-go/plagn/internal/record"
	"github.com/plagn-go/plagn/internal/translator"
)

// Kind tags which protocol an Adapter speaks.
type Kind int

const (
	KindMqtt Kind = iota
	KindModbus
	KindHttpServer
	KindUdp
)

func (k Kind) String() string {
	switch k {
	case KindMqtt:
		return `mqtt`
	case KindModbus:
		return `modbus`
	case KindHttpServer:
		return `httpServer`
	case KindUdp:
		return `udp`
	}
	return `unknown`
}

// Adapter is the trait every protocol binding implements.
type Adapter interface {
	Name() string
	PlagID() uint64
	Kind() Kind
	Init() error
	Step(now time.Time) (bool, error)
	Stop()
	Stopped() bool
	Enqueue(r record.Record) error
}

// idleSleep is how long Run() backs off when a Step made no progress.
const idleSleep = time.Millisecond

// Base carries the fields and plumbing common to every concrete Adapter:
// identity, the ingress queue, the egress Distributor, and cooperative
// stop signalling.
type Base struct {
	name   string
	plagID uint64
	kind   Kind

	Log *logging.Logger

	mu      sync.Mutex
	ingress []record.Record
	stopped bool

	Distributor *Distributor
}

// NewBase constructs a Base identity block for a concrete Adapter.
func NewBase(name string, plagID uint64, kind Kind, log *logging.Logger) Base {
	if log == nil {
		log = logging.NewDiscard()
	}
	return Base{
		name:        name,
		plagID:      plagID,
		kind:        kind,
		Log:         log,
		Distributor: NewDistributor(),
	}
}

func (b *Base) Name() string   { return b.name }
func (b *Base) PlagID() uint64 { return b.plagID }
func (b *Base) Kind() Kind     { return b.kind }

// DistributorRef exposes the embedded Distributor to callers that only
// hold an Adapter interface value, for topology wiring (the Adapter
// trait itself has no business exposing this).
func (b *Base) DistributorRef() *Distributor { return b.Distributor }

// Enqueue adds r to the ingress queue; it is the only cross-thread entry
// point onto an Adapter.
func (b *Base) Enqueue(r record.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return nil
	}
	b.ingress = append(b.ingress, r)
	return nil
}

// DequeueIngress pops the oldest queued outgoing Record, if any. Concrete
// Adapters call this from Step to drive their encode/transmit half.
func (b *Base) DequeueIngress() (record.Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.ingress) == 0 {
		return nil, false
	}
	r := b.ingress[0]
	b.ingress = b.ingress[1:]
	return r, true
}

// Stop requests cooperative shutdown; future Run loops observe this and
// exit at the next cycle boundary.
func (b *Base) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

// Stopped reports whether Stop has been called.
func (b *Base) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

// Run is the generic worker loop: invoke step repeatedly, sleeping
// idleSleep between no-progress iterations, until Stop is observed.
// Step errors are left to the concrete Adapter to log; Run only decides
// whether to keep looping.
func Run(a Adapter, clock func() time.Time) {
	if clock == nil {
		clock = time.Now
	}
	for !a.Stopped() {
		progressed, _ := a.Step(clock())
		if !progressed {
			time.Sleep(idleSleep)
		}
	}
}

// Distributor fans a source Adapter's decoded Records out to the
// Translators attached to it, in insertion order.
type Distributor struct {
	mu         sync.Mutex
	translator []*translator.Translator
}

// NewDistributor returns an empty, append-only Distributor.
func NewDistributor() *Distributor {
	return &Distributor{}
}

// Attach appends a Translator to the fan-out list. Attach order is the
// only ordering guarantee the Distributor makes.
func (d *Distributor) Attach(t *translator.Translator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.translator = append(d.translator, t)
}

// Dispatch offers r to every attached Translator in insertion order.
func (d *Distributor) Dispatch(r record.Record) {
	d.mu.Lock()
	targets := make([]*translator.Translator, len(d.translator))
	copy(targets, d.translator)
	d.mu.Unlock()

	for _, t := range targets {
		t.Translate(r)
	}
}
