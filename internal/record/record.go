// Package record implements the polymorphic Record entity:
// a typed message with a uniform get/set-by-key protocol, carried
// between Adapters through Translators. Each protocol variant embeds
// Base and overrides Get/Set for its own fields before delegating to
// the generic key protocol (package keyexpr) for the rest.
package record

import (
	"crypto/md5"
	"errors"
	"fmt"
	"time"

	"github.com/plagn-go/plagn/internal/keyexpr"
	"github.com/plagn-go/plagn/internal/value"
)

// Variant tags which protocol-specific payload a Record carries.
type Variant int

const (
	VariantMap Variant = iota
	VariantMqtt
	VariantModbus
	VariantHttpServer
	VariantUdp
)

func (v Variant) String() string {
	switch v {
	case VariantMap:
		return `Map`
	case VariantMqtt:
		return `Mqtt`
	case VariantModbus:
		return `Modbus`
	case VariantHttpServer:
		return `HttpServer`
	case VariantUdp:
		return `Udp`
	}
	return `Unknown`
}

// ErrRecordTypeMismatch is returned when an Adapter or Translator is
// handed a Record whose variant it does not own.
var ErrRecordTypeMismatch = errors.New("record type mismatch")

// Record is the common interface every variant implements.
type Record interface {
	SourceName() string
	OwnID() string
	SourceRecordID() uint64
	CreatedAt() time.Time
	Variant() Variant
	Get(key string) (value.Value, error)
	Set(key string, v value.Value) error
	String() string
}

// Base carries the fields common to every Record variant.
// It is immutable except for sourceRecordID, which set("sourceDatagramId", ...)
// is permitted to change.
type Base struct {
	sourceName     string
	ownID          string
	sourceRecordID uint64
	createdAt      time.Time
}

// NewBase constructs a fresh (newly-created, sourceRecordID==0) Base for
// a Record produced by the Adapter named sourceName.
func NewBase(sourceName string) Base {
	return newBaseAt(sourceName, 0, time.Now())
}

// NewDerivedBase constructs a Base for a Record derived from an earlier
// one; sourceRecordID is stored as given instead of 0.
func NewDerivedBase(sourceName string, sourceRecordID uint64) Base {
	return newBaseAt(sourceName, sourceRecordID, time.Now())
}

func newBaseAt(sourceName string, sourceRecordID uint64, now time.Time) Base {
	b := Base{
		sourceName:     sourceName,
		sourceRecordID: sourceRecordID,
		createdAt:      now,
	}
	b.ownID = computeOwnID(sourceName, sourceRecordID, now)
	return b
}

// computeOwnID reproduces the source implementation's feed string byte
// for byte: sourceName + sourceRecordID(decimal) + UTC-ISO-8601 time +
// the microsecond remainder (decimal), MD5-hashed (Datagram.cpp). The
// result is the raw 16-byte digest.
func computeOwnID(sourceName string, sourceRecordID uint64, now time.Time) string {
	isoUTC := now.UTC().Format("2006-01-02T15:04:05Z")
	microRemainder := now.UnixMicro() % 1000000
	feed := fmt.Sprintf("%s%d%s%d", sourceName, sourceRecordID, isoUTC, microRemainder)
	sum := md5.Sum([]byte(feed))
	return string(sum[:])
}

func (b Base) SourceName() string     { return b.sourceName }
func (b Base) OwnID() string          { return b.ownID }
func (b Base) SourceRecordID() uint64 { return b.sourceRecordID }
func (b Base) CreatedAt() time.Time   { return b.createdAt }

// OwnIDHex renders OwnID as hex, for logging: the raw 16-byte digest is
// not safe to splice into a structured log line.
func (b Base) OwnIDHex() string { return fmt.Sprintf("%x", b.ownID) }

// SetSourceRecordID implements the one field the base protocol allows a
// Translator to mutate: set("sourceDatagramId", ...).
func (b *Base) SetSourceRecordID(v value.Value) error {
	b.sourceRecordID = v.ToU64(b.sourceRecordID)
	return nil
}

// GetBase answers the variant-independent part of the key protocol:
// literals, numeric literals, uuid, sourceDatagramId, sourcePlag, and
// SPLIT(...). self must be the outer variant so SPLIT's inner expression
// can resolve variant-specific fields.
func (b Base) GetBase(self keyexpr.Resolver, key string) (value.Value, error) {
	return keyexpr.Eval(self, keyexpr.Base{
		OwnID:          b.ownID,
		SourceRecordID: b.sourceRecordID,
		SourceName:     b.sourceName,
	}, key)
}

// SetBase implements the base Set: only "sourceDatagramId" is legal here;
// anything else is a key error the caller should report as one.
func (b *Base) SetBase(key string, v value.Value) error {
	if key == `sourceDatagramId` {
		return b.SetSourceRecordID(v)
	}
	return fmt.Errorf("%w: invalid key %q", keyexpr.ErrKey, key)
}

// toString renders the debug form every variant's String() starts from
// (Datagram::toString()).
func (b Base) toString(tag string) string {
	origin := "newly generated"
	if b.sourceRecordID != 0 {
		origin = fmt.Sprintf("generated from: %d", b.sourceRecordID)
	}
	return fmt.Sprintf("%s{%s; with id %s}", tag, origin, b.OwnIDHex())
}
