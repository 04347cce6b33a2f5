// Package translator implements the unidirectional Record rewrite
// between two Adapters: for each Record observed on a
// source Adapter's egress, build a fresh Record of the target's native
// variant, populate it field-by-field from an ordered rewrite table of
// (target-key -> source key-protocol expression) pairs, and enqueue it
// on the target.
package translator

import (
	"fmt"

	"github.com/plagn-go/plagn/internal/logging"
	"github.com/plagn-go/plagn/internal/record"
)

// Target is the subset of an Adapter a Translator needs: somewhere to
// hand off the rewritten Record. Defined here (not imported from
// package adapter) so translator has no dependency on adapter, and
// adapter can hold Translators without a cycle.
type Target interface {
	Name() string
	Enqueue(record.Record) error
}

// RewriteEntry is one (target-key, source-expression) pair, evaluated in
// table order against the source Record's key protocol.
type RewriteEntry struct {
	TargetKey     string
	SourceKeyExpr string
}

// Translator rewrites Records from one source Adapter into another
// Adapter's native Record shape. A Translator constructed without a
// resolvable target starts dangling and is re-bound later by
// AssignTarget.
type Translator struct {
	SourceName    string
	TargetName    string
	TargetVariant record.Variant
	Rewrite       []RewriteEntry

	target Target
	log    *logging.Logger
}

// New constructs a Translator. target may be nil, leaving it dangling
// until AssignTarget is called.
func New(sourceName, targetName string, targetVariant record.Variant, rewrite []RewriteEntry, target Target, log *logging.Logger) *Translator {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Translator{
		SourceName:    sourceName,
		TargetName:    targetName,
		TargetVariant: targetVariant,
		Rewrite:       rewrite,
		target:        target,
		log:           log,
	}
}

// Dangling reports whether this Translator's target has not (yet) been
// resolved.
func (t *Translator) Dangling() bool { return t.target == nil }

// AssignTarget re-binds a dangling Translator once its target Adapter
// becomes available.
func (t *Translator) AssignTarget(target Target) { t.target = target }

// Translate runs one source Record through the rewrite table and
// enqueues the result on the target. A missing target, a key-protocol
// error, or a Set error each drop this one Record (logged) without
// returning an error to the caller — a Translator failure must never
// stop the Distributor from offering the Record to the next Translator.
func (t *Translator) Translate(source record.Record) {
	if t.target == nil {
		t.log.Debug("dropping record for dangling translator",
			logging.KV(`source`, t.SourceName), logging.KV(`target`, t.TargetName))
		return
	}

	targetRec, err := record.New(t.TargetVariant, t.TargetName)
	if err != nil {
		t.log.Error("cannot build target record", logging.KVErr(err))
		return
	}

	for _, entry := range t.Rewrite {
		v, err := source.Get(entry.SourceKeyExpr)
		if err != nil {
			t.log.Warn("key error, dropping record",
				logging.KV(`expr`, entry.SourceKeyExpr), logging.KVErr(err))
			return
		}
		if err := targetRec.Set(entry.TargetKey, v); err != nil {
			t.log.Warn("set error, dropping record",
				logging.KV(`key`, entry.TargetKey), logging.KVErr(err))
			return
		}
	}

	if err := t.target.Enqueue(targetRec); err != nil {
		t.log.Warn("enqueue to target failed", logging.KV(`target`, t.TargetName), logging.KVErr(err))
	}
}

// String renders a short debug description, in the style of Record's own.
func (t *Translator) String() string {
	state := `bound`
	if t.Dangling() {
		state = `dangling`
	}
	return fmt.Sprintf("Translator{%s -> %s, %s}", t.SourceName, t.TargetName, state)
}
