package mqtt

import (
	"testing"
	"time"
)

func TestRetryTableIdentifierNeverZero(t *testing.T) {
	rt := NewRetryTable()
	id, err := rt.NextIdentifier()
	if err != nil {
		t.Fatalf("next identifier: %v", err)
	}
	if id == 0 {
		t.Fatal("identifier 0 is forbidden")
	}
}

func TestRetryTableSkipsInUseIdentifiers(t *testing.T) {
	rt := NewRetryTable()
	now := time.Unix(0, 0)
	id1, _ := rt.NextIdentifier()
	rt.Register(id1, PendingPubAck, []byte{1}, now)
	id2, _ := rt.NextIdentifier()
	if id1 == id2 {
		t.Fatalf("expected distinct identifiers, got %d twice", id1)
	}
}

func TestRetryTableResolveAndAdvance(t *testing.T) {
	rt := NewRetryTable()
	now := time.Unix(0, 0)
	id, _ := rt.NextIdentifier()
	rt.Register(id, PendingPubRec, []byte{0xAA}, now)

	if ok := rt.Advance(id, []byte{0xBB}, now.Add(time.Second)); !ok {
		t.Fatal("expected advance to succeed")
	}
	raw, ok := rt.Raw(id)
	if !ok || raw[0] != 0xBB {
		t.Fatalf("expected advanced raw bytes, got %v ok=%v", raw, ok)
	}

	kind, ok := rt.Resolve(id)
	if !ok || kind != PendingPubComp {
		t.Fatalf("expected PendingPubComp, got %v ok=%v", kind, ok)
	}
	if rt.Len() != 0 {
		t.Fatalf("expected table empty after resolve, got %d", rt.Len())
	}
}

func TestRetryTableStaleEntries(t *testing.T) {
	rt := NewRetryTable()
	start := time.Unix(0, 0)
	id, _ := rt.NextIdentifier()
	rt.Register(id, PendingPubAck, []byte{1}, start)

	stale := rt.Stale(start.Add(500*time.Millisecond), time.Second)
	if len(stale) != 0 {
		t.Fatalf("expected no stale entries yet, got %v", stale)
	}
	stale = rt.Stale(start.Add(2*time.Second), time.Second)
	if len(stale) != 1 || stale[0] != id {
		t.Fatalf("expected %d to be stale, got %v", id, stale)
	}
}
