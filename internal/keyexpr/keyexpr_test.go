package keyexpr

import (
	"testing"

	"github.com/plagn-go/plagn/internal/value"
)

// fakeRecord is a minimal Resolver for the cases keyexpr must cover
// without pulling in the record package (would be a circular import).
type fakeRecord struct {
	base   Base
	fields map[string]value.Value
}

func (f *fakeRecord) Get(key string) (value.Value, error) {
	if v, ok := f.fields[key]; ok {
		return v, nil
	}
	return Eval(f, f.base, key)
}

func newFake() *fakeRecord {
	return &fakeRecord{
		base: Base{OwnID: "own-id-123", SourceRecordID: 7, SourceName: "adapterA"},
		fields: map[string]value.Value{
			"topic": value.String("a/b/c"),
		},
	}
}

func TestLiteral(t *testing.T) {
	r := newFake()
	v, err := r.Get(`"hello"`)
	if err != nil || v.ToString() != "hello" {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestNumericLiteral(t *testing.T) {
	r := newFake()
	v, err := r.Get(`0x2A`)
	if err != nil {
		t.Fatal(err)
	}
	if v.ToI64(-1) != 42 {
		t.Fatalf("got %v", v)
	}
}

func TestBaseFields(t *testing.T) {
	r := newFake()
	if v, _ := r.Get("uuid"); v.ToString() != "own-id-123" {
		t.Fatalf("uuid: %v", v)
	}
	if v, _ := r.Get("sourceDatagramId"); v.ToU64(0) != 7 {
		t.Fatalf("sourceDatagramId: %v", v)
	}
	if v, _ := r.Get("sourcePlag"); v.ToString() != "adapterA" {
		t.Fatalf("sourcePlag: %v", v)
	}
}

func TestSplitWholeVector(t *testing.T) {
	r := newFake()
	v, err := r.Get(`SPLIT(topic,/)`)
	if err != nil {
		t.Fatal(err)
	}
	got := v.ToVec(nil)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestSplitIndexed(t *testing.T) {
	r := newFake()
	v, err := r.Get(`SPLIT(topic,/).2`)
	if err != nil {
		t.Fatal(err)
	}
	if v.ToString() != "b" {
		t.Fatalf("got %q", v.ToString())
	}
}

func TestSplitIndexedQuotedSeparator(t *testing.T) {
	r := newFake()
	v, err := r.Get(`SPLIT(topic,"/").2`)
	if err != nil {
		t.Fatal(err)
	}
	if v.ToString() != "b" {
		t.Fatalf("got %q", v.ToString())
	}
}

func TestSplitIndexOutOfRange(t *testing.T) {
	r := newFake()
	if _, err := r.Get(`SPLIT(topic,/).9`); err == nil {
		t.Fatal("expected error")
	}
}

func TestSplitNestedParens(t *testing.T) {
	r := newFake()
	r.fields["expr"] = value.String("a|x(1)/y(2)")
	v, err := r.Get(`SPLIT(SPLIT(expr,|).2,/)`)
	if err != nil {
		t.Fatal(err)
	}
	got := v.ToVec(nil)
	if len(got) != 2 || got[0] != "x(1)" || got[1] != "y(2)" {
		t.Fatalf("got %v", got)
	}
}

func TestSplitMissingComma(t *testing.T) {
	r := newFake()
	if _, err := r.Get(`SPLIT(topic)`); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnmatchedBracketIsKeyError(t *testing.T) {
	r := newFake()
	if _, err := r.Get(`SPLIT(topic,/`); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnknownFieldIsKeyError(t *testing.T) {
	r := newFake()
	if _, err := r.Get(`notAField`); err == nil {
		t.Fatal("expected error")
	}
}
