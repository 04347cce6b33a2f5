package record

import (
	"fmt"

	"github.com/plagn-go/plagn/internal/keyexpr"
	"github.com/plagn-go/plagn/internal/value"
)

// MapRecord is the variant used when a Translator's target Adapter has
// no richer native shape of its own — a bag of named Values addressed
// purely through the key protocol.
type MapRecord struct {
	Base
	fields map[string]value.Value
}

// NewMapRecord creates an empty MapRecord sourced from sourceName.
func NewMapRecord(sourceName string) *MapRecord {
	return &MapRecord{Base: NewBase(sourceName), fields: map[string]value.Value{}}
}

func (r *MapRecord) Variant() Variant { return VariantMap }

func (r *MapRecord) Get(key string) (value.Value, error) {
	if v, ok := r.fields[key]; ok {
		return v, nil
	}
	return r.Base.GetBase(r, key)
}

func (r *MapRecord) Set(key string, v value.Value) error {
	if key == `sourceDatagramId` {
		return r.Base.SetBase(key, v)
	}
	if key == `` {
		return fmt.Errorf("%w: empty key", keyexpr.ErrKey)
	}
	r.fields[key] = v
	return nil
}

func (r *MapRecord) String() string { return r.Base.toString("MapRecord") }
