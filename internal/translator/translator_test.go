package translator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plagn-go/plagn/internal/record"
	"github.com/plagn-go/plagn/internal/value"
)

type fakeTarget struct {
	name     string
	received []record.Record
	failWith error
}

func (f *fakeTarget) Name() string { return f.name }

func (f *fakeTarget) Enqueue(r record.Record) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.received = append(f.received, r)
	return nil
}

func TestTranslateDroppedWhileDangling(t *testing.T) {
	tr := New("src", "dst", record.VariantMap, nil, nil, nil)
	require.True(t, tr.Dangling())
	src := record.NewMapRecord("src")
	tr.Translate(src) // must not panic, nothing else to assert
}

func TestTranslateRewritesFields(t *testing.T) {
	target := &fakeTarget{name: "dst"}
	rewrite := []RewriteEntry{
		{TargetKey: "temperature", SourceKeyExpr: "temperature"},
		{TargetKey: "unit", SourceKeyExpr: "unit"},
	}
	tr := New("src", "dst", record.VariantMap, rewrite, target, nil)
	require.False(t, tr.Dangling())

	src := record.NewMapRecord("src")
	require.NoError(t, src.Set("temperature", value.Int(42)))
	require.NoError(t, src.Set("unit", value.String("C")))

	tr.Translate(src)

	require.Len(t, target.received, 1)
	out, ok := target.received[0].(*record.MapRecord)
	require.True(t, ok)
	v, err := out.Get("temperature")
	require.NoError(t, err)
	assert.EqualValues(t, 42, v.ToInt(0))
}

func TestTranslateDropsOnKeyError(t *testing.T) {
	target := &fakeTarget{name: "dst"}
	rewrite := []RewriteEntry{
		{TargetKey: "out", SourceKeyExpr: "doesNotExist"},
	}
	tr := New("src", "dst", record.VariantMap, rewrite, target, nil)

	src := record.NewMapRecord("src")
	tr.Translate(src)

	assert.Empty(t, target.received)
}

func TestTranslateDropsOnEnqueueFailure(t *testing.T) {
	target := &fakeTarget{name: "dst", failWith: errors.New("target full")}
	tr := New("src", "dst", record.VariantMap, nil, target, nil)

	src := record.NewMapRecord("src")
	tr.Translate(src) // logs a warning, must not panic or return an error
}

func TestAssignTargetClearsDangling(t *testing.T) {
	tr := New("src", "dst", record.VariantMap, nil, nil, nil)
	require.True(t, tr.Dangling())
	tr.AssignTarget(&fakeTarget{name: "dst"})
	assert.False(t, tr.Dangling())
}
