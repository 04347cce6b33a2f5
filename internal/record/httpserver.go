package record

import "github.com/plagn-go/plagn/internal/value"

// HttpServerRecord is the native shape for the HTTP-server adapter
// contract, which this repository treats as an external
// collaborator: only enough structure to round-trip a scripted
// request/response pair through the fabric.
type HttpServerRecord struct {
	Base
	Endpoint string
	Method   string
	Headers  []value.KV
	Params   []value.KV
	Content  string
	Status   int
}

func NewHttpServerRecord(sourceName, endpoint, method, content string) *HttpServerRecord {
	return &HttpServerRecord{
		Base:     NewBase(sourceName),
		Endpoint: endpoint,
		Method:   method,
		Content:  content,
	}
}

func (r *HttpServerRecord) Variant() Variant { return VariantHttpServer }

func (r *HttpServerRecord) Get(key string) (value.Value, error) {
	switch key {
	case `endpoint`:
		return value.String(r.Endpoint), nil
	case `method`:
		return value.String(r.Method), nil
	case `headers`:
		return value.Map(r.Headers), nil
	case `params`:
		return value.Map(r.Params), nil
	case `content`:
		return value.String(r.Content), nil
	case `status`:
		return value.Int(int32(r.Status)), nil
	}
	return r.Base.GetBase(r, key)
}

func (r *HttpServerRecord) Set(key string, v value.Value) error {
	switch key {
	case `endpoint`:
		r.Endpoint = v.ToString()
		return nil
	case `method`:
		r.Method = v.ToString()
		return nil
	case `headers`:
		r.Headers = v.ToMap(nil)
		return nil
	case `params`:
		r.Params = v.ToMap(nil)
		return nil
	case `content`:
		r.Content = v.ToString()
		return nil
	case `status`:
		r.Status = int(v.ToInt(0))
		return nil
	}
	return r.Base.SetBase(key, v)
}

func (r *HttpServerRecord) String() string { return r.Base.toString("HttpServerRecord") }
