package adapter

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/plagn-go/plagn/internal/logging"
	"github.com/plagn-go/plagn/internal/record"
	"github.com/plagn-go/plagn/internal/value"
)

func readBody(r *http.Request) string {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return ``
	}
	return string(b)
}

// Handler runs a matched (endpoint, method) request, reduced to a Go
// func signature. It receives the request header/param maps, the raw
// content, and returns the response to send.
type Handler func(req *record.HttpServerRecord) (headers map[string]string, body []byte, status int)

// route pairs one (endpoint, method) with its Handler.
type route struct {
	endpoint string
	method   string
	handler  Handler
}

// HttpServerAdapter is a thin, contract-level binding: it owns its own
// net/http server goroutine (the one exception to the one-worker-per-
// Adapter rule, since an http.Server already manages its own
// concurrency), routes matched requests to a Handler, and lets a
// Handler's result reach the Distributor via Dispatch.
type HttpServerAdapter struct {
	Base

	addr   string
	routes []route
	srv    *http.Server
}

// NewHttpServerAdapter constructs an HttpServerAdapter listening on addr.
func NewHttpServerAdapter(name string, plagID uint64, addr string, log *logging.Logger) *HttpServerAdapter {
	return &HttpServerAdapter{
		Base: NewBase(name, plagID, KindHttpServer, log),
		addr: addr,
	}
}

// Handle registers a Handler for (endpoint, method), evaluated in
// registration order on each request.
func (a *HttpServerAdapter) Handle(endpoint, method string, h Handler) {
	a.routes = append(a.routes, route{endpoint: endpoint, method: method, handler: h})
}

// Init starts the HTTP server's own I/O goroutine; it is not driven by
// Step at all.
func (a *HttpServerAdapter) Init() error {
	if a.srv != nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", a.serve)
	a.srv = &http.Server{Addr: a.addr, Handler: mux}
	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Log.Error("http-server adapter stopped", logging.KVErr(err))
		}
	}()
	return nil
}

func (a *HttpServerAdapter) serve(w http.ResponseWriter, r *http.Request) {
	for _, rt := range a.routes {
		if rt.endpoint != r.URL.Path || rt.method != r.Method {
			continue
		}
		rec := record.NewHttpServerRecord(a.Name(), rt.endpoint, rt.method, readBody(r))
		for k, vs := range r.Header {
			rec.Headers = append(rec.Headers, value.KV{Key: k, Val: strings.Join(vs, ",")})
		}
		for k, vs := range r.URL.Query() {
			rec.Params = append(rec.Params, value.KV{Key: k, Val: strings.Join(vs, ",")})
		}
		headers, body, status := rt.handler(rec)
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
		a.Distributor.Dispatch(rec)
		return
	}
	http.NotFound(w, r)
}

// Step is a no-op: the HTTP server's I/O happens on its own goroutine
// (see Init), not the Adapter worker loop.
func (a *HttpServerAdapter) Step(now time.Time) (bool, error) { return false, nil }

// Stop tears down the HTTP server goroutine.
func (a *HttpServerAdapter) Stop() {
	a.Base.Stop()
	if a.srv != nil {
		_ = a.srv.Close()
	}
}
