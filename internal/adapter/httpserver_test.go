package adapter

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/plagn-go/plagn/internal/record"
)

func TestHttpServerAdapterRoutesMatchedRequest(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	a := NewHttpServerAdapter("h1", 1, addr, nil)
	var got []record.Record
	a.Distributor.Attach(newRecordingTranslator("h1", "sink", &got))

	a.Handle("/ping", http.MethodGet, func(req *record.HttpServerRecord) (map[string]string, []byte, int) {
		return map[string]string{"X-Test": "1"}, []byte("pong"), http.StatusOK
	})

	if err := a.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer a.Stop()

	var resp *http.Response
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://" + addr + "/ping")
		if err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "pong" {
		t.Fatalf("expected pong body, got %q", body)
	}
	if resp.Header.Get("X-Test") != "1" {
		t.Fatalf("expected X-Test header to be set")
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 dispatched record, got %d", len(got))
	}
}

func TestHttpServerAdapterUnmatchedRouteIs404(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	a := NewHttpServerAdapter("h1", 1, addr, nil)
	if err := a.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer a.Stop()

	var resp *http.Response
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://" + addr + "/nope")
		if err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
