package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/avhq/jsonrpc-gateway/internal/cache"
	"github.com/avhq/jsonrpc-gateway/internal/dispatcher"
	"github.com/avhq/jsonrpc-gateway/internal/node"
)

type scriptedDoer struct {
	calls   int
	succeed bool
	body    string
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	if d.succeed {
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(d.body))}, nil
	}
	return &http.Response{StatusCode: 500, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGateway(t *testing.T, doer *scriptedDoer, denyMethods []string) *Gateway {
	t.Helper()
	u, err := url.Parse("http://upstream")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	n := node.New("a", u, doer, node.Config{FailureThreshold: 3, Cooldown: time.Minute, CallTimeout: time.Second})
	d := dispatcher.New([]*node.Node{n})
	c := cache.New(100, 2*time.Second)
	return New(c, d, denyMethods, discardLogger(), nil)
}

func TestHandleCacheHitSkipsUpstream(t *testing.T) {
	doer := &scriptedDoer{succeed: true, body: `{"jsonrpc":"2.0","result":"0x1be6","id":1}`}
	gw := newGateway(t, doer, nil)

	body := []byte(`{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`)
	if _, err := gw.Handle(context.Background(), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doer.calls != 1 {
		t.Fatalf("expected exactly one upstream call to populate the cache, got %d", doer.calls)
	}

	resp, err := gw.Handle(context.Background(), body)
	if err != nil {
		t.Fatalf("unexpected error on cache hit: %v", err)
	}
	if !strings.Contains(string(resp), "0x1be6") {
		t.Fatalf("expected cached result, got %s", resp)
	}
	if doer.calls != 1 {
		t.Fatalf("expected zero additional upstream calls on a cache hit, got total %d", doer.calls)
	}
}

func TestHandleMalformedRequest(t *testing.T) {
	gw := newGateway(t, &scriptedDoer{succeed: true}, nil)
	if _, err := gw.Handle(context.Background(), []byte(`not json`)); err == nil {
		t.Fatalf("expected malformed request error")
	}
}

func TestHandleUpstreamFailureNotCached(t *testing.T) {
	doer := &scriptedDoer{succeed: false}
	gw := newGateway(t, doer, nil)

	body := []byte(`{"jsonrpc":"2.0","method":"eth_chainId","params":[],"id":1}`)
	if _, err := gw.Handle(context.Background(), body); err == nil {
		t.Fatalf("expected upstream failure to propagate")
	}
	if gw.cache.Len() != 0 {
		t.Fatalf("upstream errors must never be cached")
	}
}

func TestHandleJSONRPCErrorBodyIsNotAFailure(t *testing.T) {
	doer := &scriptedDoer{succeed: true, body: `{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method not found"},"id":1}`}
	gw := newGateway(t, doer, nil)

	body := []byte(`{"jsonrpc":"2.0","method":"eth_foo","params":[],"id":1}`)
	resp, err := gw.Handle(context.Background(), body)
	if err != nil {
		t.Fatalf("a JSON-RPC error object is a legitimate answer, not a gateway error: %v", err)
	}
	if !strings.Contains(string(resp), "Method not found") {
		t.Fatalf("expected the error body forwarded verbatim, got %s", resp)
	}
}

func TestHandleDeniedMethodNeverCached(t *testing.T) {
	doer := &scriptedDoer{succeed: true, body: `{"jsonrpc":"2.0","result":"0x1","id":1}`}
	gw := newGateway(t, doer, []string{"eth_sendRawTransaction"})

	body := []byte(`{"jsonrpc":"2.0","method":"eth_sendRawTransaction","params":["0xdead"],"id":1}`)
	gw.Handle(context.Background(), body)
	gw.Handle(context.Background(), body)

	if doer.calls != 2 {
		t.Fatalf("expected every call for a denied method to reach upstream, got %d calls", doer.calls)
	}
}

func TestHandleNoHealthyNode(t *testing.T) {
	doer := &scriptedDoer{succeed: false}
	gw := newGateway(t, doer, nil)

	body := []byte(`{"jsonrpc":"2.0","method":"eth_chainId","params":[],"id":1}`)
	for i := 0; i < 3; i++ {
		gw.Handle(context.Background(), body)
	}

	callsBefore := doer.calls
	if _, err := gw.Handle(context.Background(), body); err != dispatcher.ErrNoHealthyNode {
		t.Fatalf("expected ErrNoHealthyNode, got %v", err)
	}
	if doer.calls != callsBefore {
		t.Fatalf("expected no upstream call once every node is unhealthy")
	}
}
