package gateway

import (
	"context"
	"log/slog"

	"github.com/avhq/jsonrpc-gateway/internal/cache"
	"github.com/avhq/jsonrpc-gateway/internal/dispatcher"
	"github.com/avhq/jsonrpc-gateway/internal/jsonrpc"
	"github.com/avhq/jsonrpc-gateway/internal/metrics"
	"github.com/avhq/jsonrpc-gateway/internal/node"
)

// Gateway is the thin entry point invoked by the HTTP front end: it
// consults the cache, falls through to the dispatcher on a miss, populates
// the cache on success, and lets the caller translate errors into
// HTTP-shaped outcomes (§2, §7).
type Gateway struct {
	cache       *cache.Cache
	dispatcher  *dispatcher.Dispatcher
	denyMethods map[string]struct{}
	logger      *slog.Logger
	metrics     *metrics.Collector
}

// New constructs a Gateway. denyMethods lists JSON-RPC methods that must
// never be read from or written to the cache (§4.2). collector may be nil.
func New(c *cache.Cache, d *dispatcher.Dispatcher, denyMethods []string, logger *slog.Logger, collector *metrics.Collector) *Gateway {
	deny := make(map[string]struct{}, len(denyMethods))
	for _, m := range denyMethods {
		deny[m] = struct{}{}
	}
	return &Gateway{
		cache:       c,
		dispatcher:  d,
		denyMethods: deny,
		logger:      logger,
		metrics:     collector,
	}
}

// Handle parses body as a JSON-RPC request, serves it from cache on a hit,
// or dispatches it to an upstream node on a miss, populating the cache with
// any Ok response. The returned error, if non-nil, is one of
// jsonrpc.ErrMalformedRequest, dispatcher.ErrNoHealthyNode, a
// *node.CallError (UpstreamFailure), or context.Canceled when the caller's
// context was cancelled during the upstream call; a nil error with a populated body
// covers both a plain result and a verbatim JSON-RPC error object
// (UpstreamError, §7).
func (g *Gateway) Handle(ctx context.Context, body []byte) ([]byte, error) {
	req, err := jsonrpc.ParseRequest(body)
	if err != nil {
		return nil, err
	}

	_, denied := g.denyMethods[req.Method]

	var key string
	if !denied {
		key, err = jsonrpc.Fingerprint(req.Method, req.Params)
		if err == nil {
			if cached, hit := g.cache.Get(key); hit {
				g.emit(metrics.EventCacheHit, req.Method, "")
				return cached, nil
			}
		}
	}
	g.emit(metrics.EventCacheMiss, req.Method, "")

	resp, err := g.dispatcher.Forward(ctx, body)
	if err != nil {
		if err != dispatcher.ErrNoHealthyNode {
			g.emit(metrics.EventUpstreamFailure, req.Method, reasonOf(err))
		}
		return nil, err
	}

	if !denied && key != "" {
		g.cache.Put(key, resp)
	}
	return resp, nil
}

func (g *Gateway) emit(evt metrics.EventType, method, reason string) {
	if g.metrics == nil {
		return
	}
	g.metrics.Emit(metrics.Event{Type: evt, Method: method, Reason: reason})
}

func reasonOf(err error) string {
	if ce, ok := err.(*node.CallError); ok {
		return string(ce.Reason)
	}
	return ""
}
