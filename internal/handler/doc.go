// Package handler adapts the gateway facade to net/http: it parses and
// forwards /rpc (and /) requests, translates internal error kinds into the
// HTTP status codes of §7, and serves /health and /status.
package handler
