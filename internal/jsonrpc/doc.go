// Package jsonrpc parses JSON-RPC 2.0 envelopes and derives the canonical
// cache fingerprint for a request.
package jsonrpc
