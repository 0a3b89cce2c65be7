package jsonrpc

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint derives the cache key for a request from its method and
// params, excluding id so that distinct client requests for the same
// logical query share a cached response (§4.2).
//
// Two syntactically different serializations of the same params value
// (whitespace, object member order) must fingerprint identically. Decoding
// into interface{} and re-encoding relies on encoding/json always emitting
// object keys in sorted order, which canonicalizes both whitespace and
// member order in one step (§9).
func Fingerprint(method string, params json.RawMessage) (string, error) {
	canonical, err := canonicalize(params)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0}) // separator: keeps "foo"+"{bar}" distinct from "foobar"+"{}"
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func canonicalize(params json.RawMessage) ([]byte, error) {
	if len(params) == 0 {
		return []byte("null"), nil
	}

	var generic interface{}
	if err := json.Unmarshal(params, &generic); err != nil {
		return nil, ErrMalformedRequest
	}

	return json.Marshal(generic)
}
