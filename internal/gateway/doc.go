// Package gateway is the facade the HTTP front end calls into: cache
// lookup, dispatch on miss, cache population on success, and translation
// of internal error kinds into the three HTTP-relevant outcomes described
// in §7 (MalformedRequest, NoHealthyNode, UpstreamFailure — UpstreamError
// is not an error at this layer, it's a normal 200 body carrying the
// upstream's JSON-RPC error object verbatim).
package gateway
