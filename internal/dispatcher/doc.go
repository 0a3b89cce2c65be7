// Package dispatcher implements the health-aware round-robin selector that
// forwards a request to one upstream node (§4.3).
package dispatcher
