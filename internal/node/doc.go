// Package node models a single upstream JSON-RPC endpoint: its HTTP call
// path and its circuit-breaker state.
//
// A Node starts Healthy. Three consecutive failed calls (live traffic or
// probes) trip it to Unhealthy; only a successful Probe clears it. Usage:
//
//	n := node.New("primary", endpointURL, nil, node.DefaultConfig())
//	if n.IsAvailable() {
//	    body, err := n.Call(ctx, reqBody)
//	}
package node
