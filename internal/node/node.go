package node

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/avhq/jsonrpc-gateway/internal/jsonrpc"
)

// FailureReason classifies why a live call failed, carried on CallError
// so the facade can log it without re-deriving it from the error chain.
type FailureReason string

const (
	ReasonTimeout     FailureReason = "timeout"
	ReasonTransport   FailureReason = "transport"
	ReasonBadStatus   FailureReason = "bad_status"
	ReasonBadEnvelope FailureReason = "bad_envelope"
)

// CallError wraps a failed Call or Probe with the reason the breaker
// recorded against the node.
type CallError struct {
	Reason FailureReason
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("upstream call failed (%s): %v", e.Reason, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// HTTPDoer is the HTTP client capability a Node needs. *http.Client
// satisfies it; tests supply a fake.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the circuit-breaker constants for a Node (§4.1).
type Config struct {
	FailureThreshold int
	Cooldown         time.Duration
	CallTimeout      time.Duration
}

// DefaultConfig matches the spec's defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		Cooldown:         60 * time.Second,
		CallTimeout:      5 * time.Second,
	}
}

// Node is a single upstream JSON-RPC endpoint plus its breaker state.
//
// The counter and timestamp are updated together under one mutex so a
// reader never observes one without the other (§9 "shared mutable node
// state"). Node never references the dispatcher or prober that drives it;
// failure accounting is entirely self-contained.
type Node struct {
	name     string
	endpoint *url.URL
	client   HTTPDoer
	cfg      Config

	mu                  sync.Mutex
	consecutiveFailures int
	unhealthySince      time.Time
}

// New creates a Node in the Healthy state. client may be nil, in which case
// an *http.Client with cfg.CallTimeout is used.
func New(name string, endpoint *url.URL, client HTTPDoer, cfg Config) *Node {
	if client == nil {
		client = &http.Client{Timeout: cfg.CallTimeout}
	}
	return &Node{
		name:     name,
		endpoint: endpoint,
		client:   client,
		cfg:      cfg,
	}
}

// Name returns the node's stable human label.
func (n *Node) Name() string { return n.name }

// Endpoint returns the upstream's absolute URL.
func (n *Node) Endpoint() *url.URL { return n.endpoint }

// IsAvailable reports whether the node is Healthy. An Unhealthy node is
// never selected for live traffic regardless of elapsed cooldown; only a
// successful Probe restores availability.
func (n *Node) IsAvailable() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.unhealthySince.IsZero()
}

// Snapshot describes a node's externally visible state, used by /status.
type Snapshot struct {
	Name                string
	Endpoint            string
	Healthy             bool
	ConsecutiveFailures int
	UnhealthySince      time.Time
}

// Snapshot returns a point-in-time view of the node's state.
func (n *Node) Snapshot() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Snapshot{
		Name:                n.name,
		Endpoint:            n.endpoint.String(),
		Healthy:             n.unhealthySince.IsZero(),
		ConsecutiveFailures: n.consecutiveFailures,
		UnhealthySince:      n.unhealthySince,
	}
}

// Call issues the client's JSON-RPC request body to the upstream. A
// transport error, timeout, non-2xx status, or malformed JSON-RPC envelope
// records a failure and returns a *CallError. A well-formed response
// (including one carrying a JSON-RPC error object) records a success and
// returns the response body verbatim — a JSON-RPC error is a legitimate
// upstream answer, not an availability signal (§4.1).
func (n *Node) Call(ctx context.Context, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.CallTimeout)
	defer cancel()

	respBody, err := n.do(ctx, body)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Caller went away; upstream's own state is unknown, so this
			// is not counted as a failure (§5).
			return nil, err
		}
		n.recordFailure()
		return nil, err
	}

	if _, verr := jsonrpc.ValidateResponseBody(respBody); verr != nil {
		n.recordFailure()
		return nil, &CallError{Reason: ReasonBadEnvelope, Err: verr}
	}

	n.recordSuccess()
	return respBody, nil
}

// probeRequest is the minimal eth_blockNumber request issued by Probe.
var probeRequest = []byte(`{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":0}`)

// Probe issues a minimal eth_blockNumber request and returns the resulting
// availability. A well-formed 2xx response counts as success; anything
// else, including context cancellation, counts as failure.
func (n *Node) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.CallTimeout)
	defer cancel()

	respBody, err := n.do(ctx, probeRequest)
	if err != nil {
		n.recordFailure()
		return false
	}

	if _, verr := jsonrpc.ValidateResponseBody(respBody); verr != nil {
		n.recordFailure()
		return false
	}

	n.recordSuccess()
	return true
}

func (n *Node) do(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, &CallError{Reason: ReasonTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, &CallError{Reason: ReasonTimeout, Err: err}
			}
			return nil, context.Canceled
		}
		return nil, &CallError{Reason: ReasonTransport, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CallError{Reason: ReasonTransport, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &CallError{
			Reason: ReasonBadStatus,
			Err:    fmt.Errorf("upstream returned status %d", resp.StatusCode),
		}
	}

	return respBody, nil
}

// recordFailure applies the Healthy/Unhealthy failure transitions of §4.1.
// consecutiveFailures is monotone once Unhealthy; it only resets on a
// successful Probe.
func (n *Node) recordFailure() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.consecutiveFailures++
	if n.consecutiveFailures >= n.cfg.FailureThreshold && n.unhealthySince.IsZero() {
		n.unhealthySince = time.Now()
	}
}

// recordSuccess clears the breaker. Reachable from a live call only while
// Healthy (the dispatcher never issues live calls to an Unhealthy node), and
// from Probe in either state.
func (n *Node) recordSuccess() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.consecutiveFailures = 0
	n.unhealthySince = time.Time{}
}
