package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/avhq/jsonrpc-gateway/internal/node"
)

// ErrNoHealthyNode is returned when every node is Unhealthy; no HTTP call
// is attempted.
var ErrNoHealthyNode = errors.New("dispatcher: no healthy upstream node")

// Dispatcher owns the fixed, ordered list of upstream nodes and the
// monotonic selection cursor. It is safe for concurrent use; it holds no
// lock across an upstream HTTP call.
type Dispatcher struct {
	nodes  []*node.Node
	cursor uint64
}

// New creates a Dispatcher over nodes. The slice is never mutated after
// construction (§3: "ordered, immutable-after-startup list").
func New(nodes []*node.Node) *Dispatcher {
	return &Dispatcher{nodes: nodes}
}

// Nodes returns the dispatcher's node list, for /status.
func (d *Dispatcher) Nodes() []*node.Node {
	return d.nodes
}

// Forward selects the next available node in round-robin order and issues
// the call. Cursor advancement happens before availability filtering so
// fair distribution across the healthy subset holds without a lock on
// selection (§4.3 rationale): consecutive callers observing the same health
// snapshot visit distinct nodes in cursor order.
func (d *Dispatcher) Forward(ctx context.Context, body []byte) ([]byte, error) {
	n := len(d.nodes)
	if n == 0 {
		return nil, ErrNoHealthyNode
	}

	start := atomic.AddUint64(&d.cursor, 1) - 1

	for i := 0; i < n; i++ {
		idx := (start + uint64(i)) % uint64(n)
		candidate := d.nodes[idx]
		if candidate.IsAvailable() {
			return candidate.Call(ctx, body)
		}
	}

	return nil, ErrNoHealthyNode
}
