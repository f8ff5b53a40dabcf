// Package taskgraph runs a map of named nodes as a resumable, loop-bounded
// state machine. It is the minimal primitive under the document pipeline:
// no scheduler, just visit-capped transitions over shared state.
package taskgraph

import (
	"context"
	"errors"
	"fmt"
)

// ErrVisitCapExceeded is returned when a node is entered more often than its
// MaxVisits allows. This is deliberately fatal: an uncapped transition loop
// should surface as an error, not spin forever.
var ErrVisitCapExceeded = errors.New("task graph visit cap exceeded")

// ErrUnknownNode is returned when a transition targets a node id that is not
// in the graph.
var ErrUnknownNode = errors.New("unknown task graph node")

// Node is one unit of work in the graph. Run performs the node's work
// against the shared state; Next inspects the state and returns the id of
// the following node, or "" to terminate. MaxVisits defaults to 1.
type Node[S any] struct {
	ID        string
	Run       func(ctx context.Context, state S) error
	Next      func(state S) string
	MaxVisits int
}

// Runner executes a node graph.
type Runner[S any] struct {
	nodes map[string]Node[S]
}

// Options tunes a single traversal.
type Options[S any] struct {
	// Visits is the visit-count table keyed by node id. Passing a table from
	// a checkpoint resumes loop bookkeeping; nil starts fresh.
	Visits map[string]int
	// Cancelled is checked before every node. A true return stops the
	// traversal without error.
	Cancelled func() bool
	// AfterNode, when set, runs after a node's Run succeeds and before the
	// transition. It is the checkpoint hook.
	AfterNode func(ctx context.Context, nodeID string, state S) error
}

// New builds a runner from the given nodes. Duplicate ids are an error.
func New[S any](nodes []Node[S]) (*Runner[S], error) {
	m := make(map[string]Node[S], len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return nil, errors.New("task graph node with empty id")
		}
		if _, exists := m[n.ID]; exists {
			return nil, fmt.Errorf("duplicate task graph node %q", n.ID)
		}
		if n.Run == nil || n.Next == nil {
			return nil, fmt.Errorf("node %q missing Run or Next", n.ID)
		}
		m[n.ID] = n
	}
	return &Runner[S]{nodes: m}, nil
}

// Run traverses the graph from start until a node's Next returns "" or the
// traversal is cancelled. Each node's visit count is incremented before it
// runs; exceeding MaxVisits (default 1) fails the traversal.
func (r *Runner[S]) Run(ctx context.Context, start string, state S, opts Options[S]) error {
	visits := opts.Visits
	if visits == nil {
		visits = make(map[string]int)
	}

	current := start
	for current != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.Cancelled != nil && opts.Cancelled() {
			return nil
		}

		node, ok := r.nodes[current]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownNode, current)
		}

		limit := node.MaxVisits
		if limit <= 0 {
			limit = 1
		}
		visits[current]++
		if visits[current] > limit {
			return fmt.Errorf("node %q: %w (max %d)", current, ErrVisitCapExceeded, limit)
		}

		if err := node.Run(ctx, state); err != nil {
			return fmt.Errorf("node %q: %w", current, err)
		}
		if opts.AfterNode != nil {
			if err := opts.AfterNode(ctx, current, state); err != nil {
				return fmt.Errorf("after node %q: %w", current, err)
			}
		}

		current = node.Next(state)
	}
	return nil
}
