package prover

import (
	"context"

	"golang.org/x/sync/semaphore"

	"zk-sampler/shared"
)

// LimitHost caps the number of proofs running at once
type LimitHost struct {
	next Host
	sem  *semaphore.Weighted
}

// NewLimitHost wraps next; n <= 0 means one at a time
func NewLimitHost(next Host, n int) *LimitHost {
	if n <= 0 {
		n = 1
	}
	return &LimitHost{next: next, sem: semaphore.NewWeighted(int64(n))}
}

// Name implements Host
func (h *LimitHost) Name() string {
	return h.next.Name()
}

// Prove implements Host, waiting for a free slot or ctx
func (h *LimitHost) Prove(ctx context.Context, input []byte) (*ProofResult, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, shared.NewProverError(h.Name(), "no proving slot available", err)
	}
	defer h.sem.Release(1)
	return h.next.Prove(ctx, input)
}
