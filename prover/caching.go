package prover

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachingHost deduplicates identical concurrent requests and serves repeats
// from a ProofCache. Failed proofs are never cached.
type CachingHost struct {
	next   Host
	cache  *ProofCache
	group  singleflight.Group
	logger *zap.Logger
}

// NewCachingHost wraps next
func NewCachingHost(next Host, cache *ProofCache, logger *zap.Logger) *CachingHost {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingHost{next: next, cache: cache, logger: logger}
}

// Name implements Host
func (h *CachingHost) Name() string {
	return h.next.Name()
}

// Prove implements Host. The shared call keeps the first caller's deadline
// but not its cancellation; each caller still returns as soon as its own ctx
// is done.
func (h *CachingHost) Prove(ctx context.Context, input []byte) (*ProofResult, error) {
	key := h.cache.Key(input)
	if result, ok := h.cache.Get(key); ok {
		return result, nil
	}

	ch := h.group.DoChan(key, func() (interface{}, error) {
		if result, ok := h.cache.Get(key); ok {
			return result, nil
		}
		proveCtx := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			proveCtx, cancel = context.WithDeadline(proveCtx, deadline)
			defer cancel()
		}
		result, err := h.next.Prove(proveCtx, input)
		if err != nil {
			return nil, err
		}
		h.cache.Put(key, result)
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			h.logger.Debug("Joined in-flight proof", zap.String("key", key[:8]))
		}
		return res.Val.(*ProofResult), nil
	}
}
