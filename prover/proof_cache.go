package prover

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultProofTTL      = 10 * time.Minute
	proofCleanupInterval = 1 * time.Minute
	defaultMaxProofs     = 256
	proofCacheKeyPrefix  = "proof_"
)

// ProofCache keeps recent proofs keyed by a digest of the serialized input
type ProofCache struct {
	cache         map[string]*proofEntry
	mu            sync.RWMutex
	ttl           time.Duration
	maxEntries    int
	logger        *zap.Logger
	cleanupTicker *time.Ticker
	stopChan      chan struct{}
	isRunning     bool
	metrics       ProofCacheMetrics
	now           func() time.Time
}

type proofEntry struct {
	result     *ProofResult
	createdAt  time.Time
	expiresAt  time.Time
	hitCount   int64
	lastUsedAt time.Time
}

// ProofCacheMetrics tracks cache performance
type ProofCacheMetrics struct {
	TotalRequests     int64     `json:"total_requests"`
	CacheHits         int64     `json:"cache_hits"`
	CacheMisses       int64     `json:"cache_misses"`
	CacheEvictions    int64     `json:"cache_evictions"`
	CacheSize         int       `json:"cache_size"`
	HitRatio          float64   `json:"hit_ratio"`
	LastCleanupTime   time.Time `json:"last_cleanup_time"`
	CleanupOperations int64     `json:"cleanup_operations"`
}

// NewProofCache creates a cache; zero ttl or maxEntries pick the defaults
func NewProofCache(ttl time.Duration, maxEntries int, logger *zap.Logger) *ProofCache {
	if ttl <= 0 {
		ttl = defaultProofTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxProofs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProofCache{
		cache:      make(map[string]*proofEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		logger:     logger,
		stopChan:   make(chan struct{}),
		now:        time.Now,
	}
}

// Start begins the expiry sweep
func (pc *ProofCache) Start(ctx context.Context) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.isRunning {
		return fmt.Errorf("proof cache is already running")
	}

	pc.logger.Info("Starting proof cache", zap.Duration("ttl", pc.ttl), zap.Int("max_entries", pc.maxEntries))
	pc.cleanupTicker = time.NewTicker(proofCleanupInterval)
	pc.isRunning = true
	go pc.cleanupRoutine(ctx, pc.cleanupTicker, pc.stopChan)
	return nil
}

// Key digests a serialized input record
func (pc *ProofCache) Key(input []byte) string {
	hasher := sha256.New()
	hasher.Write([]byte(proofCacheKeyPrefix))
	hasher.Write(input)
	return hex.EncodeToString(hasher.Sum(nil))
}

// Get returns a live cached proof
func (pc *ProofCache) Get(key string) (*ProofResult, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.metrics.TotalRequests++
	entry, exists := pc.cache[key]
	if !exists || pc.isExpired(entry) {
		pc.metrics.CacheMisses++
		return nil, false
	}
	entry.hitCount++
	entry.lastUsedAt = pc.now()
	pc.metrics.CacheHits++
	pc.logger.Debug("Proof cache hit", zap.String("key", key[:8]), zap.Int64("hit_count", entry.hitCount))
	return entry.result, true
}

// Put stores a proof, evicting the least recently used entry when full
func (pc *ProofCache) Put(key string, result *ProofResult) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	now := pc.now()
	if _, exists := pc.cache[key]; !exists && len(pc.cache) >= pc.maxEntries {
		pc.evictOldestEntry()
	}
	pc.cache[key] = &proofEntry{
		result:     result,
		createdAt:  now,
		expiresAt:  now.Add(pc.ttl),
		lastUsedAt: now,
	}
}

// Len returns the number of stored entries, expired ones included
func (pc *ProofCache) Len() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.cache)
}

// Metrics returns a snapshot of cache performance
func (pc *ProofCache) Metrics() ProofCacheMetrics {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	metrics := pc.metrics
	metrics.CacheSize = len(pc.cache)
	if metrics.TotalRequests > 0 {
		metrics.HitRatio = float64(metrics.CacheHits) / float64(metrics.TotalRequests) * 100
	}
	return metrics
}

// Shutdown stops the sweep and drops all entries
func (pc *ProofCache) Shutdown(ctx context.Context) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if !pc.isRunning {
		return nil
	}
	close(pc.stopChan)
	pc.cleanupTicker.Stop()
	count := len(pc.cache)
	pc.cache = make(map[string]*proofEntry)
	pc.stopChan = make(chan struct{})
	pc.isRunning = false

	pc.logger.Info("Proof cache shut down", zap.Int("entries_cleared", count))
	return nil
}

func (pc *ProofCache) isExpired(entry *proofEntry) bool {
	return pc.now().After(entry.expiresAt)
}

func (pc *ProofCache) evictOldestEntry() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range pc.cache {
		if oldestKey == "" || entry.lastUsedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastUsedAt
		}
	}
	if oldestKey != "" {
		delete(pc.cache, oldestKey)
		pc.metrics.CacheEvictions++
		pc.logger.Debug("Evicted least recently used proof", zap.String("key", oldestKey[:8]))
	}
}

func (pc *ProofCache) cleanupRoutine(ctx context.Context, ticker *time.Ticker, stop chan struct{}) {
	for {
		select {
		case <-ticker.C:
			pc.performCleanup()
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (pc *ProofCache) performCleanup() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	removed := 0
	for key, entry := range pc.cache {
		if pc.isExpired(entry) {
			delete(pc.cache, key)
			removed++
		}
	}
	if removed > 0 {
		pc.logger.Debug("Removed expired proofs", zap.Int("count", removed))
	}
	pc.metrics.CleanupOperations++
	pc.metrics.LastCleanupTime = pc.now()
}
