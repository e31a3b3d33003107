package service

import (
	"context"
	"sync"
	"time"

	"optionsync/pkg/redis"

	"go.uber.org/zap"
)

// MemoryFinalizeGuard keeps claims in process memory
type MemoryFinalizeGuard struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewMemoryFinalizeGuard creates an empty in-process guard
func NewMemoryFinalizeGuard() *MemoryFinalizeGuard {
	return &MemoryFinalizeGuard{claimed: make(map[string]struct{})}
}

func (g *MemoryFinalizeGuard) TryAcquire(_ context.Context, handle string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.claimed[handle]; ok {
		return false, nil
	}
	g.claimed[handle] = struct{}{}
	return true, nil
}

func (g *MemoryFinalizeGuard) Release(_ context.Context, handle string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, handle)
	return nil
}

// RedisFinalizeGuard keeps claims in Redis so that several processes
// handling the same return URL still finalize once
type RedisFinalizeGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisFinalizeGuard creates a guard whose claims expire after ttl
func NewRedisFinalizeGuard(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisFinalizeGuard {
	if ttl <= 0 {
		ttl = redis.TTLFinalizedHandle
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFinalizeGuard{client: client, ttl: ttl, logger: logger}
}

func (g *RedisFinalizeGuard) TryAcquire(ctx context.Context, handle string) (bool, error) {
	key := g.client.KeyBuilder.KeyFinalizedHandle(handle)
	ok, err := g.client.SetNX(ctx, key, time.Now().Unix(), g.ttl)
	if err != nil {
		g.logger.Error("Failed to claim setup intent handle", zap.Error(err))
		return false, err
	}
	return ok, nil
}

func (g *RedisFinalizeGuard) Release(ctx context.Context, handle string) error {
	_, err := g.client.Del(ctx, g.client.KeyBuilder.KeyFinalizedHandle(handle))
	return err
}
