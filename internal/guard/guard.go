package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campaignledger/internal/infrastructure/lock"
	"campaignledger/pkg/idgen"

	"github.com/go-redis/redis/v8"
)

// Guard 角色维度的互斥器
//
// 任何对角色的读-改-写序列都必须先 Acquire 再动手。
// 等锁阶段响应调用方取消；一旦拿到锁，临界区内的操作要跑到底，
// 中途不被打断，避免金币/经验改了一半。
type Guard interface {
	// Acquire 拿到 characterID 的互斥权，返回释放函数。
	// err 非 nil 时不需要调用释放函数。
	Acquire(ctx context.Context, characterID string) (release func(), err error)
}

// ============================================================================
// 进程内实现
// ============================================================================

// LocalGuard 进程内按角色ID分桶的互斥器
//
// 单实例部署够用；引用计数保证空闲桶及时回收，角色再多也不会泄漏。
type LocalGuard struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  chan struct{} // 容量 1 的信号量
	refs int
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{slots: make(map[string]*slot)}
}

func (g *LocalGuard) Acquire(ctx context.Context, characterID string) (func(), error) {
	g.mu.Lock()
	s, ok := g.slots[characterID]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		g.slots[characterID] = s
	}
	s.refs++
	g.mu.Unlock()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		g.unref(characterID, s)
		return nil, ctx.Err()
	}

	return func() {
		<-s.sem
		g.unref(characterID, s)
	}, nil
}

func (g *LocalGuard) unref(characterID string, s *slot) {
	g.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(g.slots, characterID)
	}
	g.mu.Unlock()
}

// ============================================================================
// Redis 实现
// ============================================================================

// RedisGuard 跨实例的角色互斥器，底层是 Redis 分布式锁
type RedisGuard struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
	maxRetries    int
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		client:        client,
		ttl:           ttl,
		retryInterval: 100 * time.Millisecond,
		maxRetries:    30,
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, characterID string) (func(), error) {
	owner := fmt.Sprintf("guard-%d", idgen.NextID())
	l := lock.NewCharacterLock(g.client, characterID, owner, g.ttl)

	if err := l.Lock(ctx, g.retryInterval, g.maxRetries); err != nil {
		return nil, err
	}

	return func() {
		// 释放动作不跟随调用方取消，临界区结束必须归还锁
		l.Unlock(context.Background())
	}, nil
}
