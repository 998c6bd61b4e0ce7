package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// 角色维度的分布式锁
// ============================================================================
//
// 外部存储没有行锁也没有事务，同一角色上并发的"读余额-算新值-写回"
// 必须靠我们自己串行化，否则两笔同时进行的购买会各自读到旧余额、双双扣款成功。
//
// 加锁：SET key value NX EX timeout
//   - NX 保证互斥，EX 防止持锁进程崩溃后死锁
//   - value 是持有者标识，释放时校验，避免误删别人的锁
//
// 释放：Lua 脚本把"校验 value + 删除 key"做成原子操作。
//
// 锁按角色ID分桶：不同角色的操作完全并行，同一角色排队。
// ============================================================================

var (
	ErrLockFailed  = errors.New("获取角色锁失败")
	ErrLockExpired = errors.New("角色锁已过期")
)

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string        // 持有者标识
	expiration time.Duration // 过期时间
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
//
// 先校验 value 再删 key，两步用 Lua 脚本做成原子操作：
// 否则 A 超时丢锁、B 拿到锁之后，A 的 Unlock 会把 B 的锁删掉。
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// NewCharacterLock 创建角色锁（按角色ID分桶）
func NewCharacterLock(client *redis.Client, characterID, owner string, ttl time.Duration) *DistributedLock {
	key := fmt.Sprintf("ledger:lock:char:%s", characterID)
	return NewDistributedLock(client, key, owner, ttl)
}
