package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"campaignledger/internal/config"
	"campaignledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	cfg := &config.BusinessConfig{MaxRetryCount: 3, RetryBackoffMs: 1}
	ctx := context.Background()

	t.Run("乐观锁冲突后重试成功", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, cfg, func() error {
			calls++
			if calls < 3 {
				return repository.ErrOptimisticLock
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("校验类错误不重试", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, cfg, func() error {
			calls++
			return repository.ErrInsufficientFunds
		})
		assert.ErrorIs(t, err, repository.ErrInsufficientFunds)
		assert.Equal(t, 1, calls)
	})

	t.Run("重试耗尽报结果未知", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, cfg, func() error {
			calls++
			return repository.ErrOptimisticLock
		})
		assert.ErrorIs(t, err, ErrOutcomeUnknown)
		assert.Equal(t, 3, calls)
	})

	t.Run("存储抖动也重试", func(t *testing.T) {
		calls := 0
		boom := errors.New("connection reset")
		err := withRetry(ctx, cfg, func() error {
			calls++
			if calls == 1 {
				return boom
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("存储不可用重试后恢复", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, cfg, func() error {
			calls++
			if calls == 1 {
				return fmt.Errorf("%w: timeout", repository.ErrStoreUnavailable)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("等待退避时响应取消", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := withRetry(cancelled, cfg, func() error {
			return repository.ErrOptimisticLock
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
