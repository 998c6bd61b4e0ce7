package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campaignledger/internal/config"
	"campaignledger/internal/progression"
	"campaignledger/internal/repository"
)

var (
	// ErrInvalidQuantity 购买数量不合法（必须为正整数）
	ErrInvalidQuantity = errors.New("购买数量必须为正整数")
	// ErrInvalidRoster 参与名单不合法（1-6 人且不可重复）
	ErrInvalidRoster = errors.New("参与名单必须为 1-6 个互不重复的角色")
	// ErrUnknownParticipant 名单里有人没有角色，整单拒绝
	ErrUnknownParticipant = errors.New("参与者没有角色")
	// ErrOutcomeUnknown 重试耗尽，写入结果未知，需要人工核对后再操作
	ErrOutcomeUnknown = errors.New("操作结果未知，请先人工核对再重试")
	// ErrLedgerAppendFailed 扣款/发奖已生效但流水写入失败，已记入对账队列
	ErrLedgerAppendFailed = errors.New("账目已生效但流水写入失败，已记入对账队列")
)

// isRetryable 判断错误是否值得重试整个读-改-写序列
//
// 校验类错误重试一万次结果也一样；乐观锁冲突和存储抖动才重试。
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, repository.ErrOptimisticLock),
		errors.Is(err, repository.ErrStoreUnavailable):
		return true
	case errors.Is(err, repository.ErrCharacterNotFound),
		errors.Is(err, repository.ErrCharacterExists),
		errors.Is(err, repository.ErrInsufficientFunds),
		errors.Is(err, repository.ErrItemNotFound),
		errors.Is(err, progression.ErrInvalidAward),
		errors.Is(err, progression.ErrConfig):
		return false
	default:
		// 其余按底层存储的临时故障处理
		return true
	}
}

// withRetry 在角色锁内限次重试读-改-写序列，线性退避
//
// 【关键点】重试耗尽后不能假装失败了事：写入可能已经部分生效
// （比如更新提交了但响应丢了），所以向上抛 ErrOutcomeUnknown，
// 让前端提示玩家先核对再重试，而不是无脑再来一单。
func withRetry(ctx context.Context, cfg *config.BusinessConfig, fn func() error) error {
	attempts := cfg.MaxRetryCount
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Duration(cfg.RetryBackoffMs) * time.Millisecond

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}
		select {
		case <-time.After(backoff * time.Duration(i+1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %v", ErrOutcomeUnknown, err)
}
