package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"campaignledger/internal/config"
	"campaignledger/internal/guard"
	"campaignledger/internal/model"
	"campaignledger/internal/progression"
	"campaignledger/internal/repository"
	"campaignledger/pkg/idgen"

	"gorm.io/gorm"
)

// GameService 跑团记录与发奖入口
type GameService struct {
	cfg           *config.Config
	guard         guard.Guard
	tables        progression.Tables
	charRepo      *repository.CharacterRepository
	gameRepo      *repository.GameLogRepository
	outboxRepo    *repository.OutboxRepository
	reconcileRepo *repository.ReconciliationRepository
}

func NewGameService(db *gorm.DB, g guard.Guard, tables progression.Tables, cfg *config.Config) *GameService {
	return &GameService{
		cfg:           cfg,
		guard:         g,
		tables:        tables,
		charRepo:      repository.NewCharacterRepository(db),
		gameRepo:      repository.NewGameLogRepository(db),
		outboxRepo:    repository.NewOutboxRepository(db),
		reconcileRepo: repository.NewReconciliationRepository(db),
	}
}

type LogGameRequest struct {
	DMID           int64    `json:"dm_id"`
	ParticipantIDs []string `json:"participant_ids"`
	XPAward        int64    `json:"xp_award"`
	GoldAward      int64    `json:"gold_award"`
}

// ParticipantOutcome 单个参与者的发奖结果
type ParticipantOutcome struct {
	CharacterID string `json:"character_id"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

type LogGameResult struct {
	Entry    *model.GameLogEntry  `json:"entry"`
	Outcomes []ParticipantOutcome `json:"outcomes"`
}

// LogGame 记一场跑团：名单校验 → 全员解析 → 逐人发奖 → 追加跑团记录
//
// 【关键点】校验阶段全有或全无：名单里任何一人没有角色，整单拒绝，
// 谁的奖励都不发。过了校验之后各参与者独立更新（各自拿各自的角色锁），
// 没有跨角色的原子性——部分失败时跑团记录照样落账（这场团确实打了，
// 历史事实不能丢），失败名单随结果返回，由前端提示补发。
func (s *GameService) LogGame(ctx context.Context, req *LogGameRequest) (*LogGameResult, error) {
	n := len(req.ParticipantIDs)
	if n < 1 || n > model.MaxParticipants {
		return nil, fmt.Errorf("%w: 人数 %d", ErrInvalidRoster, n)
	}
	seen := make(map[string]struct{}, n)
	for _, id := range req.ParticipantIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: 角色 %s 重复", ErrInvalidRoster, id)
		}
		seen[id] = struct{}{}
	}
	if req.XPAward < 0 {
		return nil, fmt.Errorf("%w: 经验奖励不能为负 (%d)", progression.ErrInvalidAward, req.XPAward)
	}

	// 发奖前把名单全部解析一遍，有缺失整体失败，此时还没动过任何人
	if _, err := s.charRepo.GetByCharacterIDs(ctx, req.ParticipantIDs); err != nil {
		if errors.Is(err, repository.ErrCharacterNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrUnknownParticipant, err)
		}
		return nil, err
	}

	outcomes := make([]ParticipantOutcome, 0, n)
	for _, id := range req.ParticipantIDs {
		outcome := ParticipantOutcome{CharacterID: id, Success: true}
		if err := s.awardOne(ctx, id, req.XPAward, req.GoldAward); err != nil {
			outcome.Success = false
			outcome.Error = err.Error()
			log.Printf("发奖失败: characterID=%s, err=%v", id, err)
		}
		outcomes = append(outcomes, outcome)
	}

	entry := &model.GameLogEntry{
		EntryNo: idgen.GenerateGameEntryNo(),
		Date:    time.Now().Format(model.DateLayout),
		DMID:    req.DMID,
	}
	entry.SetParticipants(req.ParticipantIDs)

	result := &LogGameResult{Entry: entry, Outcomes: outcomes}

	// 记录本身无论发奖成败都要落账
	if err := s.gameRepo.Append(context.WithoutCancel(ctx), entry); err != nil {
		enqueueReconciliation(ctx, s.reconcileRepo, model.ReconcileKindGameAppend, entry.EntryNo, entry, err)
		return result, fmt.Errorf("%w: %v", ErrLedgerAppendFailed, err)
	}

	announce(ctx, s.outboxRepo, s.cfg.Kafka.Topic.GameLog, entry.EntryNo, result)

	log.Printf("跑团已记账: entryNo=%s, dmID=%d, 参与 %d 人", entry.EntryNo, req.DMID, n)

	return result, nil
}

// awardOne 在单个角色的锁内完成一次发奖的读-改-写
func (s *GameService) awardOne(ctx context.Context, characterID string, xpAward, goldAward int64) error {
	release, err := s.guard.Acquire(ctx, characterID)
	if err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer release()

	// 临界区内不响应取消
	ctx = context.WithoutCancel(ctx)

	return withRetry(ctx, &s.cfg.Business, func() error {
		character, err := s.charRepo.GetByCharacterID(ctx, characterID)
		if err != nil {
			return err
		}
		next, err := s.tables.ApplyAward(character, xpAward, goldAward)
		if err != nil {
			return err
		}
		return s.charRepo.UpdateProgress(ctx, characterID, character.Version, next)
	})
}

// ListEntries 跑团记录分页查询
func (s *GameService) ListEntries(ctx context.Context, dmID int64, page, pageSize int) ([]*model.GameLogEntry, int64, error) {
	if dmID != 0 {
		return s.gameRepo.ListByDMID(ctx, dmID, page, pageSize)
	}
	return s.gameRepo.List(ctx, page, pageSize)
}
