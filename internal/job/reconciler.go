package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"campaignledger/internal/config"
	"campaignledger/internal/model"
	"campaignledger/internal/repository"

	"gorm.io/gorm"
)

// Reconciler 对账任务：补写"扣款已生效但没追加成功"的流水
//
// 限次重试追加，成功标 RESOLVED；超限标 MANUAL 并打日志，
// 等维护人员对着外部表格人工补账。角色余额永远不在这里动——
// 对账只补流水，不做自动回滚。
type Reconciler struct {
	db            *gorm.DB
	reconcileRepo *repository.ReconciliationRepository
	marketRepo    *repository.MarketLogRepository
	gameRepo      *repository.GameLogRepository
	cfg           *config.Config
	stopCh        chan struct{}
	interval      time.Duration
	batchSize     int
}

func NewReconciler(db *gorm.DB, cfg *config.Config) *Reconciler {
	interval := time.Duration(cfg.Business.ReconcileIntervalS) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Reconciler{
		db:            db,
		reconcileRepo: repository.NewReconciliationRepository(db),
		marketRepo:    repository.NewMarketLogRepository(db),
		gameRepo:      repository.NewGameLogRepository(db),
		cfg:           cfg,
		stopCh:        make(chan struct{}),
		interval:      interval,
		batchSize:     100,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	log.Println("[Reconciler] 对账任务启动")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Reconciler] 收到停止信号，任务退出")
			return
		case <-r.stopCh:
			log.Println("[Reconciler] 任务停止")
			return
		case <-ticker.C:
			r.processPending(ctx)
		}
	}
}

func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) processPending(ctx context.Context) {
	records, err := r.reconcileRepo.GetPending(ctx, r.batchSize)
	if err != nil {
		log.Printf("[Reconciler] 查询对账记录失败: %v", err)
		return
	}

	for _, record := range records {
		r.reconcileOne(ctx, record)
	}
}

func (r *Reconciler) reconcileOne(ctx context.Context, record *model.ReconciliationRecord) {
	err := r.appendEntry(ctx, record)

	if err == nil {
		if markErr := r.reconcileRepo.MarkResolved(ctx, record.ID); markErr != nil {
			log.Printf("[Reconciler] 标记已解决失败: id=%d, err=%v", record.ID, markErr)
		} else {
			log.Printf("[Reconciler] 流水已补写: kind=%s, entryNo=%s", record.Kind, record.EntryNo)
		}
		return
	}

	log.Printf("[Reconciler] 补写失败: id=%d, entryNo=%s, err=%v", record.ID, record.EntryNo, err)

	if recErr := r.reconcileRepo.RecordFailure(ctx, record.ID, err.Error()); recErr != nil {
		log.Printf("[Reconciler] 记录失败次数失败: id=%d, err=%v", record.ID, recErr)
	}

	if record.RetryCount+1 >= r.cfg.Business.MaxRetryCount {
		if markErr := r.reconcileRepo.MarkManual(ctx, record.ID); markErr != nil {
			log.Printf("[Reconciler] 标记转人工失败: id=%d, err=%v", record.ID, markErr)
		} else {
			log.Printf("[Reconciler] 补写超过最大重试次数，转人工: id=%d, entryNo=%s", record.ID, record.EntryNo)
		}
	}
}

func (r *Reconciler) appendEntry(ctx context.Context, record *model.ReconciliationRecord) error {
	switch record.Kind {
	case model.ReconcileKindMarketAppend:
		var entry model.MarketLogEntry
		if err := json.Unmarshal([]byte(record.Payload), &entry); err != nil {
			return fmt.Errorf("解析流水原文失败: %w", err)
		}
		entry.ID = 0
		return r.marketRepo.Append(ctx, &entry)
	case model.ReconcileKindGameAppend:
		var entry model.GameLogEntry
		if err := json.Unmarshal([]byte(record.Payload), &entry); err != nil {
			return fmt.Errorf("解析流水原文失败: %w", err)
		}
		entry.ID = 0
		return r.gameRepo.Append(ctx, &entry)
	default:
		return fmt.Errorf("未知的对账类型: %s", record.Kind)
	}
}
