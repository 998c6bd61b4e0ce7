package job

import (
	"context"
	"log"
	"time"

	"campaignledger/internal/config"
	"campaignledger/internal/infrastructure/mq"
	"campaignledger/internal/model"
	"campaignledger/internal/repository"

	"gorm.io/gorm"
)

// Announcer 播报任务：轮询播报消息表，把已落账的流水推到 Kafka
//
// 流水落库和播报是两回事：账先记对，播报至少一次、慢一点没关系。
type Announcer struct {
	db         *gorm.DB
	outboxRepo *repository.OutboxRepository
	cfg        *config.Config
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
}

func NewAnnouncer(db *gorm.DB, cfg *config.Config) *Announcer {
	return &Announcer{
		db:         db,
		outboxRepo: repository.NewOutboxRepository(db),
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		interval:   100 * time.Millisecond,
		batchSize:  100,
	}
}

func (a *Announcer) Start(ctx context.Context) {
	log.Println("[Announcer] 播报任务启动")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Announcer] 收到停止信号，任务退出")
			return
		case <-a.stopCh:
			log.Println("[Announcer] 任务停止")
			return
		case <-ticker.C:
			a.processPendingMessages(ctx)
		}
	}
}

func (a *Announcer) Stop() {
	close(a.stopCh)
}

func (a *Announcer) processPendingMessages(ctx context.Context) {
	messages, err := a.outboxRepo.GetPendingMessages(ctx, a.batchSize)
	if err != nil {
		log.Printf("[Announcer] 查询播报消息失败: %v", err)
		return
	}

	for _, msg := range messages {
		a.sendMessage(ctx, msg)
	}
}

func (a *Announcer) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	err := mq.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)

	if err == nil {
		if updateErr := a.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			log.Printf("[Announcer] 更新消息状态失败: id=%d, err=%v", msg.ID, updateErr)
		}
		return
	}

	log.Printf("[Announcer] 播报发送失败: id=%d, err=%v", msg.ID, err)

	if err := a.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		log.Printf("[Announcer] 增加重试次数失败: id=%d, err=%v", msg.ID, err)
	}

	if msg.RetryCount+1 >= a.cfg.Business.MaxRetryCount {
		if err := a.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			log.Printf("[Announcer] 标记消息失败状态失败: id=%d, err=%v", msg.ID, err)
		} else {
			log.Printf("[Announcer] 播报超过最大重试次数，放弃: id=%d", msg.ID)
		}
	}
}
