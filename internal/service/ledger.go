package service

import (
	"context"
	"encoding/json"
	"log"

	"campaignledger/internal/model"
	"campaignledger/internal/repository"
)

// enqueueReconciliation 把没写进流水表的账目原文记入对账队列
func enqueueReconciliation(ctx context.Context, repo *repository.ReconciliationRepository, kind, entryNo string, entry interface{}, cause error) {
	payload, _ := json.Marshal(entry)
	record := &model.ReconciliationRecord{
		Kind:      kind,
		EntryNo:   entryNo,
		Payload:   string(payload),
		Status:    model.ReconcileStatusPending,
		LastError: cause.Error(),
	}
	if err := repo.Create(ctx, record); err != nil {
		// 对账记录也写不进去，只剩日志这一条线索了，必须打全
		log.Printf("[对账] 严重: 流水和对账记录都写入失败 kind=%s entryNo=%s payload=%s err=%v",
			kind, entryNo, payload, err)
	}
}

// announce 写一条播报消息，由后台任务异步推给前端
func announce(ctx context.Context, repo *repository.OutboxRepository, topic, key string, entry interface{}) {
	payload, _ := json.Marshal(entry)
	msg := &model.OutboxMessage{
		MessageKey: key,
		Topic:      topic,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := repo.Create(ctx, msg); err != nil {
		// 播报丢一条不影响账目，记日志即可
		log.Printf("[播报] 写入播报消息失败: key=%s err=%v", key, err)
	}
}
