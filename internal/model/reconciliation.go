package model

import (
	"time"
)

const (
	ReconcileKindMarketAppend = "MARKET_APPEND"
	ReconcileKindGameAppend   = "GAME_APPEND"
)

const (
	ReconcileStatusPending  = "PENDING"
	ReconcileStatusResolved = "RESOLVED"
	ReconcileStatusManual   = "MANUAL" // 重试超限，等人工核对
)

// ReconciliationRecord 对账记录表
//
// 扣款已提交但流水追加失败时，扣款不回滚（外部存储没有跨行事务），
// 而是把没写进去的流水原文记在这里，由后台对账任务限次重试；
// 重试超限后标记 MANUAL，等维护人员人工补账。
type ReconciliationRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind       string    `gorm:"type:varchar(32);not null" json:"kind"`     // MARKET_APPEND / GAME_APPEND
	EntryNo    string    `gorm:"type:varchar(64);index;not null" json:"entry_no"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`         // 待补写的流水 JSON
	Status     string    `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`
	RetryCount int       `gorm:"not null;default:0" json:"retry_count"`
	LastError  string    `gorm:"type:varchar(256)" json:"last_error"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ReconciliationRecord) TableName() string {
	return "reconciliation_record"
}
