package model

import (
	"time"
)

// DateLayout 账目日期格式（与外部表格的日期列保持一致）
const DateLayout = "2006-01-02"

// MarketLogEntry 购买流水表
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 历史账目不可篡改
// 2. Price 是成交时的单价快照，目录里的价格之后怎么改都不影响已有流水
// 3. 角色表是当前状态的唯一权威，流水只是历史事实
type MarketLogEntry struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EntryNo     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"entry_no"` // 流水号（全局唯一）
	Date        string    `gorm:"column:date;type:varchar(10);not null" json:"date"`     // 成交日期 YYYY-MM-DD
	CharacterID string    `gorm:"column:character_id;index;not null" json:"character_id"`
	ItemName    string    `gorm:"column:item_name;type:varchar(128);not null" json:"item_name"`
	Price       int64     `gorm:"column:price;not null" json:"price"` // 成交单价快照
	Quantity    int64     `gorm:"column:quantity;not null" json:"quantity"`
	Notes       string    `gorm:"column:notes;type:varchar(256)" json:"notes"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (MarketLogEntry) TableName() string {
	return "market_log"
}
