package model

import (
	"time"
)

// MaxParticipants 一场跑团最多 6 名参与角色
const MaxParticipants = 6

// GameLogEntry 跑团记录表
//
// 只追加，不修改。P1~P6 按报名顺序填充，
// 人数不足 6 人时尾部的列留空（空字符串，不是 "0"），与外部表格布局兼容。
type GameLogEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EntryNo   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"entry_no"`
	Date      string    `gorm:"column:date;type:varchar(10);not null" json:"date"` // YYYY-MM-DD
	DMID      int64     `gorm:"column:dm_id;index;not null" json:"dm_id"`
	P1        string    `gorm:"column:p1_id;type:varchar(64);not null" json:"p1_id"`
	P2        string    `gorm:"column:p2_id;type:varchar(64)" json:"p2_id"`
	P3        string    `gorm:"column:p3_id;type:varchar(64)" json:"p3_id"`
	P4        string    `gorm:"column:p4_id;type:varchar(64)" json:"p4_id"`
	P5        string    `gorm:"column:p5_id;type:varchar(64)" json:"p5_id"`
	P6        string    `gorm:"column:p6_id;type:varchar(64)" json:"p6_id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (GameLogEntry) TableName() string {
	return "game_log"
}

// SetParticipants 按顺序填充 P1~P6，多余的列留空
func (e *GameLogEntry) SetParticipants(ids []string) {
	slots := []*string{&e.P1, &e.P2, &e.P3, &e.P4, &e.P5, &e.P6}
	for i, slot := range slots {
		if i < len(ids) {
			*slot = ids[i]
		} else {
			*slot = ""
		}
	}
}

// Participants 返回非空的参与角色ID，保持记录顺序
func (e *GameLogEntry) Participants() []string {
	var ids []string
	for _, p := range []string{e.P1, e.P2, e.P3, e.P4, e.P5, e.P6} {
		if p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
