package model

import (
	"time"
)

// Character 角色表
// 记录角色的当前金币/经验/等级，是整个记账系统的核心数据
//
// 【重要】等级永远由经验推导（progression.LevelFor），
// 任何一次变更落库后都必须满足 Level == LevelFor(Experience)。
type Character struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID      int64     `gorm:"column:player_id;uniqueIndex;not null" json:"player_id"`            // 玩家ID（外部身份，一个玩家一个角色）
	CharacterName string    `gorm:"column:character_name;type:varchar(64);not null" json:"character_name"`
	CharacterID   string    `gorm:"column:character_id;type:varchar(64);uniqueIndex;not null" json:"character_id"` // 角色ID，创建后不可变
	Currency      int64     `gorm:"column:currency;not null;default:0" json:"currency"`                // 金币余额，永远 >= 0
	Experience    int64     `gorm:"column:experience;not null;default:0" json:"experience"`            // 累计经验，只增不减
	Level         int       `gorm:"column:level;not null;default:1" json:"level"`
	Version       int       `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Character) TableName() string {
	return "characters"
}
