package service

import (
	"fmt"
	"testing"

	"campaignledger/internal/config"
	"campaignledger/internal/model"
	"campaignledger/internal/progression"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库
func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Character{},
		&model.Item{},
		&model.MarketLogEntry{},
		&model.GameLogEntry{},
		&model.OutboxMessage{},
		&model.ReconciliationRecord{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{
				MarketLog: "ledger.market_log",
				GameLog:   "ledger.game_log",
			},
		},
		Business: config.BusinessConfig{
			MaxRetryCount:  3,
			RetryBackoffMs: 1,
		},
	}
}

// testTables 压缩版成长表，两个阈值就够覆盖升级逻辑
func testTables(t *testing.T) progression.Tables {
	t.Helper()
	tables := progression.Tables{
		StartingLevel: 1,
		MaxLevel:      3,
		XPThresholds:  []int64{40, 100},
		GoldTiers: []progression.GoldTier{
			{FromLevel: 2, GoldPerLevel: 100},
		},
	}
	require.NoError(t, tables.Validate())
	return tables
}

func seedCharacter(t *testing.T, db *gorm.DB, characterID string, playerID, currency, experience int64, level int) {
	t.Helper()
	require.NoError(t, db.Create(&model.Character{
		PlayerID:      playerID,
		CharacterName: fmt.Sprintf("角色%d", playerID),
		CharacterID:   characterID,
		Currency:      currency,
		Experience:    experience,
		Level:         level,
	}).Error)
}

func seedItem(t *testing.T, db *gorm.DB, name string, cost int64, rarity string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Item{
		ItemName: name,
		Cost:     cost,
		Rarity:   rarity,
	}).Error)
}

func loadCharacter(t *testing.T, db *gorm.DB, characterID string) *model.Character {
	t.Helper()
	var character model.Character
	require.NoError(t, db.Where("character_id = ?", characterID).First(&character).Error)
	return &character
}
