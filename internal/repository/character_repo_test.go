package repository

import (
	"context"
	"fmt"
	"testing"

	"campaignledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库
func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
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

func seedCharacter(t *testing.T, db *gorm.DB, characterID string, playerID, currency int64) *model.Character {
	t.Helper()
	character := &model.Character{
		PlayerID:      playerID,
		CharacterName: "测试角色",
		CharacterID:   characterID,
		Currency:      currency,
		Level:         1,
	}
	require.NoError(t, db.Create(character).Error)
	return character
}

func TestCharacterRepositoryCreate(t *testing.T) {
	db := newTestDB(t, "char_create")
	repo := NewCharacterRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, &model.Character{
		PlayerID:      1001,
		CharacterName: "Aragorn",
		CharacterID:   "CHR001",
		Currency:      200,
		Level:         3,
	})
	require.NoError(t, err)

	// 同一玩家第二个角色被拒绝
	err = repo.Create(ctx, &model.Character{
		PlayerID:      1001,
		CharacterName: "Legolas",
		CharacterID:   "CHR002",
	})
	assert.ErrorIs(t, err, ErrCharacterExists)

	// 第一个角色原样保留
	got, err := repo.GetByPlayerID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "Aragorn", got.CharacterName)
	assert.Equal(t, "CHR001", got.CharacterID)
}

func TestCharacterRepositoryGet(t *testing.T) {
	db := newTestDB(t, "char_get")
	repo := NewCharacterRepository(db)
	ctx := context.Background()

	seedCharacter(t, db, "CHR001", 1001, 100)

	got, err := repo.GetByCharacterID(ctx, "CHR001")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), got.PlayerID)

	_, err = repo.GetByCharacterID(ctx, "CHR999")
	assert.ErrorIs(t, err, ErrCharacterNotFound)

	_, err = repo.GetByPlayerID(ctx, 9999)
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestCharacterRepositoryGetByCharacterIDs(t *testing.T) {
	db := newTestDB(t, "char_batch")
	repo := NewCharacterRepository(db)
	ctx := context.Background()

	seedCharacter(t, db, "CHR001", 1001, 100)
	seedCharacter(t, db, "CHR002", 1002, 100)
	seedCharacter(t, db, "CHR003", 1003, 100)

	// 返回顺序与入参一致
	got, err := repo.GetByCharacterIDs(ctx, []string{"CHR003", "CHR001", "CHR002"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "CHR003", got[0].CharacterID)
	assert.Equal(t, "CHR001", got[1].CharacterID)
	assert.Equal(t, "CHR002", got[2].CharacterID)

	// 任何一个缺失整体失败
	_, err = repo.GetByCharacterIDs(ctx, []string{"CHR001", "CHR404"})
	assert.ErrorIs(t, err, ErrCharacterNotFound)

	got, err = repo.GetByCharacterIDs(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCharacterRepositoryDebit(t *testing.T) {
	db := newTestDB(t, "char_debit")
	repo := NewCharacterRepository(db)
	ctx := context.Background()

	seedCharacter(t, db, "CHR001", 1001, 100)

	t.Run("正常扣款", func(t *testing.T) {
		err := repo.Debit(ctx, "CHR001", 60, 0)
		require.NoError(t, err)

		got, err := repo.GetByCharacterID(ctx, "CHR001")
		require.NoError(t, err)
		assert.Equal(t, int64(40), got.Currency)
		assert.Equal(t, 1, got.Version)
	})

	t.Run("余额不足", func(t *testing.T) {
		err := repo.Debit(ctx, "CHR001", 50, 1)
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		// 余额分文未动
		got, err := repo.GetByCharacterID(ctx, "CHR001")
		require.NoError(t, err)
		assert.Equal(t, int64(40), got.Currency)
		assert.Equal(t, 1, got.Version)
	})

	t.Run("版本过期返回乐观锁冲突", func(t *testing.T) {
		err := repo.Debit(ctx, "CHR001", 10, 0)
		assert.ErrorIs(t, err, ErrOptimisticLock)
	})

	t.Run("角色不存在", func(t *testing.T) {
		err := repo.Debit(ctx, "CHR999", 10, 0)
		assert.ErrorIs(t, err, ErrCharacterNotFound)
	})
}

// 底层存储故障要归类为"暂时不可用"，供上层走重试分支
func TestCharacterRepositoryStoreUnavailable(t *testing.T) {
	db := newTestDB(t, "char_store_down")
	repo := NewCharacterRepository(db)
	ctx := context.Background()

	seedCharacter(t, db, "CHR001", 1001, 100)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.GetByCharacterID(ctx, "CHR001")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrCharacterNotFound)

	err = repo.Debit(ctx, "CHR001", 10, 0)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = repo.UpdateProgress(ctx, "CHR001", 0, &model.Character{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestCharacterRepositoryUpdateProgress(t *testing.T) {
	db := newTestDB(t, "char_progress")
	repo := NewCharacterRepository(db)
	ctx := context.Background()

	seedCharacter(t, db, "CHR001", 1001, 100)

	next := &model.Character{Experience: 350, Currency: 150, Level: 2}
	require.NoError(t, repo.UpdateProgress(ctx, "CHR001", 0, next))

	got, err := repo.GetByCharacterID(ctx, "CHR001")
	require.NoError(t, err)
	assert.Equal(t, int64(350), got.Experience)
	assert.Equal(t, int64(150), got.Currency)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 1, got.Version)

	// 旧版本号写回被拒绝
	err = repo.UpdateProgress(ctx, "CHR001", 0, next)
	assert.ErrorIs(t, err, ErrOptimisticLock)

	err = repo.UpdateProgress(ctx, "CHR999", 0, next)
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}
