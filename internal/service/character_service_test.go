package service

import (
	"context"
	"strings"
	"testing"

	"campaignledger/internal/progression"
	"campaignledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterCreate(t *testing.T) {
	db := newTestDB(t, "char_create")
	svc := NewCharacterService(db, testTables(t))
	ctx := context.Background()

	t.Run("默认起始等级", func(t *testing.T) {
		character, err := svc.Create(ctx, 1001, "Aragorn", 0)
		require.NoError(t, err)

		assert.Equal(t, 1, character.Level)
		assert.Equal(t, int64(0), character.Currency)
		assert.Equal(t, int64(0), character.Experience)
		assert.True(t, strings.HasPrefix(character.CharacterID, "CHR"))
	})

	t.Run("指定起始等级带初始金币和经验", func(t *testing.T) {
		character, err := svc.Create(ctx, 1002, "Gandalf", 3)
		require.NoError(t, err)

		assert.Equal(t, 3, character.Level)
		assert.Equal(t, int64(200), character.Currency)   // 2 级和 3 级各 100
		assert.Equal(t, int64(100), character.Experience) // 3 级的最低累计经验

		// 出生即满足等级与经验的自洽
		assert.Equal(t, character.Level, testTables(t).LevelFor(character.Experience))
	})

	t.Run("一个玩家只能有一个角色", func(t *testing.T) {
		_, err := svc.Create(ctx, 1001, "Strider", 0)
		assert.ErrorIs(t, err, repository.ErrCharacterExists)
	})

	t.Run("起始等级超出成长表", func(t *testing.T) {
		_, err := svc.Create(ctx, 1003, "Elminster", 4)
		assert.ErrorIs(t, err, progression.ErrConfig)
	})
}

func TestCharacterGet(t *testing.T) {
	db := newTestDB(t, "char_get")
	svc := NewCharacterService(db, testTables(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, 1001, "Aragorn", 0)
	require.NoError(t, err)

	byPlayer, err := svc.GetByPlayerID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, created.CharacterID, byPlayer.CharacterID)

	byCharacter, err := svc.GetByCharacterID(ctx, created.CharacterID)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), byCharacter.PlayerID)

	_, err = svc.GetByPlayerID(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrCharacterNotFound)
}
