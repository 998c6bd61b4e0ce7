package service

import (
	"context"

	"campaignledger/internal/model"
	"campaignledger/internal/progression"
	"campaignledger/internal/repository"
	"campaignledger/pkg/idgen"

	"gorm.io/gorm"
)

// CharacterService 角色的创建与查询
type CharacterService struct {
	charRepo *repository.CharacterRepository
	tables   progression.Tables
}

func NewCharacterService(db *gorm.DB, tables progression.Tables) *CharacterService {
	return &CharacterService{
		charRepo: repository.NewCharacterRepository(db),
		tables:   tables,
	}
}

// Create 给玩家建角色，一个玩家只能有一个
//
// startingLevel 传 0 表示用配置的默认起始等级。
// 初始经验取该等级的最低累计经验，保证角色从出生起就满足
// Level == LevelFor(Experience)；初始金币查分段表，等级超出
// 表的定义域按配置错误处理。
func (s *CharacterService) Create(ctx context.Context, playerID int64, characterName string, startingLevel int) (*model.Character, error) {
	level := startingLevel
	if level == 0 {
		level = s.tables.StartingLevel
	}

	gold, err := s.tables.StartingGold(level)
	if err != nil {
		return nil, err
	}

	character := &model.Character{
		PlayerID:      playerID,
		CharacterName: characterName,
		CharacterID:   idgen.GenerateCharacterID(),
		Currency:      gold,
		Experience:    s.tables.MinExperience(level),
		Level:         level,
	}

	if err := s.charRepo.Create(ctx, character); err != nil {
		return nil, err
	}
	return character, nil
}

func (s *CharacterService) GetByPlayerID(ctx context.Context, playerID int64) (*model.Character, error) {
	return s.charRepo.GetByPlayerID(ctx, playerID)
}

func (s *CharacterService) GetByCharacterID(ctx context.Context, characterID string) (*model.Character, error) {
	return s.charRepo.GetByCharacterID(ctx, characterID)
}
