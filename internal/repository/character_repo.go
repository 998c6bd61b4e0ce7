package repository

import (
	"context"
	"errors"
	"fmt"

	"campaignledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCharacterNotFound = errors.New("角色不存在")
	ErrCharacterExists   = errors.New("角色已存在")
	ErrInsufficientFunds = errors.New("余额不足")
	ErrOptimisticLock    = errors.New("乐观锁冲突，请重试")
	ErrStoreUnavailable  = errors.New("存储暂时不可用，请稍后重试")
)

// storeErr 把底层存储的原始错误统一归类为"暂时不可用"
//
// 上层据此区分"存储抖动，可以重试"和真正的内部错误。
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// CharacterRepository 角色表的读写入口
//
// 外部存储可能被人为直接改动，所以所有写操作都带乐观锁版本号，
// 版本不匹配返回 ErrOptimisticLock，由上层在角色锁内重试整个读-改-写序列。
type CharacterRepository struct {
	db *gorm.DB
}

func NewCharacterRepository(db *gorm.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create 创建角色，玩家已有角色时返回 ErrCharacterExists
func (r *CharacterRepository) Create(ctx context.Context, character *model.Character) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_id"}},
			DoNothing: true,
		}).
		Create(character)

	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCharacterExists
	}
	return nil
}

func (r *CharacterRepository) GetByCharacterID(ctx context.Context, characterID string) (*model.Character, error) {
	var character model.Character
	err := r.db.WithContext(ctx).Where("character_id = ?", characterID).First(&character).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, characterID)
		}
		return nil, storeErr(err)
	}
	return &character, nil
}

func (r *CharacterRepository) GetByPlayerID(ctx context.Context, playerID int64) (*model.Character, error) {
	var character model.Character
	err := r.db.WithContext(ctx).Where("player_id = ?", playerID).First(&character).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 玩家 %d", ErrCharacterNotFound, playerID)
		}
		return nil, storeErr(err)
	}
	return &character, nil
}

// GetByCharacterIDs 批量解析角色，任何一个缺失整体失败
//
// 返回顺序与入参一致，供发奖逻辑按名单顺序处理。
func (r *CharacterRepository) GetByCharacterIDs(ctx context.Context, characterIDs []string) ([]*model.Character, error) {
	if len(characterIDs) == 0 {
		return nil, nil
	}

	var found []*model.Character
	err := r.db.WithContext(ctx).Where("character_id IN ?", characterIDs).Find(&found).Error
	if err != nil {
		return nil, storeErr(err)
	}

	byID := make(map[string]*model.Character, len(found))
	for _, c := range found {
		byID[c.CharacterID] = c
	}

	ordered := make([]*model.Character, 0, len(characterIDs))
	for _, id := range characterIDs {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, id)
		}
		ordered = append(ordered, c)
	}
	return ordered, nil
}

// Debit 扣减金币（条件更新，余额和版本号都在 WHERE 里）
//
// 【关键点】一条 UPDATE 同时完成"余额够不够"和"版本有没有变"两个检查，
// 没改到行时再回读区分是余额不足还是并发冲突。
func (r *CharacterRepository) Debit(ctx context.Context, characterID string, amount int64, version int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Character{}).
		Where("character_id = ? AND currency >= ? AND version = ?", characterID, amount, version).
		Updates(map[string]interface{}{
			"currency": gorm.Expr("currency - ?", amount),
			"version":  gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return storeErr(result.Error)
	}

	if result.RowsAffected == 0 {
		character, err := r.GetByCharacterID(ctx, characterID)
		if err != nil {
			return err
		}
		if character.Currency < amount {
			return ErrInsufficientFunds
		}
		return ErrOptimisticLock
	}

	return nil
}

// UpdateProgress 按版本号写回发奖后的经验/金币/等级
func (r *CharacterRepository) UpdateProgress(ctx context.Context, characterID string, version int, next *model.Character) error {
	result := r.db.WithContext(ctx).
		Model(&model.Character{}).
		Where("character_id = ? AND version = ?", characterID, version).
		Updates(map[string]interface{}{
			"experience": next.Experience,
			"currency":   next.Currency,
			"level":      next.Level,
			"version":    gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return storeErr(result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByCharacterID(ctx, characterID); err != nil {
			return err
		}
		return ErrOptimisticLock
	}

	return nil
}
