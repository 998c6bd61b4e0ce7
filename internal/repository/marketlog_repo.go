package repository

import (
	"context"

	"campaignledger/internal/model"

	"gorm.io/gorm"
)

// MarketLogRepository 购买流水表：只追加、只读取，没有任何更新/删除入口
type MarketLogRepository struct {
	db *gorm.DB
}

func NewMarketLogRepository(db *gorm.DB) *MarketLogRepository {
	return &MarketLogRepository{db: db}
}

func (r *MarketLogRepository) Append(ctx context.Context, entry *model.MarketLogEntry) error {
	return storeErr(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *MarketLogRepository) List(ctx context.Context, page, pageSize int) ([]*model.MarketLogEntry, int64, error) {
	var entries []*model.MarketLogEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.MarketLogEntry{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeErr(err)
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error

	return entries, total, storeErr(err)
}

func (r *MarketLogRepository) ListByCharacterID(ctx context.Context, characterID string, page, pageSize int) ([]*model.MarketLogEntry, int64, error) {
	var entries []*model.MarketLogEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.MarketLogEntry{}).Where("character_id = ?", characterID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeErr(err)
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error

	return entries, total, storeErr(err)
}
