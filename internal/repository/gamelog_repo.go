package repository

import (
	"context"

	"campaignledger/internal/model"

	"gorm.io/gorm"
)

// GameLogRepository 跑团记录表：只追加、只读取
type GameLogRepository struct {
	db *gorm.DB
}

func NewGameLogRepository(db *gorm.DB) *GameLogRepository {
	return &GameLogRepository{db: db}
}

func (r *GameLogRepository) Append(ctx context.Context, entry *model.GameLogEntry) error {
	return storeErr(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *GameLogRepository) List(ctx context.Context, page, pageSize int) ([]*model.GameLogEntry, int64, error) {
	var entries []*model.GameLogEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.GameLogEntry{})

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

func (r *GameLogRepository) ListByDMID(ctx context.Context, dmID int64, page, pageSize int) ([]*model.GameLogEntry, int64, error) {
	var entries []*model.GameLogEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.GameLogEntry{}).Where("dm_id = ?", dmID)

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
