package repository

import (
	"context"

	"campaignledger/internal/model"

	"gorm.io/gorm"
)

// ReconciliationRepository 对账记录表
//
// 记录"扣款已提交但流水没写进去"这类窗口期事故，
// 后台对账任务从这里取待补写的流水限次重试。
type ReconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

func (r *ReconciliationRepository) Create(ctx context.Context, record *model.ReconciliationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *ReconciliationRepository) GetPending(ctx context.Context, limit int) ([]*model.ReconciliationRecord, error) {
	var records []*model.ReconciliationRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ReconcileStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *ReconciliationRepository) MarkResolved(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.ReconciliationRecord{}).
		Where("id = ?", id).
		Update("status", model.ReconcileStatusResolved).Error
}

// RecordFailure 记一次重试失败
func (r *ReconciliationRepository) RecordFailure(ctx context.Context, id int64, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&model.ReconciliationRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  lastError,
		}).Error
}

// MarkManual 重试超限，转人工
func (r *ReconciliationRepository) MarkManual(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.ReconciliationRecord{}).
		Where("id = ?", id).
		Update("status", model.ReconcileStatusManual).Error
}

// ListManual 待人工核对的记录（给维护人员的查询接口）
func (r *ReconciliationRepository) ListManual(ctx context.Context, limit int) ([]*model.ReconciliationRecord, error) {
	var records []*model.ReconciliationRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ReconcileStatusManual).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
