package repository

import (
	"context"
	"time"

	"github.com/techstridesocial/ss-sub002/internal/model"

	"gorm.io/gorm"
)

type CacheUpdateLogRepo interface {
	Create(ctx context.Context, entry *model.CacheUpdateLog) error
	SumCompletedCreditsSince(ctx context.Context, since time.Time) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]*model.CacheUpdateLog, error)
}

type cacheUpdateLogRepoImpl struct {
	db *gorm.DB
}

func NewCacheUpdateLogRepo(db *gorm.DB) CacheUpdateLogRepo {
	return &cacheUpdateLogRepoImpl{db: db}
}

func (s *cacheUpdateLogRepoImpl) Create(ctx context.Context, entry *model.CacheUpdateLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// SumCompletedCreditsSince 只统计 completed 的记录
func (s *cacheUpdateLogRepoImpl) SumCompletedCreditsSince(ctx context.Context, since time.Time) (int64, error) {
	var sum int64
	err := s.db.WithContext(ctx).
		Model(&model.CacheUpdateLog{}).
		Select("COALESCE(SUM(credits_used), 0)").
		Where("status = ? AND completed_at >= ?", model.UpdateStatusCompleted, since).
		Scan(&sum).Error
	return sum, err
}

func (s *cacheUpdateLogRepoImpl) ListRecent(ctx context.Context, limit int) ([]*model.CacheUpdateLog, error) {
	list := make([]*model.CacheUpdateLog, 0)
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
