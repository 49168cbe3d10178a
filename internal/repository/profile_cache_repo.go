package repository

import (
	"context"
	"errors"
	"time"

	"github.com/techstridesocial/ss-sub002/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileCacheRepo interface {
	ReplaceProfile(ctx context.Context, profile *model.ProfileCache, audience *model.AudienceCache, entry *model.CacheUpdateLog) error
	GetByKey(ctx context.Context, sourceAccountRef string, platform model.Platform) (*model.ProfileCache, error)
	SelectCandidates(ctx context.Context, now time.Time, window time.Duration, threshold int, limit int) ([]*model.ProfileCache, error)
	UpdatePriority(ctx context.Context, sourceAccountRef string, platform model.Platform, priority int) (bool, error)
	DeleteByAccount(ctx context.Context, sourceAccountRef string) ([]model.Platform, error)
	CountAll(ctx context.Context) (int64, error)
	CountExpired(ctx context.Context, now time.Time) (int64, error)
	LatestUpdate(ctx context.Context) (*time.Time, error)
}

type profileCacheRepoImpl struct {
	db *gorm.DB
}

func NewProfileCacheRepo(db *gorm.DB) ProfileCacheRepo {
	return &profileCacheRepoImpl{db: db}
}

// ReplaceProfile 在一个事务内以唯一键 upsert 快照与受众数据，并追加 completed 日志
func (s *profileCacheRepoImpl) ReplaceProfile(ctx context.Context, profile *model.ProfileCache, audience *model.AudienceCache, entry *model.CacheUpdateLog) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_account_ref"}, {Name: "platform"}},
			DoUpdates: clause.AssignmentColumns(model.ProfileSnapshotColumns),
		}).Create(profile).Error
		if err != nil {
			return err
		}

		// upsert 命中已有行时驱动返回的自增 ID 不可靠，按唯一键回读
		var stored model.ProfileCache
		err = tx.Select("id", "update_priority").
			Where("source_account_ref = ? AND platform = ?", profile.SourceAccountRef, profile.Platform).
			Take(&stored).Error
		if err != nil {
			return err
		}
		profile.ID = stored.ID
		profile.UpdatePriority = stored.UpdatePriority

		audience.ID = 0
		audience.ProfileCacheID = stored.ID
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile_cache_id"}},
			DoUpdates: clause.AssignmentColumns(model.AudienceSnapshotColumns),
		}).Create(audience).Error
		if err != nil {
			return err
		}
		profile.Audience = audience

		entry.ProfileCacheID = &stored.ID
		return tx.Create(entry).Error
	})
}

// GetByKey 返回该键最新的快照（含受众数据），不存在时返回 nil
func (s *profileCacheRepoImpl) GetByKey(ctx context.Context, sourceAccountRef string, platform model.Platform) (*model.ProfileCache, error) {
	var profile model.ProfileCache
	err := s.db.WithContext(ctx).
		Preload("Audience").
		Where("source_account_ref = ? AND platform = ?", sourceAccountRef, platform).
		Order("last_updated DESC").
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// SelectCandidates 即将过期或高优先级的条目：已过期优先，其次优先级降序，再按过期时间升序
func (s *profileCacheRepoImpl) SelectCandidates(ctx context.Context, now time.Time, window time.Duration, threshold int, limit int) ([]*model.ProfileCache, error) {
	list := make([]*model.ProfileCache, 0)
	if limit <= 0 {
		return list, nil
	}
	err := s.db.WithContext(ctx).
		Select("id", "source_account_ref", "external_user_id", "platform", "expires_at", "update_priority", "last_updated").
		Where("expires_at <= ? OR update_priority > ?", now.Add(window), threshold).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN expires_at <= ? THEN 0 ELSE 1 END, update_priority DESC, expires_at ASC",
			Vars:               []interface{}{now},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *profileCacheRepoImpl) UpdatePriority(ctx context.Context, sourceAccountRef string, platform model.Platform, priority int) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.ProfileCache{}).
		Where("source_account_ref = ? AND platform = ?", sourceAccountRef, platform).
		Update("update_priority", priority)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByAccount 账号断开时删除其全部平台的快照，返回被删除的平台
func (s *profileCacheRepoImpl) DeleteByAccount(ctx context.Context, sourceAccountRef string) ([]model.Platform, error) {
	platforms := make([]model.Platform, 0)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []model.ProfileCache
		if err := tx.Select("id", "platform").Where("source_account_ref = ?", sourceAccountRef).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uint64, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
			platforms = append(platforms, row.Platform)
		}

		if err := tx.Where("profile_cache_id IN ?", ids).Delete(&model.AudienceCache{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&model.ProfileCache{}).Error
	})
	if err != nil {
		return nil, err
	}
	return platforms, nil
}

func (s *profileCacheRepoImpl) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ProfileCache{}).Count(&count).Error
	return count, err
}

func (s *profileCacheRepoImpl) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ProfileCache{}).
		Where("expires_at <= ?", now).
		Count(&count).Error
	return count, err
}

// LatestUpdate 最近一次写入快照的时间，表为空时返回 nil
func (s *profileCacheRepoImpl) LatestUpdate(ctx context.Context) (*time.Time, error) {
	var latest model.ProfileCache
	err := s.db.WithContext(ctx).
		Select("id", "last_updated").
		Order("last_updated DESC").
		Take(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &latest.LastUpdated, nil
}
