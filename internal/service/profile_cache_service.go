package service

import (
	"context"
	log "log/slog"
	"strings"
	"time"

	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/consts"
	"github.com/techstridesocial/ss-sub002/internal/pkg/redis"
	"github.com/techstridesocial/ss-sub002/internal/repository"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
)

// snapshotVersionTTL 远大于一次读库的耗时
const snapshotVersionTTL = 24 * time.Hour

type ProfileCacheService interface {
	GetCachedProfile(ctx context.Context, sourceAccountRef string, platform string) (*model.ProfileCache, error)
	GetCacheStats(ctx context.Context) (*model.CacheStats, error)
	SetUpdatePriority(ctx context.Context, sourceAccountRef string, platform string, priority int) error
	RemoveAccount(ctx context.Context, sourceAccountRef string) error
	ListUpdateLogs(ctx context.Context, limit int) ([]*model.CacheUpdateLog, error)
}

type profileCacheServiceImpl struct {
	cacheRepo repository.ProfileCacheRepo
	logRepo   repository.CacheUpdateLogRepo
	clock     clockwork.Clock
	cfg       config.ProfileCacheConfig
}

func NewProfileCacheService(
	cacheRepo repository.ProfileCacheRepo,
	logRepo repository.CacheUpdateLogRepo,
	clock clockwork.Clock,
	cfg config.ProfileCacheConfig,
) ProfileCacheService {
	return &profileCacheServiceImpl{
		cacheRepo: cacheRepo,
		logRepo:   logRepo,
		clock:     clock,
		cfg:       cfg,
	}
}

// GetCachedProfile 读路径。lazy 模式下过期快照照常返回并记录告警；strict 模式下过期视为不存在
func (s *profileCacheServiceImpl) GetCachedProfile(ctx context.Context, sourceAccountRef string, platform string) (*model.ProfileCache, error) {
	p, err := model.NormalizePlatform(platform)
	if err != nil {
		return nil, ErrPlatformUnsupported
	}
	if strings.TrimSpace(sourceAccountRef) == "" {
		return nil, ErrParamInvalid
	}

	profile := s.getSnapshotFromRedis(ctx, sourceAccountRef, p)
	if profile == nil {
		// 版本号必须在读库之前取得，读库期间发生的失效会让回写作废
		version, versionOK := s.snapshotVersion(ctx, sourceAccountRef, p)
		profile, err = s.cacheRepo.GetByKey(ctx, sourceAccountRef, p)
		if err != nil {
			return nil, &OperationalError{Op: "get cached profile", Err: err}
		}
		if profile == nil {
			return nil, nil
		}
		if versionOK {
			s.setSnapshotToRedis(ctx, profile, version)
		}
	}

	now := s.clock.Now().UTC()
	if profile.IsExpired(now) {
		if s.cfg.ReadMode == config.ReadModeStrict {
			log.InfoContext(ctx, "profile cache snapshot expired, hidden in strict mode",
				"source_account_ref", sourceAccountRef, "platform", p, "expires_at", profile.ExpiresAt)
			return nil, nil
		}
		log.WarnContext(ctx, "profile cache serving stale snapshot",
			"source_account_ref", sourceAccountRef,
			"platform", p,
			"expires_at", profile.ExpiresAt,
			"stale_for", now.Sub(profile.ExpiresAt).String())
	}
	return profile, nil
}

func (s *profileCacheServiceImpl) GetCacheStats(ctx context.Context) (*model.CacheStats, error) {
	now := s.clock.Now().UTC()

	total, err := s.cacheRepo.CountAll(ctx)
	if err != nil {
		return nil, &OperationalError{Op: "count cached profiles", Err: err}
	}
	needing, err := s.cacheRepo.CountExpired(ctx, now)
	if err != nil {
		return nil, &OperationalError{Op: "count expired profiles", Err: err}
	}
	latest, err := s.cacheRepo.LatestUpdate(ctx)
	if err != nil {
		return nil, &OperationalError{Op: "latest profile update", Err: err}
	}
	credits, err := s.logRepo.SumCompletedCreditsSince(ctx, monthStart(now))
	if err != nil {
		return nil, &OperationalError{Op: "sum monthly credits", Err: err}
	}

	return &model.CacheStats{
		TotalCachedProfiles:   total,
		ProfilesNeedingUpdate: needing,
		LastUpdateRun:         latest,
		CreditsUsedThisMonth:  credits,
	}, nil
}

func (s *profileCacheServiceImpl) SetUpdatePriority(ctx context.Context, sourceAccountRef string, platform string, priority int) error {
	p, err := model.NormalizePlatform(platform)
	if err != nil {
		return ErrPlatformUnsupported
	}
	if priority < 0 || priority > 100 {
		return ErrParamInvalid
	}
	found, err := s.cacheRepo.UpdatePriority(ctx, sourceAccountRef, p, priority)
	if err != nil {
		return &OperationalError{Op: "update priority", Err: err}
	}
	if !found {
		return ErrProfileCacheNotFound
	}
	invalidateSnapshot(ctx, sourceAccountRef, p)
	log.InfoContext(ctx, "profile cache priority updated", "source_account_ref", sourceAccountRef, "platform", p, "priority", priority)
	return nil
}

// RemoveAccount 上游账号断开后清理该账号所有平台的快照
func (s *profileCacheServiceImpl) RemoveAccount(ctx context.Context, sourceAccountRef string) error {
	if strings.TrimSpace(sourceAccountRef) == "" {
		return ErrParamInvalid
	}
	platforms, err := s.cacheRepo.DeleteByAccount(ctx, sourceAccountRef)
	if err != nil {
		return &OperationalError{Op: "delete account profiles", Err: err}
	}
	for _, p := range platforms {
		invalidateSnapshot(ctx, sourceAccountRef, p)
	}
	log.InfoContext(ctx, "profile cache removed for account", "source_account_ref", sourceAccountRef, "platforms", len(platforms))
	return nil
}

func (s *profileCacheServiceImpl) ListUpdateLogs(ctx context.Context, limit int) ([]*model.CacheUpdateLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := s.logRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, &OperationalError{Op: "list update logs", Err: err}
	}
	return list, nil
}

func (s *profileCacheServiceImpl) getSnapshotFromRedis(ctx context.Context, sourceAccountRef string, platform model.Platform) *model.ProfileCache {
	if !redis.Enabled() || s.cfg.SnapshotCacheTTL() <= 0 {
		return nil
	}
	val, err := redis.GetValue(ctx, snapshotKey(sourceAccountRef, platform))
	if err != nil || val == "" {
		return nil
	}
	var profile model.ProfileCache
	if err = json.Unmarshal([]byte(val), &profile); err != nil {
		log.WarnContext(ctx, "invalid profile snapshot in redis", "source_account_ref", sourceAccountRef, "err", err)
		return nil
	}
	return &profile
}

// snapshotVersion 读取当前快照版本号，redis 不可用时不回写
func (s *profileCacheServiceImpl) snapshotVersion(ctx context.Context, sourceAccountRef string, platform model.Platform) (string, bool) {
	if !redis.Enabled() || s.cfg.SnapshotCacheTTL() <= 0 {
		return "", false
	}
	version, err := redis.GetValue(ctx, snapshotVersionKey(sourceAccountRef, platform))
	if err != nil {
		log.WarnContext(ctx, "read profile snapshot version error", "source_account_ref", sourceAccountRef, "err", err)
		return "", false
	}
	return version, true
}

func (s *profileCacheServiceImpl) setSnapshotToRedis(ctx context.Context, profile *model.ProfileCache, version string) {
	bytes, err := json.Marshal(profile)
	if err != nil {
		return
	}
	written, err := redis.SetIfUnchanged(ctx,
		snapshotVersionKey(profile.SourceAccountRef, profile.Platform), version,
		snapshotKey(profile.SourceAccountRef, profile.Platform), string(bytes), s.cfg.SnapshotCacheTTL())
	if err != nil {
		log.WarnContext(ctx, "write profile snapshot error", "source_account_ref", profile.SourceAccountRef, "err", err)
		return
	}
	if !written {
		log.DebugContext(ctx, "profile snapshot changed during read, skip write back",
			"source_account_ref", profile.SourceAccountRef, "platform", profile.Platform)
	}
}

func snapshotKey(sourceAccountRef string, platform model.Platform) string {
	return consts.ProfileCacheSnapshotKey + sourceAccountRef + ":" + string(platform)
}

func snapshotVersionKey(sourceAccountRef string, platform model.Platform) string {
	return consts.ProfileCacheSnapshotVersionKey + sourceAccountRef + ":" + string(platform)
}

// invalidateSnapshot 在库内数据变更之后调用：先递增版本号，再删除快照
func invalidateSnapshot(ctx context.Context, sourceAccountRef string, platform model.Platform) {
	if !redis.Enabled() {
		return
	}
	if err := redis.IncrWithExpiration(ctx, snapshotVersionKey(sourceAccountRef, platform), snapshotVersionTTL); err != nil {
		log.WarnContext(ctx, "bump profile snapshot version error", "source_account_ref", sourceAccountRef, "err", err)
	}
	if err := redis.DeleteKey(ctx, snapshotKey(sourceAccountRef, platform)); err != nil {
		log.WarnContext(ctx, "invalidate profile snapshot error", "source_account_ref", sourceAccountRef, "err", err)
	}
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
