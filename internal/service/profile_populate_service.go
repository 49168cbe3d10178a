package service

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/consts"
	"github.com/techstridesocial/ss-sub002/internal/pkg/provider"
	"github.com/techstridesocial/ss-sub002/internal/pkg/redis"
	"github.com/techstridesocial/ss-sub002/internal/pkg/util"
	"github.com/techstridesocial/ss-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/jonboulle/clockwork"
)

type PopulateRequest struct {
	SourceAccountRef string
	ExternalUserID   string
	Platform         string
	UpdateType       model.UpdateType
	// Priority 仅在首次创建时写入，之后的刷新保留已有值
	Priority int
	Reason   string
}

type PopulateResult struct {
	Success        bool   `json:"success"`
	Err            error  `json:"-"`
	Error          string `json:"error,omitempty"`
	ProfileCacheID uint64 `json:"profileCacheId,omitempty"`
	CreditsUsed    int    `json:"creditsUsed"`
}

// ProfilePopulator 拉取报告并原子替换缓存条目，错误全部收敛到结果中
type ProfilePopulator interface {
	Populate(ctx context.Context, req PopulateRequest) *PopulateResult
}

type profilePopulatorImpl struct {
	fetcher   provider.ReportFetcher
	cacheRepo repository.ProfileCacheRepo
	logRepo   repository.CacheUpdateLogRepo
	clock     clockwork.Clock
	cfg       config.ProfileCacheConfig
}

func NewProfilePopulator(
	fetcher provider.ReportFetcher,
	cacheRepo repository.ProfileCacheRepo,
	logRepo repository.CacheUpdateLogRepo,
	clock clockwork.Clock,
	cfg config.ProfileCacheConfig,
) ProfilePopulator {
	return &profilePopulatorImpl{
		fetcher:   fetcher,
		cacheRepo: cacheRepo,
		logRepo:   logRepo,
		clock:     clock,
		cfg:       cfg,
	}
}

// attempt 一次 populate 尝试的上下文，用于写审计日志
type attempt struct {
	req       PopulateRequest
	platform  model.Platform
	startedAt time.Time
	fetched   bool
}

func (s *profilePopulatorImpl) Populate(ctx context.Context, req PopulateRequest) (result *PopulateResult) {
	if req.UpdateType == "" {
		req.UpdateType = model.UpdateTypeManual
	}
	at := &attempt{
		req:       req,
		platform:  model.Platform(strings.ToUpper(strings.TrimSpace(req.Platform))),
		startedAt: s.clock.Now().UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			result = s.fail(ctx, at, &OperationalError{Op: "populate", Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	platform, err := model.NormalizePlatform(req.Platform)
	if err != nil {
		return s.fail(ctx, at, err)
	}
	at.platform = platform
	if strings.TrimSpace(req.SourceAccountRef) == "" || strings.TrimSpace(req.ExternalUserID) == "" {
		return s.fail(ctx, at, ErrParamInvalid)
	}

	if redis.Enabled() {
		lockKey := consts.ProfileCachePopulateLock + req.SourceAccountRef + ":" + string(platform)
		token := uuid.NewString()
		locked, err := redis.TryLock(ctx, lockKey, token, s.cfg.LockTTL(), 1)
		if err != nil {
			// 锁不可用时仍依赖唯一键 upsert 串行化写入
			log.WarnContext(ctx, "profile populate lock unavailable", "key", lockKey, "err", err)
		} else if !locked {
			return s.fail(ctx, at, ErrPopulateInFlight)
		} else {
			defer redis.UnLock(ctx, lockKey, token)
		}
	}

	report, err := s.fetcher.FetchReport(ctx, req.ExternalUserID, platform)
	if err != nil {
		// 2xx 已返回但报告不可用时，额度同样被扣除
		at.fetched = errors.Is(err, provider.ErrMetered)
		return s.fail(ctx, at, &ExternalFetchError{ExternalUserID: req.ExternalUserID, Platform: platform, Err: err})
	}
	at.fetched = report != nil
	if report == nil || report.Profile == nil {
		return s.fail(ctx, at, &ExternalFetchError{ExternalUserID: req.ExternalUserID, Platform: platform, Err: provider.ErrProfileMissing})
	}

	profile, audience, err := s.toModels(report, at)
	if err != nil {
		return s.fail(ctx, at, &OperationalError{Op: "map provider report", Err: err})
	}

	now := s.clock.Now().UTC()
	entry := &model.CacheUpdateLog{
		SourceAccountRef: req.SourceAccountRef,
		Platform:         platform,
		UpdateType:       req.UpdateType,
		Status:           model.UpdateStatusCompleted,
		CreditsUsed:      consts.CreditsPerReport,
		Details:          s.details(at),
		StartedAt:        at.startedAt,
		CompletedAt:      now,
	}
	if err = s.cacheRepo.ReplaceProfile(ctx, profile, audience, entry); err != nil {
		return s.fail(ctx, at, &PersistenceError{SourceAccountRef: req.SourceAccountRef, Platform: platform, Err: err})
	}

	invalidateSnapshot(ctx, req.SourceAccountRef, platform)

	log.InfoContext(ctx, "profile cache populated",
		"source_account_ref", req.SourceAccountRef,
		"platform", platform,
		"update_type", req.UpdateType,
		"profile_cache_id", profile.ID,
		"followers", profile.Followers,
		"expires_at", profile.ExpiresAt)

	return &PopulateResult{
		Success:        true,
		ProfileCacheID: profile.ID,
		CreditsUsed:    consts.CreditsPerReport,
	}
}

func (s *profilePopulatorImpl) toModels(report *provider.Report, at *attempt) (*model.ProfileCache, *model.AudienceCache, error) {
	profile := &model.ProfileCache{}
	if err := copier.Copy(profile, report.Profile); err != nil {
		return nil, nil, err
	}
	audience := &model.AudienceCache{}
	if report.Audience != nil {
		if err := copier.Copy(audience, report.Audience); err != nil {
			return nil, nil, err
		}
	}

	ttl := s.cfg.TTL()
	if ttl <= 0 {
		ttl = model.DefaultCacheTTL
	}
	now := s.clock.Now().UTC()

	profile.ID = 0
	profile.SourceAccountRef = at.req.SourceAccountRef
	profile.ExternalUserID = at.req.ExternalUserID
	profile.Platform = at.platform
	profile.CachedAt = now
	profile.LastUpdated = now
	profile.ExpiresAt = now.Add(ttl)
	profile.Stats = report.Stats
	profile.UpdatePriority = at.req.Priority
	if profile.UpdatePriority == 0 {
		profile.UpdatePriority = s.cfg.DefaultPriority
	}
	return profile, audience, nil
}

func (s *profilePopulatorImpl) details(at *attempt) map[string]interface{} {
	details := map[string]interface{}{
		"external_user_id": at.req.ExternalUserID,
	}
	if at.req.Reason != "" {
		details["reason"] = at.req.Reason
	}
	return details
}

// fail 记录失败日志并转换为结果，不向调用方抛出
func (s *profilePopulatorImpl) fail(ctx context.Context, at *attempt, err error) *PopulateResult {
	credits := 0
	if at.fetched {
		// 报告已拉取成功，额度已被消耗
		credits = consts.CreditsPerReport
	}

	fields := []any{
		"source_account_ref", at.req.SourceAccountRef,
		"platform", at.platform,
		"update_type", at.req.UpdateType,
		"err", err,
	}
	if code := mysqlErrNumber(err); code != 0 {
		fields = append(fields, "mysql_code", code)
	}
	if errors.Is(err, ErrPopulateInFlight) {
		log.WarnContext(ctx, "profile populate skipped", fields...)
	} else {
		log.ErrorContext(ctx, "profile populate failed", fields...)
	}

	details := s.details(at)
	entry := &model.CacheUpdateLog{
		SourceAccountRef: at.req.SourceAccountRef,
		Platform:         at.platform,
		UpdateType:       at.req.UpdateType,
		Status:           model.UpdateStatusFailed,
		CreditsUsed:      credits,
		ErrorMessage:     util.Truncate(err.Error(), 512),
		Details:          details,
		StartedAt:        at.startedAt,
		CompletedAt:      s.clock.Now().UTC(),
	}
	if logErr := s.logRepo.Create(ctx, entry); logErr != nil {
		log.ErrorContext(ctx, "write failed update log error", "source_account_ref", at.req.SourceAccountRef, "err", logErr)
	}

	return &PopulateResult{
		Success:     false,
		Err:         err,
		Error:       err.Error(),
		CreditsUsed: 0,
	}
}
