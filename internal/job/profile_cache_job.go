package job

import (
	"context"
	log "log/slog"
	"time"

	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/logger"
	"github.com/techstridesocial/ss-sub002/internal/service"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// JobRunRecorder 保存每次任务结果，用于监控
type JobRunRecorder interface {
	SaveRun(ctx context.Context, result *model.CacheJobResult) error
}

// ProfileCacheJob 刷新任务：挑选候选条目后串行调用 populator，每次调用之间固定等待
type ProfileCacheJob struct {
	populator service.ProfilePopulator
	evaluator service.FreshnessEvaluator
	cacheSvc  service.ProfileCacheService
	recorder  JobRunRecorder
	clock     clockwork.Clock
	batchSize int
	delay     time.Duration
}

func NewProfileCacheJob(
	populator service.ProfilePopulator,
	evaluator service.FreshnessEvaluator,
	cacheSvc service.ProfileCacheService,
	recorder JobRunRecorder,
	clock clockwork.Clock,
	cfg config.ProfileCacheConfig,
) *ProfileCacheJob {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ProfileCacheJob{
		populator: populator,
		evaluator: evaluator,
		cacheSvc:  cacheSvc,
		recorder:  recorder,
		clock:     clock,
		batchSize: batchSize,
		delay:     cfg.Delay(),
	}
}

// Run cron 入口
func (s *ProfileCacheJob) Run() {
	traceID := "job-profile-cache-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)
	s.execute(ctx, model.UpdateTypeScheduled, model.JobTriggerCron, "")
}

// RunCacheUpdateJob 执行一轮定时刷新
func (s *ProfileCacheJob) RunCacheUpdateJob(ctx context.Context) *model.CacheJobResult {
	return s.execute(withTraceID(ctx), model.UpdateTypeScheduled, model.JobTriggerCron, "")
}

// TriggerManualUpdate 手动触发，reason 写入日志和更新记录
func (s *ProfileCacheJob) TriggerManualUpdate(ctx context.Context, reason string) *model.CacheJobResult {
	ctx = withTraceID(ctx)
	log.InfoContext(ctx, "profile cache manual update triggered", "reason", reason)
	return s.execute(ctx, model.UpdateTypeManual, model.JobTriggerManual, reason)
}

// CheckUrgentUpdates 存在已过期条目时返回 true
func (s *ProfileCacheJob) CheckUrgentUpdates(ctx context.Context) (bool, error) {
	stats, err := s.cacheSvc.GetCacheStats(ctx)
	if err != nil {
		return false, err
	}
	return stats.ProfilesNeedingUpdate > 0, nil
}

func (s *ProfileCacheJob) execute(ctx context.Context, updateType model.UpdateType, trigger string, reason string) *model.CacheJobResult {
	result := &model.CacheJobResult{
		Trigger:   trigger,
		Reason:    reason,
		StartTime: s.clock.Now().UTC(),
	}

	before, err := s.cacheSvc.GetCacheStats(ctx)
	if err != nil {
		return s.abort(ctx, result, err)
	}
	log.InfoContext(ctx, "profile cache job started",
		"trigger", trigger,
		"total_cached", before.TotalCachedProfiles,
		"needing_update", before.ProfilesNeedingUpdate,
		"credits_this_month", before.CreditsUsedThisMonth)

	keys, err := s.evaluator.SelectCandidates(ctx, s.batchSize)
	if err != nil {
		return s.abort(ctx, result, err)
	}
	if len(keys) > s.batchSize {
		keys = keys[:s.batchSize]
	}

	for i, key := range keys {
		if i > 0 && s.delay > 0 {
			s.clock.Sleep(s.delay)
		}

		res := s.populateOne(ctx, key, updateType, reason)
		result.Processed++
		if res.Success {
			result.Updated++
			result.CreditsUsed += res.CreditsUsed
			continue
		}
		result.Errors++
		log.WarnContext(ctx, "profile cache job item failed",
			"source_account_ref", key.SourceAccountRef,
			"platform", key.Platform,
			"err", res.Err)
	}

	after, err := s.cacheSvc.GetCacheStats(ctx)
	if err != nil {
		return s.abort(ctx, result, err)
	}

	result.Success = true
	result.TotalCached = after.TotalCachedProfiles
	result.NeedingUpdate = after.ProfilesNeedingUpdate
	s.finish(result)

	log.InfoContext(ctx, "profile cache job finished",
		"trigger", trigger,
		"candidates", len(keys),
		"updated", result.Updated,
		"errors", result.Errors,
		"credits_used", result.CreditsUsed,
		"needing_update", result.NeedingUpdate,
		"duration", result.Duration)

	s.record(ctx, result)
	return result
}

// populateOne 单个条目的失败不影响整批
func (s *ProfileCacheJob) populateOne(ctx context.Context, key model.CacheKey, updateType model.UpdateType, reason string) (res *service.PopulateResult) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "profile cache job item panic", "source_account_ref", key.SourceAccountRef, "panic", r)
			res = &service.PopulateResult{Success: false, Err: service.UnExpectedError}
		}
	}()

	res = s.populator.Populate(ctx, service.PopulateRequest{
		SourceAccountRef: key.SourceAccountRef,
		ExternalUserID:   key.ExternalUserID,
		Platform:         string(key.Platform),
		UpdateType:       updateType,
		Priority:         key.UpdatePriority,
		Reason:           reason,
	})
	if res == nil {
		res = &service.PopulateResult{Success: false, Err: service.UnExpectedError}
	}
	return res
}

// abort 统计或候选查询失败时整轮视为失败，计数全部归零
func (s *ProfileCacheJob) abort(ctx context.Context, result *model.CacheJobResult, err error) *model.CacheJobResult {
	aborted := &model.CacheJobResult{
		Success:   false,
		Trigger:   result.Trigger,
		Reason:    result.Reason,
		Error:     err.Error(),
		StartTime: result.StartTime,
	}
	s.finish(aborted)
	log.ErrorContext(ctx, "profile cache job failed", "trigger", result.Trigger, "err", err)
	s.record(ctx, aborted)
	return aborted
}

func (s *ProfileCacheJob) finish(result *model.CacheJobResult) {
	result.EndTime = s.clock.Now().UTC()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.DurationMs = result.Duration.Milliseconds()
}

func (s *ProfileCacheJob) record(ctx context.Context, result *model.CacheJobResult) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.SaveRun(ctx, result); err != nil {
		log.ErrorContext(ctx, "save profile cache job run error", "err", err)
	}
}

func withTraceID(ctx context.Context) context.Context {
	if id, ok := ctx.Value(logger.TraceIDKey).(string); ok && id != "" {
		return ctx
	}
	return context.WithValue(ctx, logger.TraceIDKey, "job-profile-cache-"+uuid.NewString())
}
