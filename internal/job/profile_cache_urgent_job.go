package job

import (
	"context"
	log "log/slog"

	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/logger"

	"github.com/google/uuid"
)

// ProfileCacheUrgentJob 轮询是否存在过期条目，有则提前执行刷新
type ProfileCacheUrgentJob struct {
	cacheJob *ProfileCacheJob
}

func NewProfileCacheUrgentJob(cacheJob *ProfileCacheJob) *ProfileCacheUrgentJob {
	return &ProfileCacheUrgentJob{
		cacheJob: cacheJob,
	}
}

func (s *ProfileCacheUrgentJob) Run() {
	traceID := "job-profile-cache-urgent-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)
	s.check(ctx)
}

func (s *ProfileCacheUrgentJob) check(ctx context.Context) *model.CacheJobResult {
	urgent, err := s.cacheJob.CheckUrgentUpdates(ctx)
	if err != nil {
		log.ErrorContext(ctx, "check urgent profile updates error", "err", err)
		return nil
	}
	if !urgent {
		return nil
	}
	return s.cacheJob.execute(ctx, model.UpdateTypeScheduled, model.JobTriggerUrgent, "profiles needing update")
}
