package cron

import (
	log "log/slog"

	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/job"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine                *cron.Cron
	cfg                   config.ProfileCacheConfig
	profileCacheJob       *job.ProfileCacheJob
	profileCacheUrgentJob *job.ProfileCacheUrgentJob
}

func NewCronManager(cfg config.ProfileCacheConfig, profileCacheJob *job.ProfileCacheJob, profileCacheUrgentJob *job.ProfileCacheUrgentJob) *Manager {
	return &Manager{
		engine:                cron.New(cron.WithSeconds()),
		cfg:                   cfg,
		profileCacheJob:       profileCacheJob,
		profileCacheUrgentJob: profileCacheUrgentJob,
	}
}

// RegisterJobs 注册定时任务，urgent_cron 为空时不启用紧急检查
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.cfg.Cron, s.profileCacheJob); err != nil {
		return err
	}
	log.Info("profile cache job registered", "schedule", s.cfg.Cron)

	if s.cfg.UrgentCron != "" && s.profileCacheUrgentJob != nil {
		if _, err := s.engine.AddJob(s.cfg.UrgentCron, s.profileCacheUrgentJob); err != nil {
			return err
		}
		log.Info("profile cache urgent job registered", "schedule", s.cfg.UrgentCron)
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
