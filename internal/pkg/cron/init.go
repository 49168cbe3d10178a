package cron

import log "log/slog"

// InitCron 注册并启动所有定时任务
func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	mgr.Start()
	log.Info("Cron Jobs started", "entries", len(mgr.engine.Entries()))
	return nil
}
