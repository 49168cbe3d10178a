package model

import "time"

const (
	JobTriggerCron   = "cron"
	JobTriggerUrgent = "urgent"
	JobTriggerManual = "manual"
)

// CacheJobResult 一次刷新任务的结果
type CacheJobResult struct {
	Success       bool          `json:"success"`
	Updated       int           `json:"updated"`
	Errors        int           `json:"errors"`
	CreditsUsed   int           `json:"creditsUsed"`
	Processed     int           `json:"processed"`
	TotalCached   int64         `json:"totalCached"`
	NeedingUpdate int64         `json:"needingUpdate"`
	Trigger       string        `json:"trigger"`
	Reason        string        `json:"reason,omitempty"`
	Error         string        `json:"error,omitempty"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime"`
	Duration      time.Duration `json:"-"`
	DurationMs    int64         `json:"durationMs"`
}
