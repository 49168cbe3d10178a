package mongo

import (
	"time"

	"github.com/techstridesocial/ss-sub002/internal/model"
)

// CacheJobRun 刷新任务执行记录
type CacheJobRun struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Trigger       string    `bson:"trigger" json:"trigger"`
	Reason        string    `bson:"reason,omitempty" json:"reason,omitempty"`
	Success       bool      `bson:"success" json:"success"`
	Updated       int       `bson:"updated" json:"updated"`
	Errors        int       `bson:"errors" json:"errors"`
	Processed     int       `bson:"processed" json:"processed"`
	CreditsUsed   int       `bson:"credits_used" json:"creditsUsed"`
	TotalCached   int64     `bson:"total_cached" json:"totalCached"`
	NeedingUpdate int64     `bson:"needing_update" json:"needingUpdate"`
	Error         string    `bson:"error,omitempty" json:"error,omitempty"`
	DurationMs    int64     `bson:"duration_ms" json:"durationMs"`
	StartedAt     time.Time `bson:"started_at" json:"startedAt"`
	FinishedAt    time.Time `bson:"finished_at" json:"finishedAt"`
}

func NewCacheJobRun(result *model.CacheJobResult) *CacheJobRun {
	return &CacheJobRun{
		Trigger:       result.Trigger,
		Reason:        result.Reason,
		Success:       result.Success,
		Updated:       result.Updated,
		Errors:        result.Errors,
		Processed:     result.Processed,
		CreditsUsed:   result.CreditsUsed,
		TotalCached:   result.TotalCached,
		NeedingUpdate: result.NeedingUpdate,
		Error:         result.Error,
		DurationMs:    result.DurationMs,
		StartedAt:     result.StartTime,
		FinishedAt:    result.EndTime,
	}
}
