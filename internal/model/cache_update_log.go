package model

import (
	"time"

	"gorm.io/datatypes"
)

type UpdateType string

const (
	UpdateTypeInitial   UpdateType = "initial"
	UpdateTypeScheduled UpdateType = "scheduled"
	UpdateTypeManual    UpdateType = "manual"
)

type UpdateStatus string

const (
	UpdateStatusCompleted UpdateStatus = "completed"
	UpdateStatusFailed    UpdateStatus = "failed"
)

// CacheUpdateLog 每次 populate 尝试追加一条，用于额度审计
type CacheUpdateLog struct {
	ID               uint64            `gorm:"primaryKey" json:"id"`
	ProfileCacheID   *uint64           `gorm:"column:profile_cache_id;index" json:"profileCacheId"`
	SourceAccountRef string            `gorm:"column:source_account_ref;type:varchar(64);not null" json:"sourceAccountRef"`
	Platform         Platform          `gorm:"column:platform;type:varchar(16);not null" json:"platform"`
	UpdateType       UpdateType        `gorm:"column:update_type;type:varchar(16);not null" json:"updateType"`
	Status           UpdateStatus      `gorm:"column:status;type:varchar(16);not null;index:idx_update_log_status_completed,priority:1" json:"status"`
	CreditsUsed      int               `gorm:"column:credits_used;not null;default:0" json:"creditsUsed"`
	ErrorMessage     string            `gorm:"column:error_message;type:varchar(512)" json:"errorMessage,omitempty"`
	Details          datatypes.JSONMap `gorm:"column:details;type:json" json:"details,omitempty"`
	StartedAt        time.Time         `gorm:"column:started_at;not null" json:"startedAt"`
	CompletedAt      time.Time         `gorm:"column:completed_at;not null;index:idx_update_log_status_completed,priority:2" json:"completedAt"`
}

func (CacheUpdateLog) TableName() string {
	return "cache_update_log"
}
