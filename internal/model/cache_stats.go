package model

import "time"

// CacheStats 监控用的聚合视图，不落库
type CacheStats struct {
	TotalCachedProfiles   int64      `json:"totalCachedProfiles"`
	ProfilesNeedingUpdate int64      `json:"profilesNeedingUpdate"`
	LastUpdateRun         *time.Time `json:"lastUpdateRun"`
	CreditsUsedThisMonth  int64      `json:"creditsUsedThisMonth"`
}
