package model

import "time"

// DefaultCacheTTL 快照有效期，4 周
const DefaultCacheTTL = 28 * 24 * time.Hour

// ProfileCache 每个 (source_account_ref, platform) 仅保存一份最新快照
type ProfileCache struct {
	ID               uint64    `gorm:"primaryKey" json:"id"`
	SourceAccountRef string    `gorm:"column:source_account_ref;type:varchar(64);not null;uniqueIndex:idx_profile_cache_key,priority:1" json:"sourceAccountRef"`
	ExternalUserID   string    `gorm:"column:external_user_id;type:varchar(128);not null" json:"externalUserId"`
	Platform         Platform  `gorm:"column:platform;type:varchar(16);not null;uniqueIndex:idx_profile_cache_key,priority:2" json:"platform"`
	CachedAt         time.Time `gorm:"column:cached_at;not null" json:"cachedAt"`
	LastUpdated      time.Time `gorm:"column:last_updated;not null" json:"lastUpdated"`
	ExpiresAt        time.Time `gorm:"column:expires_at;not null;index" json:"expiresAt"`

	Username       string  `gorm:"column:username;type:varchar(128)" json:"username"`
	FullName       string  `gorm:"column:full_name;type:varchar(255)" json:"fullName"`
	Followers      int64   `gorm:"column:followers;not null;default:0" json:"followers"`
	Following      int64   `gorm:"column:following;not null;default:0" json:"following"`
	EngagementRate float64 `gorm:"column:engagement_rate;not null;default:0" json:"engagementRate"`
	AvgLikes       float64 `gorm:"column:avg_likes;not null;default:0" json:"avgLikes"`
	AvgComments    float64 `gorm:"column:avg_comments;not null;default:0" json:"avgComments"`
	AvgViews       float64 `gorm:"column:avg_views;not null;default:0" json:"avgViews"`
	PostsCount     int64   `gorm:"column:posts_count;not null;default:0" json:"postsCount"`

	Bio         string `gorm:"column:bio;type:text" json:"bio"`
	City        string `gorm:"column:city;type:varchar(128)" json:"city"`
	State       string `gorm:"column:state;type:varchar(128)" json:"state"`
	Country     string `gorm:"column:country;type:varchar(64)" json:"country"`
	AgeGroup    string `gorm:"column:age_group;type:varchar(16)" json:"ageGroup"`
	Gender      string `gorm:"column:gender;type:varchar(16)" json:"gender"`
	Language    string `gorm:"column:language;type:varchar(16)" json:"language"`
	IsPrivate   bool   `gorm:"column:is_private;not null;default:false" json:"isPrivate"`
	IsVerified  bool   `gorm:"column:is_verified;not null;default:false" json:"isVerified"`
	AccountType string `gorm:"column:account_type;type:varchar(32)" json:"accountType"`

	Contacts       Contacts      `gorm:"column:contacts;type:json" json:"contacts"`
	Hashtags       TagStats      `gorm:"column:hashtags;type:json" json:"hashtags"`
	Mentions       TagStats      `gorm:"column:mentions;type:json" json:"mentions"`
	Stats          PlatformStats `gorm:"column:stats;type:json" json:"stats"`
	RecentPosts    Posts         `gorm:"column:recent_posts;type:json" json:"recentPosts"`
	PopularPosts   Posts         `gorm:"column:popular_posts;type:json" json:"popularPosts"`
	SponsoredPosts Posts         `gorm:"column:sponsored_posts;type:json" json:"sponsoredPosts"`

	// 业务方指定的刷新优先级，刷新时保留
	UpdatePriority int `gorm:"column:update_priority;not null;default:0;index" json:"updatePriority"`

	Audience *AudienceCache `gorm:"foreignKey:ProfileCacheID;constraint:OnDelete:CASCADE" json:"audience,omitempty"`
}

func (ProfileCache) TableName() string {
	return "profile_cache"
}

// Key 返回缓存键
func (p *ProfileCache) Key() CacheKey {
	return CacheKey{
		SourceAccountRef: p.SourceAccountRef,
		ExternalUserID:   p.ExternalUserID,
		Platform:         p.Platform,
		UpdatePriority:   p.UpdatePriority,
		ExpiresAt:        p.ExpiresAt,
	}
}

// IsExpired expires_at <= now 即视为过期
func (p *ProfileCache) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// ProfileSnapshotColumns 全量替换时覆盖的列，不包含 id / 键 / update_priority
var ProfileSnapshotColumns = []string{
	"external_user_id", "cached_at", "last_updated", "expires_at",
	"username", "full_name", "followers", "following", "engagement_rate",
	"avg_likes", "avg_comments", "avg_views", "posts_count",
	"bio", "city", "state", "country", "age_group", "gender", "language",
	"is_private", "is_verified", "account_type",
	"contacts", "hashtags", "mentions", "stats",
	"recent_posts", "popular_posts", "sponsored_posts",
}
