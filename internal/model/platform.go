package model

import (
	"errors"
	"strings"
	"time"
)

// Platform 社交平台，统一使用大写存储
type Platform string

const (
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformTikTok    Platform = "TIKTOK"
	PlatformYouTube   Platform = "YOUTUBE"
)

var ErrPlatformUnsupported = errors.New("unsupported platform")

var supportedPlatforms = map[Platform]struct{}{
	PlatformInstagram: {},
	PlatformTikTok:    {},
	PlatformYouTube:   {},
}

// NormalizePlatform 去空格并转大写，读写前统一调用
func NormalizePlatform(raw string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := supportedPlatforms[p]; !ok {
		return "", ErrPlatformUnsupported
	}
	return p, nil
}

// PathSegment provider 路径中使用小写
func (p Platform) PathSegment() string {
	return strings.ToLower(string(p))
}

// CacheKey 缓存条目的键
type CacheKey struct {
	SourceAccountRef string    `json:"sourceAccountRef"`
	ExternalUserID   string    `json:"externalUserId"`
	Platform         Platform  `json:"platform"`
	UpdatePriority   int       `json:"updatePriority"`
	ExpiresAt        time.Time `json:"expiresAt"`
}
