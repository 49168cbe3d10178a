package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// 以下为快照中的 JSON 列，结构在 provider 边界处校验后写入

type Contact struct {
	Type  string `json:"type" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type Contacts []Contact

type TagStat struct {
	Tag    string  `json:"tag" validate:"required"`
	Weight float64 `json:"weight" validate:"gte=0,lte=1"`
}

// TagStats hashtags / mentions
type TagStats []TagStat

type Post struct {
	ID       string    `json:"id" validate:"required"`
	URL      string    `json:"url"`
	Text     string    `json:"text"`
	Type     string    `json:"type"`
	Likes    int64     `json:"likes" validate:"gte=0"`
	Comments int64     `json:"comments" validate:"gte=0"`
	Views    int64     `json:"views" validate:"gte=0"`
	Created  time.Time `json:"created"`
}

type Posts []Post

type WeightedItem struct {
	Code   string  `json:"code"`
	Name   string  `json:"name,omitempty"`
	Weight float64 `json:"weight" validate:"gte=0,lte=1"`
}

// Distribution 受众分布，权重为 0~1 的占比
type Distribution []WeightedItem

type GenderAgeSplit struct {
	Code   string  `json:"code" validate:"required"`
	Male   float64 `json:"male" validate:"gte=0,lte=1"`
	Female float64 `json:"female" validate:"gte=0,lte=1"`
}

type GenderAgeSplits []GenderAgeSplit

type AudienceUser struct {
	UserID      string `json:"userId" validate:"required"`
	Username    string `json:"username"`
	FullName    string `json:"fullName,omitempty"`
	Followers   int64  `json:"followers" validate:"gte=0"`
	Engagements int64  `json:"engagements" validate:"gte=0"`
}

type AudienceUsers []AudienceUser

type InstagramStats struct {
	AvgReelsPlays       float64 `json:"avgReelsPlays" validate:"gte=0"`
	FollowersGrowth30d  float64 `json:"followersGrowth30d"`
	PaidPostPerformance float64 `json:"paidPostPerformance" validate:"gte=0"`
}

type TikTokStats struct {
	AvgShares          float64 `json:"avgShares" validate:"gte=0"`
	AvgSaves           float64 `json:"avgSaves" validate:"gte=0"`
	TotalLikes         int64   `json:"totalLikes" validate:"gte=0"`
	FollowersGrowth30d float64 `json:"followersGrowth30d"`
}

type YouTubeStats struct {
	TotalViews           int64   `json:"totalViews" validate:"gte=0"`
	AvgShortsViews       float64 `json:"avgShortsViews" validate:"gte=0"`
	SubscribersGrowth30d float64 `json:"subscribersGrowth30d"`
}

// PlatformStats 平台相关统计，只允许与 Platform 对应的一个分支非空
type PlatformStats struct {
	Platform  Platform        `json:"platform"`
	Instagram *InstagramStats `json:"instagram,omitempty"`
	TikTok    *TikTokStats    `json:"tiktok,omitempty"`
	YouTube   *YouTubeStats   `json:"youtube,omitempty"`
}

var ErrStatsVariant = errors.New("platform stats variant mismatch")

func (s PlatformStats) Validate() error {
	set := 0
	var matched bool
	if s.Instagram != nil {
		set++
		matched = s.Platform == PlatformInstagram
	}
	if s.TikTok != nil {
		set++
		matched = s.Platform == PlatformTikTok
	}
	if s.YouTube != nil {
		set++
		matched = s.Platform == PlatformYouTube
	}
	// 没有统计数据是允许的
	if set == 0 {
		return nil
	}
	if set > 1 || !matched {
		return ErrStatsVariant
	}
	return nil
}

func (c Contacts) Value() (driver.Value, error)        { return jsonValue(c) }
func (c *Contacts) Scan(value interface{}) error        { return jsonScan(value, c) }
func (t TagStats) Value() (driver.Value, error)         { return jsonValue(t) }
func (t *TagStats) Scan(value interface{}) error        { return jsonScan(value, t) }
func (p Posts) Value() (driver.Value, error)            { return jsonValue(p) }
func (p *Posts) Scan(value interface{}) error           { return jsonScan(value, p) }
func (d Distribution) Value() (driver.Value, error)     { return jsonValue(d) }
func (d *Distribution) Scan(value interface{}) error    { return jsonScan(value, d) }
func (g GenderAgeSplits) Value() (driver.Value, error)  { return jsonValue(g) }
func (g *GenderAgeSplits) Scan(value interface{}) error { return jsonScan(value, g) }
func (a AudienceUsers) Value() (driver.Value, error)    { return jsonValue(a) }
func (a *AudienceUsers) Scan(value interface{}) error   { return jsonScan(value, a) }
func (s PlatformStats) Value() (driver.Value, error)    { return jsonValue(s) }
func (s *PlatformStats) Scan(value interface{}) error   { return jsonScan(value, s) }

func jsonValue(v any) (driver.Value, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

func jsonScan(value interface{}, dest any) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dest)
}
