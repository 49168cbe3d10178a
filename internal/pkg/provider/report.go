package provider

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/util"

	"github.com/goccy/go-json"
)

var (
	ErrProfileMissing = errors.New("provider report has no profile section")
	ErrReportRejected = errors.New("provider rejected report request")
	ErrMalformed      = errors.New("provider report is malformed")
)

// Report 已在边界处校验过的画像报告
type Report struct {
	Profile  *ProfileSection
	Audience *AudienceSection
	Stats    model.PlatformStats
}

type ProfileSection struct {
	UserID         string  `json:"userId" validate:"required"`
	Username       string  `json:"username" validate:"required"`
	FullName       string  `json:"fullName"`
	Followers      int64   `json:"followers" validate:"gte=0"`
	Following      int64   `json:"following" validate:"gte=0"`
	EngagementRate float64 `json:"engagementRate" validate:"gte=0,lte=1"`
	AvgLikes       float64 `json:"avgLikes" validate:"gte=0"`
	AvgComments    float64 `json:"avgComments" validate:"gte=0"`
	AvgViews       float64 `json:"avgViews" validate:"gte=0"`
	PostsCount     int64   `json:"postsCount" validate:"gte=0"`

	Bio         string `json:"bio"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	AgeGroup    string `json:"ageGroup"`
	Gender      string `json:"gender"`
	Language    string `json:"language"`
	IsPrivate   bool   `json:"isPrivate"`
	IsVerified  bool   `json:"isVerified"`
	AccountType string `json:"accountType"`

	Contacts       model.Contacts `json:"contacts" validate:"dive"`
	Hashtags       model.TagStats `json:"hashtags" validate:"dive"`
	Mentions       model.TagStats `json:"mentions" validate:"dive"`
	RecentPosts    model.Posts    `json:"recentPosts" validate:"dive"`
	PopularPosts   model.Posts    `json:"popularPosts" validate:"dive"`
	SponsoredPosts model.Posts    `json:"sponsoredPosts" validate:"dive"`
}

type AudienceSection struct {
	CredibilityScore       float64 `json:"credibility" validate:"gte=0,lte=1"`
	NotablePercentage      float64 `json:"notablePercentage" validate:"gte=0,lte=1"`
	FakeFollowerPercentage float64 `json:"fakeFollowerPercentage" validate:"gte=0,lte=1"`

	Genders       model.Distribution    `json:"genders" validate:"dive"`
	Ages          model.Distribution    `json:"ages" validate:"dive"`
	GendersPerAge model.GenderAgeSplits `json:"gendersPerAge" validate:"dive"`

	Countries model.Distribution `json:"countries" validate:"dive"`
	Cities    model.Distribution `json:"cities" validate:"dive"`
	States    model.Distribution `json:"states" validate:"dive"`

	Interests            model.Distribution  `json:"interests" validate:"dive"`
	BrandAffinity        model.Distribution  `json:"brandAffinity" validate:"dive"`
	Languages            model.Distribution  `json:"languages" validate:"dive"`
	Ethnicities          model.Distribution  `json:"ethnicities" validate:"dive"`
	AudienceReachability model.Distribution  `json:"audienceReachability" validate:"dive"`
	AudienceTypes        model.Distribution  `json:"audienceTypes" validate:"dive"`
	NotableUsers         model.AudienceUsers `json:"notableUsers" validate:"dive"`
	AudienceLookalikes   model.AudienceUsers `json:"audienceLookalikes" validate:"dive"`
}

type rawReport struct {
	Error    bool             `json:"error"`
	Message  string           `json:"message"`
	Profile  *ProfileSection  `json:"profile"`
	Audience *AudienceSection `json:"audience"`
	Stats    json.RawMessage  `json:"stats"`
}

// ParseReport 解析并校验报告，上游结构变化时在这里直接失败
func ParseReport(body []byte, platform model.Platform) (*Report, error) {
	var raw rawReport
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Error {
		return nil, fmt.Errorf("%w: %s", ErrReportRejected, raw.Message)
	}
	if raw.Profile == nil {
		return nil, ErrProfileMissing
	}
	if err := util.ValidateStruct(raw.Profile); err != nil {
		return nil, fmt.Errorf("%w: profile: %v", ErrMalformed, err)
	}
	if raw.Audience != nil {
		if err := util.ValidateStruct(raw.Audience); err != nil {
			return nil, fmt.Errorf("%w: audience: %v", ErrMalformed, err)
		}
	}

	stats, err := decodeStats(platform, raw.Stats)
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %v", ErrMalformed, err)
	}

	return &Report{
		Profile:  raw.Profile,
		Audience: raw.Audience,
		Stats:    stats,
	}, nil
}

func decodeStats(platform model.Platform, raw json.RawMessage) (model.PlatformStats, error) {
	stats := model.PlatformStats{Platform: platform}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return stats, nil
	}

	var target any
	switch platform {
	case model.PlatformInstagram:
		stats.Instagram = &model.InstagramStats{}
		target = stats.Instagram
	case model.PlatformTikTok:
		stats.TikTok = &model.TikTokStats{}
		target = stats.TikTok
	case model.PlatformYouTube:
		stats.YouTube = &model.YouTubeStats{}
		target = stats.YouTube
	default:
		return stats, model.ErrPlatformUnsupported
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return stats, err
	}
	if err := util.ValidateStruct(target); err != nil {
		return stats, err
	}
	return stats, stats.Validate()
}
