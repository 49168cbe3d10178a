package model

// AudienceCache 与 ProfileCache 一对一，随父记录一起创建和删除
type AudienceCache struct {
	ID                     uint64  `gorm:"primaryKey" json:"id"`
	ProfileCacheID         uint64  `gorm:"column:profile_cache_id;not null;uniqueIndex" json:"profileCacheId"`
	CredibilityScore       float64 `gorm:"column:credibility_score;not null;default:0" json:"credibilityScore"`
	NotablePercentage      float64 `gorm:"column:notable_percentage;not null;default:0" json:"notablePercentage"`
	FakeFollowerPercentage float64 `gorm:"column:fake_follower_percentage;not null;default:0" json:"fakeFollowerPercentage"`

	Genders       Distribution    `gorm:"column:genders;type:json" json:"genders"`
	Ages          Distribution    `gorm:"column:ages;type:json" json:"ages"`
	GendersPerAge GenderAgeSplits `gorm:"column:genders_per_age;type:json" json:"gendersPerAge"`

	Countries Distribution `gorm:"column:countries;type:json" json:"countries"`
	Cities    Distribution `gorm:"column:cities;type:json" json:"cities"`
	States    Distribution `gorm:"column:states;type:json" json:"states"`

	Interests            Distribution  `gorm:"column:interests;type:json" json:"interests"`
	BrandAffinity        Distribution  `gorm:"column:brand_affinity;type:json" json:"brandAffinity"`
	Languages            Distribution  `gorm:"column:languages;type:json" json:"languages"`
	Ethnicities          Distribution  `gorm:"column:ethnicities;type:json" json:"ethnicities"`
	AudienceReachability Distribution  `gorm:"column:audience_reachability;type:json" json:"audienceReachability"`
	AudienceTypes        Distribution  `gorm:"column:audience_types;type:json" json:"audienceTypes"`
	NotableUsers         AudienceUsers `gorm:"column:notable_users;type:json" json:"notableUsers"`
	AudienceLookalikes   AudienceUsers `gorm:"column:audience_lookalikes;type:json" json:"audienceLookalikes"`
}

func (AudienceCache) TableName() string {
	return "audience_cache"
}

var AudienceSnapshotColumns = []string{
	"credibility_score", "notable_percentage", "fake_follower_percentage",
	"genders", "ages", "genders_per_age", "countries", "cities", "states",
	"interests", "brand_affinity", "languages", "ethnicities",
	"audience_reachability", "audience_types", "notable_users", "audience_lookalikes",
}
