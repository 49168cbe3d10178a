package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/database"

	"github.com/google/go-cmp/cmp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var baseTime = time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newProfile(ref string, platform model.Platform, cachedAt time.Time, ttl time.Duration, priority int) *model.ProfileCache {
	return &model.ProfileCache{
		SourceAccountRef: ref,
		ExternalUserID:   "ext-" + ref,
		Platform:         platform,
		CachedAt:         cachedAt,
		LastUpdated:      cachedAt,
		ExpiresAt:        cachedAt.Add(ttl),
		Username:         "user-" + ref,
		Followers:        100,
		Stats:            model.PlatformStats{Platform: platform},
		UpdatePriority:   priority,
	}
}

func completedLog(ref string, platform model.Platform, at time.Time) *model.CacheUpdateLog {
	return &model.CacheUpdateLog{
		SourceAccountRef: ref,
		Platform:         platform,
		UpdateType:       model.UpdateTypeScheduled,
		Status:           model.UpdateStatusCompleted,
		CreditsUsed:      1,
		StartedAt:        at,
		CompletedAt:      at,
	}
}

func seed(t *testing.T, repo ProfileCacheRepo, p *model.ProfileCache) {
	t.Helper()
	audience := &model.AudienceCache{CredibilityScore: 0.5}
	if err := repo.ReplaceProfile(context.Background(), p, audience, completedLog(p.SourceAccountRef, p.Platform, p.CachedAt)); err != nil {
		t.Fatalf("ReplaceProfile(%s): %v", p.SourceAccountRef, err)
	}
}

func TestReplaceProfileKeepsSingleRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileCacheRepo(db)
	ctx := context.Background()

	first := newProfile("acc-1", model.PlatformInstagram, baseTime, model.DefaultCacheTTL, 80)
	seed(t, repo, first)

	second := newProfile("acc-1", model.PlatformInstagram, baseTime.Add(time.Hour), model.DefaultCacheTTL, 0)
	second.Followers = 250
	audience := &model.AudienceCache{CredibilityScore: 0.9}
	if err := repo.ReplaceProfile(ctx, second, audience, completedLog("acc-1", model.PlatformInstagram, baseTime.Add(time.Hour))); err != nil {
		t.Fatalf("second ReplaceProfile: %v", err)
	}

	var profiles, audiences, logs int64
	db.Model(&model.ProfileCache{}).Count(&profiles)
	db.Model(&model.AudienceCache{}).Count(&audiences)
	db.Model(&model.CacheUpdateLog{}).Count(&logs)
	if profiles != 1 || audiences != 1 || logs != 2 {
		t.Fatalf("rows profiles=%d audiences=%d logs=%d, want 1/1/2", profiles, audiences, logs)
	}
	if second.ID != first.ID {
		t.Errorf("id changed across refresh: %d -> %d", first.ID, second.ID)
	}
	if second.UpdatePriority != 80 {
		t.Errorf("returned priority = %d, want preserved 80", second.UpdatePriority)
	}

	got, err := repo.GetByKey(ctx, "acc-1", model.PlatformInstagram)
	if err != nil || got == nil {
		t.Fatalf("GetByKey = %v, %v", got, err)
	}
	if got.Followers != 250 || got.UpdatePriority != 80 {
		t.Errorf("stored followers=%d priority=%d", got.Followers, got.UpdatePriority)
	}
	if !got.CachedAt.Equal(baseTime.Add(time.Hour)) {
		t.Errorf("cachedAt = %v", got.CachedAt)
	}
	if got.Audience == nil || got.Audience.CredibilityScore != 0.9 {
		t.Errorf("audience not replaced: %+v", got.Audience)
	}
}

func TestGetByKeyMissing(t *testing.T) {
	repo := NewProfileCacheRepo(newTestDB(t))
	got, err := repo.GetByKey(context.Background(), "nobody", model.PlatformTikTok)
	if err != nil || got != nil {
		t.Fatalf("GetByKey = %v, %v; want nil, nil", got, err)
	}
}

func TestSelectCandidatesOrdering(t *testing.T) {
	repo := NewProfileCacheRepo(newTestDB(t))
	now := baseTime.Add(30 * 24 * time.Hour)

	// A 已过期、B 12h 后过期且高优先级、C 2 天后过期低优先级、D 2 天后过期高优先级
	seed(t, repo, newProfile("A", model.PlatformInstagram, now.Add(-time.Hour-model.DefaultCacheTTL), model.DefaultCacheTTL, 10))
	seed(t, repo, newProfile("B", model.PlatformInstagram, now.Add(12*time.Hour-model.DefaultCacheTTL), model.DefaultCacheTTL, 90))
	seed(t, repo, newProfile("C", model.PlatformInstagram, now.Add(48*time.Hour-model.DefaultCacheTTL), model.DefaultCacheTTL, 10))
	seed(t, repo, newProfile("D", model.PlatformTikTok, now.Add(48*time.Hour-model.DefaultCacheTTL), model.DefaultCacheTTL, 90))

	refs := func(list []*model.ProfileCache) []string {
		out := make([]string, 0, len(list))
		for _, p := range list {
			out = append(out, p.SourceAccountRef)
		}
		return out
	}

	list, err := repo.SelectCandidates(context.Background(), now, 24*time.Hour, 75, 2)
	if err != nil {
		t.Fatalf("SelectCandidates: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, refs(list)); diff != "" {
		t.Errorf("limit 2 mismatch (-want +got):\n%s", diff)
	}

	list, err = repo.SelectCandidates(context.Background(), now, 24*time.Hour, 75, 10)
	if err != nil {
		t.Fatalf("SelectCandidates: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "D"}, refs(list)); diff != "" {
		t.Errorf("limit 10 mismatch (-want +got):\n%s", diff)
	}

	list, err = repo.SelectCandidates(context.Background(), now, 24*time.Hour, 75, 0)
	if err != nil || len(list) != 0 {
		t.Errorf("limit 0 = %v, %v; want empty", refs(list), err)
	}
}

func TestSelectCandidatesPriorityOnly(t *testing.T) {
	repo := NewProfileCacheRepo(newTestDB(t))
	now := baseTime

	// 都远未过期，只有优先级高于阈值的才会入选
	seed(t, repo, newProfile("low", model.PlatformYouTube, now, model.DefaultCacheTTL, 75))
	seed(t, repo, newProfile("high", model.PlatformYouTube, now, model.DefaultCacheTTL, 76))

	list, err := repo.SelectCandidates(context.Background(), now, 24*time.Hour, 75, 10)
	if err != nil {
		t.Fatalf("SelectCandidates: %v", err)
	}
	if len(list) != 1 || list[0].SourceAccountRef != "high" {
		t.Fatalf("candidates = %+v, want only high", list)
	}
	if list[0].ExternalUserID != "ext-high" || !list[0].ExpiresAt.Equal(now.Add(model.DefaultCacheTTL)) {
		t.Errorf("candidate key columns not loaded: %+v", list[0])
	}
}

func TestUpdatePriority(t *testing.T) {
	repo := NewProfileCacheRepo(newTestDB(t))
	ctx := context.Background()
	seed(t, repo, newProfile("acc", model.PlatformTikTok, baseTime, model.DefaultCacheTTL, 0))

	found, err := repo.UpdatePriority(ctx, "acc", model.PlatformTikTok, 60)
	if err != nil || !found {
		t.Fatalf("UpdatePriority = %v, %v", found, err)
	}
	found, err = repo.UpdatePriority(ctx, "acc", model.PlatformYouTube, 60)
	if err != nil || found {
		t.Fatalf("UpdatePriority on missing key = %v, %v", found, err)
	}

	got, _ := repo.GetByKey(ctx, "acc", model.PlatformTikTok)
	if got.UpdatePriority != 60 {
		t.Fatalf("priority = %d", got.UpdatePriority)
	}
}

func TestDeleteByAccount(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileCacheRepo(db)
	ctx := context.Background()
	seed(t, repo, newProfile("acc", model.PlatformTikTok, baseTime, model.DefaultCacheTTL, 0))
	seed(t, repo, newProfile("acc", model.PlatformInstagram, baseTime, model.DefaultCacheTTL, 0))
	seed(t, repo, newProfile("other", model.PlatformInstagram, baseTime, model.DefaultCacheTTL, 0))

	platforms, err := repo.DeleteByAccount(ctx, "acc")
	if err != nil {
		t.Fatalf("DeleteByAccount: %v", err)
	}
	if len(platforms) != 2 {
		t.Fatalf("removed platforms = %v", platforms)
	}

	var profiles, audiences int64
	db.Model(&model.ProfileCache{}).Count(&profiles)
	db.Model(&model.AudienceCache{}).Count(&audiences)
	if profiles != 1 || audiences != 1 {
		t.Fatalf("left profiles=%d audiences=%d, want 1/1", profiles, audiences)
	}

	platforms, err = repo.DeleteByAccount(ctx, "acc")
	if err != nil || len(platforms) != 0 {
		t.Fatalf("second delete = %v, %v", platforms, err)
	}
}

func TestCountsAndLatestUpdate(t *testing.T) {
	repo := NewProfileCacheRepo(newTestDB(t))
	ctx := context.Background()

	latest, err := repo.LatestUpdate(ctx)
	if err != nil || latest != nil {
		t.Fatalf("LatestUpdate on empty table = %v, %v", latest, err)
	}

	seed(t, repo, newProfile("old", model.PlatformInstagram, baseTime.Add(-30*24*time.Hour), model.DefaultCacheTTL, 0))
	seed(t, repo, newProfile("new", model.PlatformInstagram, baseTime, model.DefaultCacheTTL, 0))

	total, err := repo.CountAll(ctx)
	if err != nil || total != 2 {
		t.Fatalf("CountAll = %d, %v", total, err)
	}
	expired, err := repo.CountExpired(ctx, baseTime)
	if err != nil || expired != 1 {
		t.Fatalf("CountExpired = %d, %v", expired, err)
	}
	latest, err = repo.LatestUpdate(ctx)
	if err != nil || latest == nil || !latest.Equal(baseTime) {
		t.Fatalf("LatestUpdate = %v, %v", latest, err)
	}
}
