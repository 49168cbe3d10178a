package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/database"
	"github.com/techstridesocial/ss-sub002/internal/pkg/provider"
	"github.com/techstridesocial/ss-sub002/internal/pkg/redis"
	"github.com/techstridesocial/ss-sub002/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var baseTime = time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	reports map[string]*provider.Report
	errs    map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		reports: make(map[string]*provider.Report),
		errs:    make(map[string]error),
	}
}

func (f *fakeFetcher) FetchReport(_ context.Context, externalUserID string, platform model.Platform) (*provider.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[externalUserID]; ok {
		return nil, err
	}
	if report, ok := f.reports[externalUserID]; ok {
		return report, nil
	}
	return sampleReport(externalUserID, platform, 1000), nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sampleReport(userID string, platform model.Platform, followers int64) *provider.Report {
	stats := model.PlatformStats{Platform: platform}
	if platform == model.PlatformTikTok {
		stats.TikTok = &model.TikTokStats{AvgShares: 12, TotalLikes: 900}
	}
	return &provider.Report{
		Profile: &provider.ProfileSection{
			UserID:         userID,
			Username:       "user-" + userID,
			Followers:      followers,
			EngagementRate: 0.05,
			Hashtags:       model.TagStats{{Tag: "food", Weight: 0.3}},
		},
		Audience: &provider.AudienceSection{
			CredibilityScore: 0.8,
			Genders:          model.Distribution{{Code: "FEMALE", Weight: 0.55}},
		},
		Stats: stats,
	}
}

type testEnv struct {
	db        *gorm.DB
	clock     *clockwork.FakeClock
	cfg       config.ProfileCacheConfig
	fetcher   *fakeFetcher
	cacheRepo repository.ProfileCacheRepo
	logRepo   repository.CacheUpdateLogRepo
	populator ProfilePopulator
	cacheSvc  ProfileCacheService
	evaluator FreshnessEvaluator
}

func newTestEnv(t *testing.T, cfg config.ProfileCacheConfig) *testEnv {
	t.Helper()
	db := newTestDB(t)
	clock := clockwork.NewFakeClockAt(baseTime)
	fetcher := newFakeFetcher()
	cacheRepo := repository.NewProfileCacheRepo(db)
	logRepo := repository.NewCacheUpdateLogRepo(db)
	return &testEnv{
		db:        db,
		clock:     clock,
		cfg:       cfg,
		fetcher:   fetcher,
		cacheRepo: cacheRepo,
		logRepo:   logRepo,
		populator: NewProfilePopulator(fetcher, cacheRepo, logRepo, clock, cfg),
		cacheSvc:  NewProfileCacheService(cacheRepo, logRepo, clock, cfg),
		evaluator: NewFreshnessEvaluator(cacheRepo, clock, cfg),
	}
}

func (e *testEnv) count(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (e *testEnv) logs(t *testing.T) []model.CacheUpdateLog {
	t.Helper()
	var list []model.CacheUpdateLog
	if err := e.db.Order("id ASC").Find(&list).Error; err != nil {
		t.Fatalf("list logs: %v", err)
	}
	return list
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
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

// useMiniRedis 将全局 redis 客户端指向 miniredis，测试结束后恢复为未启用
func useMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	redis.Rdb = client
	t.Cleanup(func() {
		redis.Rdb = nil
		_ = client.Close()
	})
	return mr
}
