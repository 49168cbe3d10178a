package wire

import (
	"github.com/techstridesocial/ss-sub002/internal/api"
	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/api/handler"
	"github.com/techstridesocial/ss-sub002/internal/job"
	"github.com/techstridesocial/ss-sub002/internal/pkg/cron"
	"github.com/techstridesocial/ss-sub002/internal/pkg/kafka"
	pkgmongo "github.com/techstridesocial/ss-sub002/internal/pkg/mongo"
	"github.com/techstridesocial/ss-sub002/internal/pkg/provider"
	"github.com/techstridesocial/ss-sub002/internal/repository"
	"github.com/techstridesocial/ss-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager
}

// BuildApplication mongoDB 为 nil 时不记录任务历史；kafka 未启用时 KafkaManager 为 nil
func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	clock := clockwork.NewRealClock()
	cacheCfg := cfg.ProfileCache

	profileCacheRepo := repository.NewProfileCacheRepo(db)
	cacheUpdateLogRepo := repository.NewCacheUpdateLogRepo(db)

	var jobRunRepo pkgmongo.CacheJobRunRepo
	var recorder job.JobRunRecorder
	if mongoDB != nil {
		jobRunRepo = pkgmongo.NewCacheJobRunRepo(mongoDB)
		recorder = jobRunRepo
	}

	reportClient := provider.NewClient(cfg.Provider)

	populator := service.NewProfilePopulator(reportClient, profileCacheRepo, cacheUpdateLogRepo, clock, cacheCfg)
	evaluator := service.NewFreshnessEvaluator(profileCacheRepo, clock, cacheCfg)
	profileCacheService := service.NewProfileCacheService(profileCacheRepo, cacheUpdateLogRepo, clock, cacheCfg)

	profileCacheJob := job.NewProfileCacheJob(populator, evaluator, profileCacheService, recorder, clock, cacheCfg)
	profileCacheUrgentJob := job.NewProfileCacheUrgentJob(profileCacheJob)
	cronMgr := cron.NewCronManager(cacheCfg, profileCacheJob, profileCacheUrgentJob)

	handlers := &api.HandlersGroup{
		ProfileCacheHandler: handler.NewProfileCacheHandler(
			profileCacheService, populator, evaluator, profileCacheJob, jobRunRepo, cacheCfg.BatchSize,
		),
	}
	router := api.SetupRouter(handlers)

	var kafkaMgr *kafka.ConsumerManager
	if cfg.Kafka.Enable {
		var err error
		kafkaMgr, err = kafka.NewConsumerManager(cfg, populator, profileCacheService)
		if err != nil {
			return nil, err
		}
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		CronMgr:      cronMgr,
		KafkaManager: kafkaMgr,
	}, nil
}
