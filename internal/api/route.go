package api

import (
	"net/http"

	"github.com/techstridesocial/ss-sub002/internal/api/middleware"
	"github.com/techstridesocial/ss-sub002/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		cacheGroup := apiGroup.Group("/profile-cache")
		{
			cacheGroup.GET("/stats", group.ProfileCacheHandler.GetCacheStats)
			cacheGroup.GET("/candidates", group.ProfileCacheHandler.GetCandidates)
			cacheGroup.GET("/urgent", group.ProfileCacheHandler.CheckUrgent)
			cacheGroup.GET("/logs", group.ProfileCacheHandler.ListUpdateLogs)
			cacheGroup.POST("/populate", group.ProfileCacheHandler.Populate)
			cacheGroup.POST("/jobs/run", group.ProfileCacheHandler.TriggerJob)
			cacheGroup.GET("/jobs/recent", group.ProfileCacheHandler.ListRecentJobs)

			cacheGroup.GET("/:platform/:account_ref", group.ProfileCacheHandler.GetCachedProfile)
			cacheGroup.PUT("/:platform/:account_ref/priority", group.ProfileCacheHandler.SetUpdatePriority)
		}
	}

	return r
}
