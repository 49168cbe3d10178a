package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/techstridesocial/ss-sub002/internal/api/dto"
	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/mongo"
	"github.com/techstridesocial/ss-sub002/internal/pkg/response"
	"github.com/techstridesocial/ss-sub002/internal/pkg/util"
	"github.com/techstridesocial/ss-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// CacheJobRunner 刷新任务的手动入口
type CacheJobRunner interface {
	TriggerManualUpdate(ctx context.Context, reason string) *model.CacheJobResult
	CheckUrgentUpdates(ctx context.Context) (bool, error)
}

type ProfileCacheHandler struct {
	cacheSvc  service.ProfileCacheService
	populator service.ProfilePopulator
	evaluator service.FreshnessEvaluator
	jobRunner CacheJobRunner
	jobRuns   mongo.CacheJobRunRepo
	batchSize int
}

func NewProfileCacheHandler(
	cacheSvc service.ProfileCacheService,
	populator service.ProfilePopulator,
	evaluator service.FreshnessEvaluator,
	jobRunner CacheJobRunner,
	jobRuns mongo.CacheJobRunRepo,
	batchSize int,
) *ProfileCacheHandler {
	return &ProfileCacheHandler{
		cacheSvc:  cacheSvc,
		populator: populator,
		evaluator: evaluator,
		jobRunner: jobRunner,
		jobRuns:   jobRuns,
		batchSize: batchSize,
	}
}

// GetCachedProfile 获取缓存的画像快照
func (s *ProfileCacheHandler) GetCachedProfile(c *gin.Context) {
	profile, err := s.cacheSvc.GetCachedProfile(c.Request.Context(), c.Param("account_ref"), c.Param("platform"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if profile == nil {
		response.Error(c, service.ErrProfileCacheNotFound)
		return
	}
	response.Success(c, profile)
}

// SetUpdatePriority 修改刷新优先级
func (s *ProfileCacheHandler) SetUpdatePriority(c *gin.Context) {
	var priorityDTO dto.PriorityDTO
	if err := c.ShouldBindJSON(&priorityDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&priorityDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	err := s.cacheSvc.SetUpdatePriority(c.Request.Context(), c.Param("account_ref"), c.Param("platform"), *priorityDTO.Priority)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Populate 按需拉取报告
func (s *ProfileCacheHandler) Populate(c *gin.Context) {
	var populateDTO dto.PopulateDTO
	if err := c.ShouldBindJSON(&populateDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&populateDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	req := service.PopulateRequest{
		SourceAccountRef: strings.TrimSpace(populateDTO.SourceAccountRef),
		ExternalUserID:   strings.TrimSpace(populateDTO.ExternalUserID),
		Platform:         populateDTO.Platform,
		UpdateType:       model.UpdateTypeManual,
		Reason:           util.FirstNonEmpty(populateDTO.Reason, "on-demand populate"),
	}
	if populateDTO.Priority != nil {
		req.Priority = *populateDTO.Priority
	}

	res := s.populator.Populate(c.Request.Context(), req)
	if !res.Success {
		response.Error(c, res.Err)
		return
	}
	response.Success(c, res)
}

func (s *ProfileCacheHandler) GetCacheStats(c *gin.Context) {
	stats, err := s.cacheSvc.GetCacheStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// GetCandidates 预览下一轮任务会刷新的条目
func (s *ProfileCacheHandler) GetCandidates(c *gin.Context) {
	limit := queryLimit(c, s.batchSize)
	keys, err := s.evaluator.SelectCandidates(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, keys)
}

func (s *ProfileCacheHandler) CheckUrgent(c *gin.Context) {
	urgent, err := s.jobRunner.CheckUrgentUpdates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"urgent": urgent})
}

// TriggerJob 同步执行一轮手动刷新
func (s *ProfileCacheHandler) TriggerJob(c *gin.Context) {
	var triggerDTO dto.TriggerJobDTO
	if err := c.ShouldBindJSON(&triggerDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&triggerDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	result := s.jobRunner.TriggerManualUpdate(c.Request.Context(), triggerDTO.Reason)
	response.Success(c, result)
}

func (s *ProfileCacheHandler) ListRecentJobs(c *gin.Context) {
	if s.jobRuns == nil {
		response.Success(c, []*mongo.CacheJobRun{})
		return
	}
	list, err := s.jobRuns.ListRecent(c.Request.Context(), int64(queryLimit(c, defaultListLimit)))
	if err != nil {
		response.Error(c, &service.OperationalError{Op: "list job runs", Err: err})
		return
	}
	response.Success(c, list)
}

func (s *ProfileCacheHandler) ListUpdateLogs(c *gin.Context) {
	list, err := s.cacheSvc.ListUpdateLogs(c.Request.Context(), queryLimit(c, defaultListLimit))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

func queryLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
