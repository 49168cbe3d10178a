package service

import (
	"context"

	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/repository"

	"github.com/jonboulle/clockwork"
)

// FreshnessEvaluator 只读，挑选最需要刷新的条目
type FreshnessEvaluator interface {
	SelectCandidates(ctx context.Context, limit int) ([]model.CacheKey, error)
}

type freshnessEvaluatorImpl struct {
	cacheRepo repository.ProfileCacheRepo
	clock     clockwork.Clock
	cfg       config.ProfileCacheConfig
}

func NewFreshnessEvaluator(cacheRepo repository.ProfileCacheRepo, clock clockwork.Clock, cfg config.ProfileCacheConfig) FreshnessEvaluator {
	return &freshnessEvaluatorImpl{
		cacheRepo: cacheRepo,
		clock:     clock,
		cfg:       cfg,
	}
}

// SelectCandidates 条件：window 内过期或优先级高于阈值
func (s *freshnessEvaluatorImpl) SelectCandidates(ctx context.Context, limit int) ([]model.CacheKey, error) {
	keys := make([]model.CacheKey, 0)
	if limit <= 0 {
		return keys, nil
	}

	rows, err := s.cacheRepo.SelectCandidates(ctx, s.clock.Now().UTC(), s.cfg.ExpiryWindow(), s.cfg.PriorityThreshold, limit)
	if err != nil {
		return nil, &OperationalError{Op: "select refresh candidates", Err: err}
	}
	for _, row := range rows {
		keys = append(keys, row.Key())
	}
	return keys, nil
}
