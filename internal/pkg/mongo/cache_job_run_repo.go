package mongo

import (
	"context"

	"github.com/techstridesocial/ss-sub002/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CacheJobRunRepo interface {
	SaveRun(ctx context.Context, result *model.CacheJobResult) error
	ListRecent(ctx context.Context, limit int64) ([]*CacheJobRun, error)
}

type cacheJobRunRepoImpl struct {
	col *mongo.Collection
}

func NewCacheJobRunRepo(db *mongo.Database) CacheJobRunRepo {
	return &cacheJobRunRepoImpl{
		col: db.Collection("profile_cache_job_runs"),
	}
}

// SaveRun 插入一条任务执行记录
func (s *cacheJobRunRepoImpl) SaveRun(ctx context.Context, result *model.CacheJobResult) error {
	_, err := s.col.InsertOne(ctx, NewCacheJobRun(result))
	return err
}

// ListRecent 按开始时间倒序获取最近的执行记录
func (s *cacheJobRunRepoImpl) ListRecent(ctx context.Context, limit int64) ([]*CacheJobRun, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*CacheJobRun, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
