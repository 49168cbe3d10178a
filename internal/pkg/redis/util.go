package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetWithExpiration 设置键值对并设置过期时间
func SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return Rdb.Set(ctx, key, value, expiration).Err()
}

// GetValue 获取字符串类型的值
func GetValue(ctx context.Context, key string) (string, error) {
	value, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// TryLock 尝试加锁，retryTimes 为 -1 时一直重试
func TryLock(ctx context.Context, key string, value interface{}, expiration time.Duration, retryTimes int) (bool, error) {
	for i := 0; i < retryTimes || retryTimes == -1; i++ {
		success, err := Rdb.SetNX(ctx, key, value, expiration).Result()
		if err != nil {
			return false, err
		}
		if success {
			return true, nil
		}
		if i+1 == retryTimes {
			break
		}
		time.Sleep(time.Millisecond * 200)
	}
	return false, nil
}

// UnLock 释放锁
func UnLock(ctx context.Context, key string, value interface{}) {
	Rdb.Eval(ctx, "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end", []string{key}, value)
}

// IncrWithExpiration 递增计数并刷新过期时间
func IncrWithExpiration(ctx context.Context, key string, expiration time.Duration) error {
	_, err := Rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, expiration)
		return nil
	})
	return err
}

// SetIfUnchanged 仅当 guardKey 的值仍为 guard 时写入，guardKey 被并发修改则放弃
func SetIfUnchanged(ctx context.Context, guardKey string, guard string, key string, value interface{}, expiration time.Duration) (bool, error) {
	written := false
	err := Rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, guardKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != guard {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, expiration)
			return nil
		})
		if err != nil {
			return err
		}
		written = true
		return nil
	}, guardKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return written, err
}

// DeleteKey 删除一个键
func DeleteKey(ctx context.Context, key string) error {
	return Rdb.Del(ctx, key).Err()
}
