package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_lifetime", 30)
	v.SetDefault("provider.timeout", 30)
	v.SetDefault("profile_cache.ttl_hours", 28*24)
	v.SetDefault("profile_cache.batch_size", 10)
	v.SetDefault("profile_cache.delay_ms", 500)
	v.SetDefault("profile_cache.priority_threshold", 75)
	v.SetDefault("profile_cache.expiry_window_hours", 24)
	v.SetDefault("profile_cache.cron", "0 0 3 * * 1")
	v.SetDefault("profile_cache.read_mode", ReadModeLazy)
	v.SetDefault("profile_cache.snapshot_cache_seconds", 300)
	v.SetDefault("profile_cache.lock_seconds", 120)
	v.SetDefault("kafka_account_consumer.table", "social_accounts")
}

const (
	ReadModeLazy   = "lazy"
	ReadModeStrict = "strict"
)

func (c ProfileCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

func (c ProfileCacheConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

func (c ProfileCacheConfig) ExpiryWindow() time.Duration {
	return time.Duration(c.ExpiryWindowHours) * time.Hour
}

func (c ProfileCacheConfig) SnapshotCacheTTL() time.Duration {
	return time.Duration(c.SnapshotCacheSeconds) * time.Second
}

func (c ProfileCacheConfig) LockTTL() time.Duration {
	return time.Duration(c.LockSeconds) * time.Second
}

// DefaultProfileCacheConfig 与 setDefaults 保持一致，供测试和未加载配置时使用
func DefaultProfileCacheConfig() ProfileCacheConfig {
	return ProfileCacheConfig{
		TTLHours:             28 * 24,
		BatchSize:            10,
		DelayMs:              500,
		PriorityThreshold:    75,
		ExpiryWindowHours:    24,
		Cron:                 "0 0 3 * * 1",
		ReadMode:             ReadModeLazy,
		SnapshotCacheSeconds: 300,
		LockSeconds:          120,
	}
}
