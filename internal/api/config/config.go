package config

// Config 配置主体
type Config struct {
	Server               ServerConfig         `mapstructure:"server"`
	DB                   DBConfig             `mapstructure:"database"`
	Redis                RedisConfig          `mapstructure:"redis"`
	Mongo                MongoConfig          `mapstructure:"mongo"`
	Logstash             LogstashConfig       `mapstructure:"logstash"`
	Provider             ProviderConfig       `mapstructure:"provider"`
	ProfileCache         ProfileCacheConfig   `mapstructure:"profile_cache"`
	Kafka                KafkaConfig          `mapstructure:"kafka"`
	KafkaAccountConsumer KafkaAccountConsumer `mapstructure:"kafka_account_consumer"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig 为空地址时不启用 redis，快照读缓存和 populate 锁随之关闭
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// ProviderConfig 外部画像报告服务
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	ApiKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // 秒
}

// ProfileCacheConfig 缓存与刷新任务参数
type ProfileCacheConfig struct {
	TTLHours             int    `mapstructure:"ttl_hours"`
	BatchSize            int    `mapstructure:"batch_size"`
	DelayMs              int    `mapstructure:"delay_ms"`
	PriorityThreshold    int    `mapstructure:"priority_threshold"`
	ExpiryWindowHours    int    `mapstructure:"expiry_window_hours"`
	Cron                 string `mapstructure:"cron"`
	UrgentCron           string `mapstructure:"urgent_cron"`
	ReadMode             string `mapstructure:"read_mode"` // lazy | strict
	SnapshotCacheSeconds int    `mapstructure:"snapshot_cache_seconds"`
	LockSeconds          int    `mapstructure:"lock_seconds"`
	DefaultPriority      int    `mapstructure:"default_priority"`
}

type KafkaConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaAccountConsumer canal 推送的社交账号表变更
type KafkaAccountConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
	Table   string `mapstructure:"table"`
}
