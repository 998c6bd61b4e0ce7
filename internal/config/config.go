package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	MySQL       MySQLConfig       `mapstructure:"mysql"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Business    BusinessConfig    `mapstructure:"business"`
	Progression ProgressionConfig `mapstructure:"progression"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	MarketLog string `mapstructure:"market_log"`
	GameLog   string `mapstructure:"game_log"`
}

// BusinessConfig 记账引擎运行参数
type BusinessConfig struct {
	MaxRetryCount       int `mapstructure:"max_retry_count"`            // 乐观锁冲突的最大重试次数
	RetryBackoffMs      int `mapstructure:"retry_backoff_ms"`           // 重试退避基数（毫秒，线性递增）
	LockTTLSeconds      int `mapstructure:"lock_ttl_seconds"`           // 角色锁过期时间
	CatalogCacheSeconds int `mapstructure:"catalog_cache_seconds"`      // 物品目录缓存时间
	ReconcileIntervalS  int `mapstructure:"reconcile_interval_seconds"` // 对账任务扫描间隔
}

// ProgressionConfig 等级/经验/初始金币成长表
//
// 成长表在进程启动时加载并校验一次，校验失败直接退出，
// 不允许拖到请求处理阶段才暴露配置错误。
type ProgressionConfig struct {
	StartingLevel int              `mapstructure:"starting_level"` // 新角色默认等级
	MaxLevel      int              `mapstructure:"max_level"`
	XPThresholds  []int64          `mapstructure:"xp_thresholds"` // 升到 2 级、3 级……所需累计经验，严格递增
	GoldTiers     []GoldTierConfig `mapstructure:"gold_tiers"`
}

// GoldTierConfig 初始金币分段：从 FromLevel 起每级累加 GoldPerLevel
type GoldTierConfig struct {
	FromLevel    int   `mapstructure:"from_level"`
	GoldPerLevel int64 `mapstructure:"gold_per_level"`
}

var GlobalConfig *Config

// LoadConfig 加载配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	GlobalConfig = config
	return config
}
