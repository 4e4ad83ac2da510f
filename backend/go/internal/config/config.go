package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	MySQL MySQLConfig `yaml:"mysql"` // MySQL 数据库配置
	Redis RedisConfig `yaml:"redis"` // Redis 数据库配置
}

// AuthConfig 用于配置认证方法和相关设置。
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"` // JWT 密钥
	TokenTTL  int    `yaml:"tokenTTL"`  // JWT 令牌的有效期（秒）
}

// PerplexityConfig 包含了 Perplexity AI 分析服务的配置。
// Perplexity 的 chat completions 接口兼容 OpenAI 协议。
type PerplexityConfig struct {
	APIKey         string `yaml:"apiKey"`         // API 密钥
	BaseURL        string `yaml:"baseURL"`        // 接口地址 (例如: "https://api.perplexity.ai")
	Model          string `yaml:"model"`          // 模型名称 (例如: "sonar")
	TimeoutSeconds int    `yaml:"timeoutSeconds"` // 单次调用超时（秒）
}

// AIConfig 包含了不同 AI 分析提供商的配置。
type AIConfig struct {
	Provider   string           `yaml:"provider"`   // AI 提供商 (目前支持: "perplexity")
	Perplexity PerplexityConfig `yaml:"perplexity"` // Perplexity 配置
}

// DispatchConfig 定义了任务分发与诊断流水线的调优参数。
type DispatchConfig struct {
	LongPollSeconds  int      `yaml:"longPollSeconds"`  // 采集 Agent 长轮询的最大等待时间（秒）
	TriageEventLimit int      `yaml:"triageEventLimit"` // 提交给初步诊断的最近事件条数
	FallbackLogs     []string `yaml:"fallbackLogs"`     // 初步诊断失败时兜底请求的日志文件列表
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "fixedWindow", "tokenBucket"
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address string `yaml:"address"` // 监听地址 (例如: ":8080")
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Server     ServerConfig     `yaml:"server"`     // HTTP 服务配置
	Auth       AuthConfig       `yaml:"auth"`       // 认证配置
	AI         AIConfig         `yaml:"ai"`         // AI 分析服务配置
	Dispatch   DispatchConfig   `yaml:"dispatch"`   // 任务分发配置
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	Databases  DatabaseConfigs  `yaml:"databases"`  // 数据库配置
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig // 声明一个AppConfig变量用于存储解析后的配置。
	// 将 YAML 内容解析到 cfg 结构体中。
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil // 返回解析后的配置和nil错误。
}

// applyDefaults 为未配置的调优参数填充默认值。
func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Dispatch.LongPollSeconds <= 0 {
		cfg.Dispatch.LongPollSeconds = 25
	}
	if cfg.Dispatch.TriageEventLimit <= 0 {
		cfg.Dispatch.TriageEventLimit = 10
	}
	if len(cfg.Dispatch.FallbackLogs) == 0 {
		cfg.Dispatch.FallbackLogs = []string{"JobManager.log"}
	}
	if cfg.AI.Perplexity.BaseURL == "" {
		cfg.AI.Perplexity.BaseURL = "https://api.perplexity.ai"
	}
	if cfg.AI.Perplexity.Model == "" {
		cfg.AI.Perplexity.Model = "sonar"
	}
	if cfg.AI.Perplexity.TimeoutSeconds <= 0 {
		cfg.AI.Perplexity.TimeoutSeconds = 60
	}
}
