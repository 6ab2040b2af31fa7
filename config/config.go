// =============================================================================
// 📦 SocialForge 配置结构
// =============================================================================
// 统一配置定义，默认值见 DefaultConfig，加载见 loader.go
// =============================================================================
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/socialforge/types"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 SocialForge 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Provider 上游模型配置
	Provider ProviderConfig `yaml:"provider" env:"PROVIDER"`

	// Controller 重试控制配置
	Controller ControllerConfig `yaml:"controller" env:"CONTROLLER"`

	// Runner 多平台并发配置
	Runner RunnerConfig `yaml:"runner" env:"RUNNER"`

	// Schemas 自定义平台描述文件
	Schemas SchemasConfig `yaml:"schemas" env:"SCHEMAS"`

	// Redis 分析缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Store 任务历史配置
	Store StoreConfig `yaml:"store" env:"STORE"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// 监听地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 空闲超时
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 上传大小上限（字节）
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
}

// ProviderConfig 上游模型配置
type ProviderConfig struct {
	// 默认 Provider: gemini, openai
	Default string `yaml:"default" env:"DEFAULT"`
	// Gemini 配置
	Gemini UpstreamConfig `yaml:"gemini" env:"GEMINI"`
	// OpenAI 配置
	OpenAI UpstreamConfig `yaml:"openai" env:"OPENAI"`
}

// UpstreamConfig 单个上游的连接配置
type UpstreamConfig struct {
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 基础 URL（可选）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// ControllerConfig 重试控制配置
type ControllerConfig struct {
	// 总尝试次数上限（含首次）
	MaxAttempts int `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	// 首次尝试温度
	FirstTemperature float32 `yaml:"first_temperature" env:"FIRST_TEMPERATURE"`
	// 重试温度
	RetryTemperature float32 `yaml:"retry_temperature" env:"RETRY_TEMPERATURE"`
	// 是否开启校验前的机械前缀修复
	NormalizeRepairs bool `yaml:"normalize_repairs" env:"NORMALIZE_REPAIRS"`
	// 图片分析缓存过期时间
	AnalysisTTL time.Duration `yaml:"analysis_ttl" env:"ANALYSIS_TTL"`
}

// RunnerConfig 多平台并发配置
type RunnerConfig struct {
	// 并发上限
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
	// 任务启动速率（每秒，0 不限）
	RatePerSecond float64 `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
}

// SchemasConfig 自定义平台描述文件
type SchemasConfig struct {
	// YAML 描述文件路径（可选，覆盖/补充内置平台）
	Path string `yaml:"path" env:"PATH"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否启用分析缓存
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// 默认过期时间
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
}

// StoreConfig 任务历史配置
type StoreConfig struct {
	// 是否启用落库
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// sqlite 文件路径
	Path string `yaml:"path" env:"PATH"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Prometheus namespace
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// =============================================================================
// 🧩 默认值
// =============================================================================

// DefaultConfig 返回带默认值的配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  16 << 20, // 16 MB
		},
		Provider: ProviderConfig{
			Default: "gemini",
			Gemini: UpstreamConfig{
				Model:   "gemini-2.0-flash",
				Timeout: 60 * time.Second,
			},
			OpenAI: UpstreamConfig{
				Model:   "gpt-4o",
				Timeout: 60 * time.Second,
			},
		},
		Controller: ControllerConfig{
			MaxAttempts:      3,
			FirstTemperature: 0.7,
			RetryTemperature: 0.4,
			NormalizeRepairs: true,
			AnalysisTTL:      24 * time.Hour,
		},
		Runner: RunnerConfig{
			Concurrency:   3,
			RatePerSecond: 0,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			PoolSize:     10,
			MinIdleConns: 2,
			DefaultTTL:   24 * time.Hour,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "socialforge.db",
		},
		Log: LogConfig{
			Level:        "info",
			Format:       "json",
			OutputPaths:  []string{"stdout"},
			EnableCaller: false,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "socialforge",
			SampleRate:   1.0,
		},
		Metrics: MetricsConfig{
			Namespace: "socialforge",
		},
	}
}

// =============================================================================
// 🔍 校验
// =============================================================================

// Validate 校验配置。配置错误必须在任何外部调用发生前拦下。
func (c *Config) Validate() error {
	var errs []string

	switch c.Provider.Default {
	case "gemini":
		if strings.TrimSpace(c.Provider.Gemini.APIKey) == "" {
			return types.NewError(types.ErrMissingCredentials, "gemini api key is not set")
		}
	case "openai":
		if strings.TrimSpace(c.Provider.OpenAI.APIKey) == "" {
			return types.NewError(types.ErrMissingCredentials, "openai api key is not set")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown default provider %q", c.Provider.Default))
	}

	if c.Controller.MaxAttempts <= 0 {
		errs = append(errs, "max_attempts must be positive")
	}
	if c.Controller.FirstTemperature < 0 || c.Controller.FirstTemperature > 2 {
		errs = append(errs, "first_temperature must be in [0,2]")
	}
	if c.Controller.RetryTemperature < 0 || c.Controller.RetryTemperature > 2 {
		errs = append(errs, "retry_temperature must be in [0,2]")
	}
	if c.Runner.Concurrency <= 0 {
		errs = append(errs, "concurrency must be positive")
	}
	if c.Server.Addr == "" {
		errs = append(errs, "server addr must not be empty")
	}
	if c.Store.Enabled && c.Store.Path == "" {
		errs = append(errs, "store path must not be empty when store is enabled")
	}

	if len(errs) > 0 {
		return types.NewError(types.ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
