// =============================================================================
// SocialForge 主入口
// =============================================================================
// 图生文案服务入口点，包含 HTTP 服务、健康检查、Prometheus 指标
//
// 使用方法:
//
//	socialforge serve                       # 启动服务
//	socialforge serve --config config.yaml  # 指定配置文件
//	socialforge generate --image a.png --schemas x,instagram  # 命令行一次性生成
//	socialforge schemas                     # 列出已注册平台
//	socialforge version                     # 显示版本信息
//	socialforge health                      # 健康检查
//
// =============================================================================
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/socialforge/config"
	"github.com/BaSui01/socialforge/controller"
	"github.com/BaSui01/socialforge/internal/cache"
	"github.com/BaSui01/socialforge/internal/telemetry"
	"github.com/BaSui01/socialforge/llm"
	llmfactory "github.com/BaSui01/socialforge/llm/factory"
	"github.com/BaSui01/socialforge/llm/providers"
	"github.com/BaSui01/socialforge/media"
	"github.com/BaSui01/socialforge/schema"
	"github.com/BaSui01/socialforge/store"
	"github.com/BaSui01/socialforge/types"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "generate":
		runGenerate(os.Args[2:])
	case "schemas":
		runSchemas(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting SocialForge",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Initialize OpenTelemetry
	otelProviders, err := telemetry.Init(telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		SampleRate:   cfg.Telemetry.SampleRate,
	}, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	server := NewServer(cfg, logger)

	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	server.WaitForShutdown()

	if otelProviders != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProviders.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown error", zap.Error(err))
		}
	}

	logger.Info("SocialForge stopped")
}

// =============================================================================
// ✨ generate 命令（命令行一次性生成）
// =============================================================================

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	imagePath := fs.String("image", "", "Path to product image (png/jpeg/gif)")
	schemaList := fs.String("schemas", "", "Comma-separated platform schema names")
	userContext := fs.String("context", "", "Additional business context")
	fs.Parse(args)

	if *schemaList == "" {
		fmt.Fprintln(os.Stderr, "generate: --schemas is required")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	deps, err := buildPipeline(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	image, err := loadImage(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}

	var schemas []string
	for _, name := range strings.Split(*schemaList, ",") {
		if name = strings.TrimSpace(name); name != "" {
			schemas = append(schemas, name)
		}
	}

	results, err := deps.Runner.RunAll(context.Background(), image, *userContext, schemas)
	if err != nil && results == nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(out))

	if err != nil {
		// 部分平台失败：结果已输出，退出码提示调用方检查 status
		os.Exit(2)
	}
}

func loadImage(path string) (types.ImagePayload, error) {
	if path == "" {
		return types.ImagePayload{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ImagePayload{}, err
	}
	return media.Prepare(data)
}

// =============================================================================
// 🗂️ schemas 命令
// =============================================================================

func runSchemas(args []string) {
	fs := flag.NewFlagSet("schemas", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	registry := schema.Builtin()
	if *configPath != "" {
		cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
		if err == nil && cfg.Schemas.Path != "" {
			if merged, loadErr := registry.LoadFile(cfg.Schemas.Path); loadErr == nil {
				registry = merged
			}
		}
	}

	for _, name := range registry.Names() {
		d, err := registry.Get(name)
		if err != nil {
			continue
		}
		fmt.Printf("%-12s %s (%d fields)\n", name, d.Title, len(d.Fields))
	}
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("OK")
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("SocialForge %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`SocialForge - Image-to-copy generation service

Usage:
  socialforge <command> [options]

Commands:
  serve     Start the SocialForge server
  generate  Generate platform copy for an image from the command line
  schemas   List registered platform schemas
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve':
  --config <path>   Path to configuration file (YAML)

Options for 'generate':
  --config <path>    Path to configuration file (YAML)
  --image <path>     Product image file (png/jpeg/gif)
  --schemas <names>  Comma-separated platform names (e.g. x,instagram)
  --context <text>   Additional business context for the prompt

Examples:
  socialforge serve
  socialforge serve --config /etc/socialforge/config.yaml
  socialforge generate --image product.png --schemas instagram,x
  socialforge health --addr http://localhost:8080
  socialforge version`)
}

// =============================================================================
// 🔧 配置与日志初始化
// =============================================================================

func loadConfig(path string) *config.Config {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}

// =============================================================================
// 🧩 管线装配（serve 与 generate 共用）
// =============================================================================

// pipeline 聚合一次生成所需的全部依赖
type pipeline struct {
	Registry *schema.Registry
	Client   *llm.Client
	Ctrl     *controller.Controller
	Runner   *controller.Runner

	cacheManager *cache.Manager
	jobStore     *store.Store
}

// buildPipeline 按配置装配 provider → client → controller → runner
func buildPipeline(cfg *config.Config, logger *zap.Logger, extra ...controller.Option) (*pipeline, error) {
	provider, err := llmfactory.New(cfg.Provider.Default, llmfactory.Options{
		Gemini: providers.GeminiConfig{
			APIKey:  cfg.Provider.Gemini.APIKey,
			Model:   cfg.Provider.Gemini.Model,
			BaseURL: cfg.Provider.Gemini.BaseURL,
			Timeout: cfg.Provider.Gemini.Timeout,
		},
		OpenAI: providers.OpenAIConfig{
			APIKey:  cfg.Provider.OpenAI.APIKey,
			Model:   cfg.Provider.OpenAI.Model,
			BaseURL: cfg.Provider.OpenAI.BaseURL,
			Timeout: cfg.Provider.OpenAI.Timeout,
		},
	}, logger)
	if err != nil {
		return nil, err
	}

	registry := schema.Builtin()
	if cfg.Schemas.Path != "" {
		registry, err = registry.LoadFile(cfg.Schemas.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("Custom schemas loaded", zap.String("path", cfg.Schemas.Path))
	}

	client := llm.NewClient(provider, logger)

	ctrlCfg := controller.Config{
		MaxAttempts:      cfg.Controller.MaxAttempts,
		FirstTemperature: cfg.Controller.FirstTemperature,
		RetryTemperature: cfg.Controller.RetryTemperature,
		NormalizeRepairs: cfg.Controller.NormalizeRepairs,
		AnalysisTTL:      cfg.Controller.AnalysisTTL,
	}

	opts := append([]controller.Option{}, extra...)
	p := &pipeline{Registry: registry, Client: client}

	if cfg.Redis.Enabled {
		manager, cacheErr := cache.NewManager(cache.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DefaultTTL:   cfg.Redis.DefaultTTL,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis not available, analysis cache disabled", zap.Error(cacheErr))
		} else {
			p.cacheManager = manager
			opts = append(opts, controller.WithCache(manager))
		}
	}

	if cfg.Store.Enabled {
		jobStore, storeErr := store.Open(cfg.Store.Path, logger)
		if storeErr != nil {
			logger.Warn("Job store not available, history disabled", zap.Error(storeErr))
		} else {
			p.jobStore = jobStore
			opts = append(opts, controller.WithStore(jobStore))
		}
	}

	p.Ctrl = controller.New(client, registry, ctrlCfg, logger, opts...)
	p.Runner = controller.NewRunner(p.Ctrl, controller.RunnerConfig{
		Concurrency:   cfg.Runner.Concurrency,
		RatePerSecond: cfg.Runner.RatePerSecond,
	}, logger)

	return p, nil
}

// Close 释放管线持有的外部连接
func (p *pipeline) Close() {
	if p.cacheManager != nil {
		_ = p.cacheManager.Close()
	}
	if p.jobStore != nil {
		_ = p.jobStore.Close()
	}
}

// Store 返回任务历史存储，未启用时为 nil
func (p *pipeline) Store() *store.Store { return p.jobStore }

// Cache 返回分析缓存，未启用时为 nil
func (p *pipeline) Cache() *cache.Manager { return p.cacheManager }
