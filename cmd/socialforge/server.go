package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/socialforge/api/handlers"
	"github.com/BaSui01/socialforge/config"
	"github.com/BaSui01/socialforge/controller"
	"github.com/BaSui01/socialforge/internal/metrics"
	"github.com/BaSui01/socialforge/internal/server"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 SocialForge 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager *server.Manager

	// 生成管线
	pipeline *pipeline

	// Handlers
	healthHandler   *handlers.HealthHandler
	generateHandler *handlers.GenerateHandler
	jobsHandler     *handlers.JobsHandler
	schemasHandler  *handlers.SchemasHandler

	// 指标收集器
	metricsCollector *metrics.Collector
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector(s.cfg.Metrics.Namespace, s.logger)

	// 2. 初始化管线与 Handlers
	if err := s.initHandlers(); err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	// 3. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.String("addr", s.cfg.Server.Addr),
		zap.String("provider", s.cfg.Provider.Default),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initHandlers 初始化管线和所有 handlers
func (s *Server) initHandlers() error {
	deps, err := buildPipeline(s.cfg, s.logger, controller.WithMetrics(s.metricsCollector))
	if err != nil {
		return err
	}
	s.pipeline = deps

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.generateHandler = handlers.NewGenerateHandler(deps.Runner, s.cfg.Server.MaxUploadBytes, s.logger)
	s.schemasHandler = handlers.NewSchemasHandler(deps.Registry, s.logger)
	if deps.Store() != nil {
		s.jobsHandler = handlers.NewJobsHandler(deps.Store(), s.logger)
	}

	// 就绪检查：上游 provider 必查，redis 仅在启用时检查
	s.healthHandler.RegisterCheck(handlers.CheckFunc{
		CheckName: "provider",
		Fn:        deps.Client.Provider().HealthCheck,
	})
	if deps.Cache() != nil {
		s.healthHandler.RegisterCheck(handlers.CheckFunc{
			CheckName: "redis",
			Fn:        deps.Cache().Ping,
		})
	}

	s.logger.Info("Handlers initialized")
	return nil
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// 健康检查端点
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)

	// Prometheus 指标
	mux.Handle("GET /metrics", promhttp.Handler())

	// API 路由
	mux.HandleFunc("POST /v1/generate", s.generateHandler.HandleGenerate)
	mux.HandleFunc("GET /v1/schemas", s.schemasHandler.HandleList)
	mux.HandleFunc("GET /v1/schemas/{name}", s.schemasHandler.HandleGet)
	if s.jobsHandler != nil {
		mux.HandleFunc("GET /v1/jobs", s.jobsHandler.HandleList)
		mux.HandleFunc("GET /v1/jobs/{id}", s.jobsHandler.HandleGet)
		s.logger.Info("Job history routes registered")
	}

	// 中间件链
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		OTelTracing(s.cfg.Telemetry.Enabled),
	)

	serverConfig := server.Config{
		Addr:            s.cfg.Server.Addr,
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     s.cfg.Server.IdleTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.String("addr", s.httpManager.Addr()))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	// 1. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 2. 释放管线资源（redis、sqlite）
	if s.pipeline != nil {
		s.pipeline.Close()
	}

	s.logger.Info("Graceful shutdown completed")
}
