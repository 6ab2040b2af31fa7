// Copyright (c) SocialForge Authors.
// Licensed under the MIT License.

/*
Package main 提供 SocialForge 服务端程序入口。

# 概述

cmd/socialforge 是 SocialForge 的可执行入口，提供 HTTP API 服务、
命令行一次性生成、平台列表、健康检查和版本查询等子命令。程序支持
YAML 配置文件加载、结构化日志（zap）、Prometheus 指标采集以及
OpenTelemetry 追踪。

# 核心类型

  - Server     — 主服务器，装配生成管线、注册路由并管理优雅关闭
  - pipeline   — provider → client → controller → runner 的依赖装配
  - Middleware — HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve（启动服务）、generate（命令行生成）、schemas、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    MetricsMiddleware、OTelTracing
  - 可选依赖按配置降级：redis 不可用时关闭分析缓存，sqlite 不可用时
    关闭任务历史
*/
package main
