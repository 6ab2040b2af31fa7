// Copyright (c) SocialForge Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 SocialForge HTTP API 的请求处理器实现。

# 概述

handlers 包实现了 SocialForge 所有 HTTP 端点的请求处理逻辑，
包括图生文案的生成入口、任务历史查询、平台 schema 查询、
健康检查以及统一的响应/错误处理。
所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - GenerateHandler  — 生成入口，接收图片 + 平台列表，扇出到各平台
  - JobsHandler      — 任务历史查询（/v1/jobs, /v1/jobs/{id}）
  - SchemasHandler   — 平台输出约束查询（/v1/schemas）
  - HealthHandler    — 服务健康检查（/health, /ready）
  - Response         — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo        — 结构化错误信息，含 code 与失败类别
  - ResponseWriter   — 包装 http.ResponseWriter 以捕获状态码

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteJSON 辅助函数
  - 请求验证：DecodeJSONBody（严格模式）、上传大小限制
  - ErrorCode → HTTP 状态码自动映射（4xx/5xx）
  - multipart 与 JSON(base64) 两种图片上传形式
  - 可扩展健康检查：RegisterCheck 注册自定义 HealthCheck 实现
*/
package handlers
